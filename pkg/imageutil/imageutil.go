// Package imageutil decodes captured frames, applies face crop regions and
// computes the photometric statistics the recognition service checks
// (brightness, sharpness, contrast).
package imageutil

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"face-attendance/pkg/facequality"
)

var ErrInvalidImage = errors.New("invalid image file")

// metricMaxSide bounds the working size for the photometric metrics; the
// statistics are stable under downscaling and full-resolution scans are
// wasted work.
const metricMaxSide = 256

func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	return img, nil
}

// ApplyCrop cuts the face crop region out of the frame. The region is already
// frame-clamped by the calculator, so the rectangle is always valid.
func ApplyCrop(img image.Image, region facequality.CropRegion) image.Image {
	bounds := img.Bounds()
	rect := image.Rect(
		bounds.Min.X+int(region.OriginX),
		bounds.Min.Y+int(region.OriginY),
		bounds.Min.X+int(region.OriginX+region.Width),
		bounds.Min.Y+int(region.OriginY+region.Height),
	)
	return imaging.Crop(img, rect)
}

// Resize scales an image to the given width preserving aspect ratio.
func Resize(img image.Image, width int) image.Image {
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Luminance returns a downscaled grayscale copy used by the metric functions.
func Luminance(img image.Image) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > metricMaxSide || h > metricMaxSide {
		scale := float64(metricMaxSide) / float64(max(w, h))
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		img = dst
		bounds = dst.Bounds()
	}

	gray := image.NewGray(bounds)
	xdraw.Draw(gray, bounds, img, bounds.Min, xdraw.Src)
	return gray
}

// Brightness is the mean luminance in [0,255].
func Brightness(gray *image.Gray) float64 {
	total := 0.0
	count := 0

	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// Contrast is the standard deviation of the luminance.
func Contrast(gray *image.Gray) float64 {
	mean := Brightness(gray)
	total := 0.0
	count := 0

	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := float64(gray.GrayAt(x, y).Y) - mean
			total += d * d
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return math.Sqrt(total / float64(count))
}

// LaplacianVariance measures sharpness: high variance means a crisp image,
// low variance a blurred one.
func LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	responses := make([]float64, 0, (w-2)*(h-2))
	sum := 0.0

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			response := float64(gray.GrayAt(x-1, y).Y) +
				float64(gray.GrayAt(x+1, y).Y) +
				float64(gray.GrayAt(x, y-1).Y) +
				float64(gray.GrayAt(x, y+1).Y) -
				4*center
			responses = append(responses, response)
			sum += response
		}
	}

	mean := sum / float64(len(responses))
	variance := 0.0
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}

	return variance / float64(len(responses))
}
