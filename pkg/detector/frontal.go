package detector

import (
	"context"
	"image"

	"face-attendance/pkg/facequality"
	"face-attendance/pkg/imageutil"
)

// Frontal is the development detector. It assumes a portrait composition
// against a plain background: the foreground is whatever differs from the
// border luminance, and its bounding box stands in for the face. It reports
// zero head angles and no eye probabilities, so the quality gate checks only
// size and centering.
type Frontal struct {
	// DiffThreshold is the minimum luminance distance from the border
	// average for a pixel to count as foreground.
	DiffThreshold float64
	// MinAreaRatio below which the foreground is treated as noise and no
	// face is reported.
	MinAreaRatio float64
}

func NewFrontal() *Frontal {
	return &Frontal{
		DiffThreshold: 28,
		MinAreaRatio:  0.02,
	}
}

func (d *Frontal) Detect(ctx context.Context, frame []byte) (*facequality.FaceDetection, error) {
	_ = ctx

	img, err := imageutil.Decode(frame)
	if err != nil {
		return nil, err
	}

	gray := imageutil.Luminance(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	border := borderMean(gray)

	minX, minY := w, h
	maxX, maxY := -1, -1
	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			if diff := v - border; diff > d.DiffThreshold || diff < -d.DiffThreshold {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
				count++
			}
		}
	}

	if maxX < 0 || float64(count)/float64(w*h) < d.MinAreaRatio {
		return nil, nil
	}

	// The luminance plane may be downscaled; map the box back to frame
	// coordinates.
	srcW := float64(img.Bounds().Dx())
	scale := srcW / float64(w)

	return &facequality.FaceDetection{
		Bounds: facequality.Bounds{
			X:      float64(minX) * scale,
			Y:      float64(minY) * scale,
			Width:  float64(maxX-minX+1) * scale,
			Height: float64(maxY-minY+1) * scale,
		},
	}, nil
}

// borderMean averages the luminance of the outer one-pixel ring.
func borderMean(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	total := 0.0
	count := 0
	for x := 0; x < w; x++ {
		total += float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y).Y)
		total += float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+h-1).Y)
		count += 2
	}
	for y := 1; y < h-1; y++ {
		total += float64(gray.GrayAt(bounds.Min.X, bounds.Min.Y+y).Y)
		total += float64(gray.GrayAt(bounds.Min.X+w-1, bounds.Min.Y+y).Y)
		count += 2
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}
