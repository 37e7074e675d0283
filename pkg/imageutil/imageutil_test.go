package imageutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"face-attendance/pkg/facequality"
)

func uniformImage(w, h int, level uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

func checkerboard(w, h, cell int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			level := uint8(30)
			if (x/cell+y/cell)%2 == 0 {
				level = 220
			}
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

func TestDecode_InvalidData(t *testing.T) {
	_, err := Decode([]byte("not an image"))

	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecode_RoundTrip(t *testing.T) {
	data, err := EncodeJPEG(checkerboard(64, 64, 8), 90)
	require.NoError(t, err)

	img, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 64, img.Bounds().Dy())
}

func TestApplyCrop(t *testing.T) {
	img := uniformImage(640, 480, 128)
	region := facequality.CropRegion{OriginX: 100, OriginY: 50, Width: 200, Height: 200}

	cropped := ApplyCrop(img, region)

	require.Equal(t, 200, cropped.Bounds().Dx())
	require.Equal(t, 200, cropped.Bounds().Dy())
}

func TestBrightness(t *testing.T) {
	dark := Luminance(uniformImage(100, 100, 10))
	bright := Luminance(uniformImage(100, 100, 240))

	require.InDelta(t, 10, Brightness(dark), 1)
	require.InDelta(t, 240, Brightness(bright), 1)
}

func TestContrast(t *testing.T) {
	flat := Luminance(uniformImage(100, 100, 128))
	busy := Luminance(checkerboard(100, 100, 4))

	require.InDelta(t, 0, Contrast(flat), 0.5)
	require.Greater(t, Contrast(busy), 30.0)
}

func TestLaplacianVariance(t *testing.T) {
	flat := Luminance(uniformImage(100, 100, 128))
	sharp := Luminance(checkerboard(100, 100, 2))

	require.InDelta(t, 0, LaplacianVariance(flat), 0.5)
	require.Greater(t, LaplacianVariance(sharp), 30.0)
}

func TestLuminance_DownscalesLargeFrames(t *testing.T) {
	gray := Luminance(uniformImage(1920, 1080, 100))

	require.LessOrEqual(t, gray.Bounds().Dx(), 256)
	require.LessOrEqual(t, gray.Bounds().Dy(), 256)
	require.InDelta(t, 100, Brightness(gray), 2)
}
