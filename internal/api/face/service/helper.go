package faceService

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/disintegration/imaging"

	"face-attendance/internal/api/face"
	"face-attendance/pkg/imageutil"
)

// Quality thresholds for the server-side gate. These are looser than the
// client-side pre-screen since the capture already passed that.
const (
	minBrightness = 40.0
	maxBrightness = 220.0
	minSharpness  = 30.0
	minContrast   = 30.0
)

// verifyThreshold is the minimum signature similarity accepted as a match.
const verifyThreshold = 0.6

func checkImageQuality(img image.Image) face.QualityResult {
	gray := imageutil.Luminance(img)

	result := face.QualityResult{
		Passed:  true,
		Message: "image quality passed",
	}

	brightness := imageutil.Brightness(gray)
	brightnessCheck := face.QualityCheck{Passed: true, Value: brightness, Message: "brightness ok"}
	if brightness < minBrightness {
		brightnessCheck.Passed = false
		brightnessCheck.Message = fmt.Sprintf("image too dark (brightness %.1f, minimum %.0f)", brightness, minBrightness)
	} else if brightness > maxBrightness {
		brightnessCheck.Passed = false
		brightnessCheck.Message = fmt.Sprintf("image too bright (brightness %.1f, maximum %.0f)", brightness, maxBrightness)
	}
	result.Checks.Brightness = &brightnessCheck
	if !brightnessCheck.Passed {
		if result.Passed {
			result.Message = brightnessCheck.Message
		}
		result.Passed = false
	}

	sharpness := imageutil.LaplacianVariance(gray)
	blurCheck := face.QualityCheck{Passed: true, Value: sharpness, Message: "sharpness ok"}
	if sharpness < minSharpness {
		blurCheck.Passed = false
		blurCheck.Message = fmt.Sprintf("image too blurry (sharpness %.1f, minimum %.0f)", sharpness, minSharpness)
	}
	result.Checks.Blur = &blurCheck
	if !blurCheck.Passed {
		if result.Passed {
			result.Message = blurCheck.Message
		}
		result.Passed = false
	}

	contrast := imageutil.Contrast(gray)
	contrastCheck := face.QualityCheck{Passed: true, Value: contrast, Message: "contrast ok"}
	if contrast < minContrast {
		contrastCheck.Passed = false
		contrastCheck.Message = fmt.Sprintf("image contrast too low (%.1f, minimum %.0f)", contrast, minContrast)
	}
	result.Checks.Contrast = &contrastCheck
	if !contrastCheck.Passed {
		if result.Passed {
			result.Message = contrastCheck.Message
		}
		result.Passed = false
	}

	return result
}

// signatureOf reduces a face crop to a 64-bit difference hash: the crop is
// shrunk to a 9x8 luminance grid and each bit records whether a pixel is
// brighter than its right neighbor.
func signatureOf(faceCrop image.Image) uint64 {
	small := imaging.Resize(faceCrop, 9, 8, imaging.Lanczos)
	gray := imageutil.Luminance(small)

	var signature uint64
	bit := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			left := gray.GrayAt(x, y).Y
			right := gray.GrayAt(x+1, y).Y
			if left > right {
				signature |= 1 << uint(bit)
			}
			bit++
		}
	}

	return signature
}

// similarity maps the hamming distance between two signatures to [0,1].
func similarity(a, b uint64) float64 {
	return 1.0 - float64(bits.OnesCount64(a^b))/64.0
}

// bestSimilarity scores a probe against every enrolled signature and keeps
// the highest.
func bestSimilarity(probe uint64, signatures []uint64) float64 {
	best := -1.0
	for _, s := range signatures {
		if score := similarity(probe, s); score > best {
			best = score
		}
	}
	return best
}
