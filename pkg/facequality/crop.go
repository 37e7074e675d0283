package facequality

import (
	"face-attendance/pkg/geometry"
)

// DefaultPaddingRatio is the margin added around the detected face before the
// crop is squared up.
const DefaultPaddingRatio = 0.3

// CropRegion is a frame-clamped sub-rectangle around a detected face. Width
// and height are equal except near frame edges, where each axis is clamped
// independently; see ComputeCrop.
type CropRegion struct {
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// ComputeCrop returns a padded square crop around the face, clamped to the
// frame. It never fails: a zero-area face box yields a degenerate but in-frame
// region, so callers must not assume non-zero dimensions.
//
// Each axis is clamped to the frame on its own after the origin clamp, so the
// output can lose squareness near edges and corners. Whichever axis overflows
// keeps its own shrunken extent; the two are deliberately not reconciled.
func ComputeCrop(face FaceDetection, frameWidth, frameHeight, paddingRatio float64) CropRegion {
	bounds := face.Bounds

	padding := maxf(bounds.Width, bounds.Height) * paddingRatio

	x := bounds.X - padding
	y := bounds.Y - padding
	size := maxf(bounds.Width, bounds.Height) + padding*2

	// Recenter the shorter axis so the padded box is square.
	if bounds.Width > bounds.Height {
		y -= (bounds.Width - bounds.Height) / 2
	} else {
		x -= (bounds.Height - bounds.Width) / 2
	}

	x = geometry.Clamp(x, 0, frameWidth)
	y = geometry.Clamp(y, 0, frameHeight)

	width := size
	height := size
	if x+width > frameWidth {
		width = frameWidth - x
	}
	if y+height > frameHeight {
		height = frameHeight - y
	}

	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	return CropRegion{
		OriginX: x,
		OriginY: y,
		Width:   width,
		Height:  height,
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
