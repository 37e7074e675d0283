// Package geometry holds the small numeric helpers shared by the face
// quality gate and the crop calculator.
package geometry

// AreaRatio returns the ratio of a box area to a frame area. A frame with a
// zero dimension yields 0 so callers never divide by zero.
func AreaRatio(boxW, boxH, frameW, frameH float64) float64 {
	frameArea := frameW * frameH
	if frameArea <= 0 {
		return 0
	}
	return (boxW * boxH) / frameArea
}

// Center returns the midpoint of a box given its origin and size.
func Center(origin, size float64) float64 {
	return origin + size/2
}

// Clamp constrains v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs is math.Abs without the NaN/Inf edge handling this package never needs.
func Abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
