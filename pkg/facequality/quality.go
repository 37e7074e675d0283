// Package facequality pre-screens a captured frame before it is spent on a
// network round trip. It consumes the output of a platform face detector and
// never performs detection itself. All checks are pure functions; the remote
// service re-validates everything server-side.
package facequality

import (
	"face-attendance/pkg/geometry"
)

// Thresholds are fixed policy, matched to what the recognition service
// tolerates. They are not derived from the input.
const (
	MaxYawDegrees   = 15.0
	MaxRollDegrees  = 15.0
	MaxPitchDegrees = 15.0

	MinFaceSizeRatio = 0.15
	MaxFaceSizeRatio = 0.85

	MinEyeOpenProbability = 0.5

	CenterTolerance = 0.2
)

// Check names used as keys in QualityReport.Details.
const (
	CheckAngle    = "angle"
	CheckSize     = "size"
	CheckEyes     = "eyes"
	CheckCentered = "centered"
)

type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceDetection is the read-only record produced once per capture by the
// platform detector. Angles are in degrees. PitchAngle and the eye-open
// probabilities are best-effort: detectors that cannot produce them leave the
// pointers nil and the dependent checks degrade as documented.
type FaceDetection struct {
	Bounds                  Bounds   `json:"bounds"`
	YawAngle                float64  `json:"yaw_angle"`
	RollAngle               float64  `json:"roll_angle"`
	PitchAngle              *float64 `json:"pitch_angle,omitempty"`
	LeftEyeOpenProbability  *float64 `json:"left_eye_open_probability,omitempty"`
	RightEyeOpenProbability *float64 `json:"right_eye_open_probability,omitempty"`
}

type QualityCheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// QualityReport aggregates the four checks. Passed is true iff every entry in
// Details passed; Message echoes the first failing check in the fixed order
// angle, size, eyes, centered, or a success message.
type QualityReport struct {
	Passed  bool                          `json:"passed"`
	Message string                        `json:"message"`
	Details map[string]QualityCheckResult `json:"details"`
}

// checkOrder fixes which failure message surfaces first. The checks themselves
// are order-independent.
var checkOrder = []string{CheckAngle, CheckSize, CheckEyes, CheckCentered}

// Evaluate runs the full quality gate against a detection. A nil face yields
// a failed report with empty Details. Details always carries all four results
// when a face is present, so callers can render a full diagnostic panel.
func Evaluate(face *FaceDetection, frameWidth, frameHeight float64) QualityReport {
	if face == nil {
		return QualityReport{
			Passed:  false,
			Message: "no face located, keep your face inside the frame",
			Details: map[string]QualityCheckResult{},
		}
	}

	details := map[string]QualityCheckResult{
		CheckAngle:    CheckFaceAngle(face),
		CheckSize:     CheckFaceSize(face, frameWidth, frameHeight),
		CheckEyes:     CheckEyesOpen(face),
		CheckCentered: CheckFaceCentered(face, frameWidth, frameHeight),
	}

	for _, name := range checkOrder {
		if !details[name].Passed {
			return QualityReport{
				Passed:  false,
				Message: details[name].Message,
				Details: details,
			}
		}
	}

	return QualityReport{
		Passed:  true,
		Message: "face quality passed, ready to capture",
		Details: details,
	}
}

// CheckFaceAngle verifies the head is facing the camera. Yaw is examined
// before roll, roll before pitch; pitch is skipped when the detector did not
// report it.
func CheckFaceAngle(face *FaceDetection) QualityCheckResult {
	if geometry.Abs(face.YawAngle) > MaxYawDegrees {
		direction := "right"
		if face.YawAngle > 0 {
			direction = "left"
		}
		return QualityCheckResult{
			Passed:  false,
			Message: "please face the camera directly (turned too far " + direction + ")",
		}
	}

	if geometry.Abs(face.RollAngle) > MaxRollDegrees {
		direction := "left"
		if face.RollAngle > 0 {
			direction = "right"
		}
		return QualityCheckResult{
			Passed:  false,
			Message: "please keep your head straight (tilted to the " + direction + ")",
		}
	}

	if face.PitchAngle != nil && geometry.Abs(*face.PitchAngle) > MaxPitchDegrees {
		direction := "down"
		if *face.PitchAngle > 0 {
			direction = "up"
		}
		return QualityCheckResult{
			Passed:  false,
			Message: "please face the camera directly (tilted too far " + direction + ")",
		}
	}

	return QualityCheckResult{Passed: true, Message: "head angle ok"}
}

// CheckFaceSize verifies the face fills a reasonable share of the frame.
func CheckFaceSize(face *FaceDetection, frameWidth, frameHeight float64) QualityCheckResult {
	faceRatio := geometry.AreaRatio(face.Bounds.Width, face.Bounds.Height, frameWidth, frameHeight)

	if faceRatio < MinFaceSizeRatio {
		return QualityCheckResult{Passed: false, Message: "please move closer to the camera"}
	}

	if faceRatio > MaxFaceSizeRatio {
		return QualityCheckResult{Passed: false, Message: "please move back from the camera"}
	}

	return QualityCheckResult{Passed: true, Message: "face size ok"}
}

// CheckEyesOpen verifies both eyes are open. When the detector reports no
// eye-open probabilities at all the check is skipped and reported as passed;
// that is a detector limitation, not a quality failure.
func CheckEyesOpen(face *FaceDetection) QualityCheckResult {
	if face.LeftEyeOpenProbability == nil && face.RightEyeOpenProbability == nil {
		return QualityCheckResult{Passed: true, Message: "eye openness could not be checked"}
	}

	if eyeClosed(face.LeftEyeOpenProbability) || eyeClosed(face.RightEyeOpenProbability) {
		return QualityCheckResult{Passed: false, Message: "please open your eyes fully"}
	}

	return QualityCheckResult{Passed: true, Message: "eyes open ok"}
}

func eyeClosed(probability *float64) bool {
	return probability != nil && *probability < MinEyeOpenProbability
}

// CheckFaceCentered verifies the face box center sits within 20% of the frame
// center on each axis, x examined before y.
func CheckFaceCentered(face *FaceDetection, frameWidth, frameHeight float64) QualityCheckResult {
	faceCenterX := geometry.Center(face.Bounds.X, face.Bounds.Width)
	faceCenterY := geometry.Center(face.Bounds.Y, face.Bounds.Height)
	frameCenterX := frameWidth / 2
	frameCenterY := frameHeight / 2

	toleranceX := frameWidth * CenterTolerance
	toleranceY := frameHeight * CenterTolerance

	if geometry.Abs(faceCenterX-frameCenterX) > toleranceX {
		direction := "right"
		if faceCenterX > frameCenterX {
			direction = "left"
		}
		return QualityCheckResult{Passed: false, Message: "please move your face to the " + direction}
	}

	if geometry.Abs(faceCenterY-frameCenterY) > toleranceY {
		direction := "down"
		if faceCenterY > frameCenterY {
			direction = "up"
		}
		return QualityCheckResult{Passed: false, Message: "please move your face " + direction}
	}

	return QualityCheckResult{Passed: true, Message: "face position ok"}
}
