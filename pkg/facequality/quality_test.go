package facequality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 {
	return &v
}

// goodFace returns a detection that passes every check in a 640x640 frame.
func goodFace() *FaceDetection {
	return &FaceDetection{
		Bounds:                  Bounds{X: 190, Y: 190, Width: 260, Height: 260},
		YawAngle:                0,
		RollAngle:               0,
		PitchAngle:              fptr(0),
		LeftEyeOpenProbability:  fptr(0.9),
		RightEyeOpenProbability: fptr(0.9),
	}
}

func TestEvaluate_NoFace(t *testing.T) {
	report := Evaluate(nil, 640, 640)

	require.False(t, report.Passed)
	require.Contains(t, report.Message, "no face")
	require.Empty(t, report.Details)
}

func TestEvaluate_AllChecksPass(t *testing.T) {
	report := Evaluate(goodFace(), 640, 640)

	require.True(t, report.Passed)
	require.Len(t, report.Details, 4)
	for name, result := range report.Details {
		require.True(t, result.Passed, "check %s should pass", name)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	face := goodFace()
	face.YawAngle = 7.3

	first := Evaluate(face, 640, 480)
	second := Evaluate(face, 640, 480)

	require.Equal(t, first, second)
}

func TestEvaluate_YawLeftFailsAngleOnly(t *testing.T) {
	face := goodFace()
	face.YawAngle = 20

	report := Evaluate(face, 640, 640)

	require.False(t, report.Passed)
	require.Contains(t, report.Message, "left")
	require.Len(t, report.Details, 4)
	require.False(t, report.Details[CheckAngle].Passed)
	require.True(t, report.Details[CheckSize].Passed)
	require.True(t, report.Details[CheckEyes].Passed)
	require.True(t, report.Details[CheckCentered].Passed)
}

func TestEvaluate_FailingChecks(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(face *FaceDetection)
		failedCheck string
		contains    string
	}{
		{
			name:        "yaw right",
			mutate:      func(f *FaceDetection) { f.YawAngle = -20 },
			failedCheck: CheckAngle,
			contains:    "right",
		},
		{
			name:        "roll tilt",
			mutate:      func(f *FaceDetection) { f.RollAngle = 17 },
			failedCheck: CheckAngle,
			contains:    "tilted",
		},
		{
			name:        "pitch up",
			mutate:      func(f *FaceDetection) { f.PitchAngle = fptr(16) },
			failedCheck: CheckAngle,
			contains:    "up",
		},
		{
			name: "face too small",
			mutate: func(f *FaceDetection) {
				f.Bounds = Bounds{X: 280, Y: 280, Width: 80, Height: 80}
			},
			failedCheck: CheckSize,
			contains:    "closer",
		},
		{
			name: "face too large",
			mutate: func(f *FaceDetection) {
				f.Bounds = Bounds{X: 10, Y: 10, Width: 620, Height: 620}
			},
			failedCheck: CheckSize,
			contains:    "back",
		},
		{
			name:        "left eye closed",
			mutate:      func(f *FaceDetection) { f.LeftEyeOpenProbability = fptr(0.2) },
			failedCheck: CheckEyes,
			contains:    "open your eyes",
		},
		{
			name:        "right eye closed",
			mutate:      func(f *FaceDetection) { f.RightEyeOpenProbability = fptr(0.4) },
			failedCheck: CheckEyes,
			contains:    "open your eyes",
		},
		{
			name: "off center horizontally",
			mutate: func(f *FaceDetection) {
				f.Bounds = Bounds{X: 350, Y: 190, Width: 260, Height: 260}
			},
			failedCheck: CheckCentered,
			contains:    "left",
		},
		{
			name: "off center vertically",
			mutate: func(f *FaceDetection) {
				f.Bounds = Bounds{X: 190, Y: 350, Width: 260, Height: 260}
			},
			failedCheck: CheckCentered,
			contains:    "up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := goodFace()
			tt.mutate(face)

			report := Evaluate(face, 640, 640)

			require.False(t, report.Passed)
			require.Len(t, report.Details, 4)
			require.False(t, report.Details[tt.failedCheck].Passed)
			require.Contains(t, report.Message, tt.contains)
			require.Equal(t, report.Details[tt.failedCheck].Message, report.Message)
		})
	}
}

func TestEvaluate_FirstFailureOrderIsFixed(t *testing.T) {
	// Both the angle and the size checks fail; the angle message must win.
	face := goodFace()
	face.YawAngle = 30
	face.Bounds = Bounds{X: 300, Y: 300, Width: 40, Height: 40}

	report := Evaluate(face, 640, 640)

	require.False(t, report.Passed)
	require.Equal(t, report.Details[CheckAngle].Message, report.Message)
	require.False(t, report.Details[CheckSize].Passed)
}

func TestCheckEyesOpen_SkippedWhenUnsupported(t *testing.T) {
	face := goodFace()
	face.LeftEyeOpenProbability = nil
	face.RightEyeOpenProbability = nil

	result := CheckEyesOpen(face)

	require.True(t, result.Passed)
	require.Contains(t, result.Message, "could not be checked")

	report := Evaluate(face, 640, 640)
	require.True(t, report.Passed)
}

func TestCheckEyesOpen_SingleProbabilityStillChecked(t *testing.T) {
	face := goodFace()
	face.LeftEyeOpenProbability = nil
	face.RightEyeOpenProbability = fptr(0.1)

	result := CheckEyesOpen(face)

	require.False(t, result.Passed)
}
