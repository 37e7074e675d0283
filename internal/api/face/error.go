package face

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoUsers      = errors.New("no users registered")
)

// QualityError carries the per-check breakdown so the handler can answer
// with the full diagnostic payload.
type QualityError struct {
	Message string
	Checks  QualityChecks
}

func (e *QualityError) Error() string {
	return "image quality failed: " + e.Message
}

// DetectionError reports that no usable face was found in the frame.
type DetectionError struct {
	Message string
}

func (e *DetectionError) Error() string {
	return "face detection failed: " + e.Message
}

// VerificationError reports that the probe did not match the claimed user.
type VerificationError struct {
	Username string
	Score    float64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %q (score %.3f)", e.Username, e.Score)
}

// LocationError reports a submission from outside the allowed radius.
type LocationError struct {
	Message     string
	Distance    float64
	MaxDistance float64
}

func (e *LocationError) Error() string {
	return "location not allowed: " + e.Message
}
