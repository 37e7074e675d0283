package faceclient

import (
	"fmt"
)

// Action is the intent of a submission.
type Action string

const (
	ActionRegister Action = "register"
	ActionCheckIn  Action = "check_in"
	ActionCheckOut Action = "check_out"
)

// Error codes the recognition service emits inside the detail payload.
const (
	CodeImageQualityFailed  = "image_quality_failed"
	CodeFaceDetectionFailed = "face_detection_failed"
	CodeUserNotFound        = "user_not_found"
	CodeVerificationFailed  = "verification_failed"
	CodeLocationNotAllowed  = "location_not_allowed"
	CodeUnknownError        = "unknown_error"
)

// ImageFile is an in-memory captured frame. The MIME type sent on the wire is
// inferred from the name's extension, defaulting to image/jpeg.
type ImageFile struct {
	Name string
	Data []byte
}

// QualityCheck is one server-side sub-check (brightness, blur or contrast).
type QualityCheck struct {
	Passed  bool    `json:"passed"`
	Value   float64 `json:"value,omitempty"`
	Message string  `json:"message,omitempty"`
}

// QualityChecks is the nested diagnostics payload of image_quality_failed.
type QualityChecks struct {
	Brightness *QualityCheck `json:"brightness,omitempty"`
	Blur       *QualityCheck `json:"blur,omitempty"`
	Contrast   *QualityCheck `json:"contrast,omitempty"`
}

// ErrorDetail is the structured error body of a non-2xx response:
// {"detail": {"error": ..., "message": ..., ...}}. The detail member may also
// be a bare string; the client normalizes that into Message.
type ErrorDetail struct {
	Error       string         `json:"error"`
	Message     string         `json:"message,omitempty"`
	Checks      *QualityChecks `json:"checks,omitempty"`
	Distance    *float64       `json:"distance,omitempty"`
	MaxDistance *float64       `json:"max_distance,omitempty"`
	Username    string         `json:"username,omitempty"`
}

// RegisterResponse is the 200 body of POST /face/register.
type RegisterResponse struct {
	Status         string `json:"status"`
	Username       string `json:"username"`
	EmbeddingCount int    `json:"embedding_count,omitempty"`
	Message        string `json:"message,omitempty"`
}

// RecognizeResponse is the 200 body of POST /face/recognize. Recognized may
// be false on a success status; the client maps that to user_not_found.
type RecognizeResponse struct {
	Recognized        bool     `json:"recognized"`
	Username          string   `json:"username"`
	Action            Action   `json:"action"`
	Score             float64  `json:"score"`
	SimilarityPercent float64  `json:"similarity_percent,omitempty"`
	TimePeriod        string   `json:"time_period,omitempty"`
	TimePeriodThai    string   `json:"time_period_thai,omitempty"`
	Distance          *float64 `json:"distance,omitempty"`
	Timestamp         string   `json:"timestamp,omitempty"`
	Message           string   `json:"message,omitempty"`
}

// APIError is a structured failure from the recognition service, either a
// non-2xx response or a 2xx with recognized=false. Transport errors are
// returned as plain errors, not APIErrors.
type APIError struct {
	Status      int
	Code        string
	Message     string
	Checks      *QualityChecks
	Distance    *float64
	MaxDistance *float64
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Code, e.Status)
}

// SubmissionResult is the success variant surfaced by the controller.
type SubmissionResult struct {
	Username          string   `json:"username"`
	Action            Action   `json:"action"`
	SimilarityPercent float64  `json:"similarity_percent"`
	DistanceMeters    *float64 `json:"distance_meters,omitempty"`
	TimePeriodThai    string   `json:"time_period_thai,omitempty"`
	Timestamp         string   `json:"timestamp"`
}
