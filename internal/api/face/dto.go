package face

// QualityCheck is one of the three server-side image quality measurements.
type QualityCheck struct {
	Passed  bool    `json:"passed"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

type QualityChecks struct {
	Brightness *QualityCheck `json:"brightness,omitempty"`
	Blur       *QualityCheck `json:"blur,omitempty"`
	Contrast   *QualityCheck `json:"contrast,omitempty"`
}

type QualityResult struct {
	Passed  bool          `json:"passed"`
	Checks  QualityChecks `json:"checks"`
	Message string        `json:"message"`
}

type RegisterRequest struct {
	Username string `form:"username" validate:"required,min=1,max=64"`
}

type RegisterResponse struct {
	Status         string `json:"status"`
	Username       string `json:"username"`
	EmbeddingCount int    `json:"embedding_count"`
	Message        string `json:"message"`
	QualityPassed  bool   `json:"quality_passed"`
	FaceDetected   bool   `json:"face_detected"`
}

type RecognizeRequest struct {
	Action    string   `form:"action"`
	Username  string   `form:"username"`
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
}

type RecognizeResponse struct {
	Recognized        bool     `json:"recognized"`
	Username          string   `json:"username,omitempty"`
	Score             float64  `json:"score"`
	SimilarityPercent float64  `json:"similarity_percent,omitempty"`
	Action            string   `json:"action,omitempty"`
	Timestamp         string   `json:"timestamp,omitempty"`
	TimePeriod        string   `json:"time_period,omitempty"`
	TimePeriodThai    string   `json:"time_period_thai,omitempty"`
	Distance          *float64 `json:"distance,omitempty"`
	Message           string   `json:"message,omitempty"`
	QualityPassed     bool     `json:"quality_passed"`
}

type UsersResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// ErrorDetail is the error body the mobile client parses, wrapped in a
// top-level "detail" object.
type ErrorDetail struct {
	Error       string         `json:"error"`
	Message     string         `json:"message,omitempty"`
	Checks      *QualityChecks `json:"checks,omitempty"`
	Distance    *float64       `json:"distance,omitempty"`
	MaxDistance *float64       `json:"max_distance,omitempty"`
}
