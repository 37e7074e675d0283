package entity

import "time"

type AttendanceAction string

const (
	ActionCheckIn  AttendanceAction = "check_in"
	ActionCheckOut AttendanceAction = "check_out"
)

// IsValidAction reports whether the submitted action is one the system
// records. Unknown actions fall back to check_in upstream.
func IsValidAction(action string) bool {
	return action == string(ActionCheckIn) || action == string(ActionCheckOut)
}

type AttendanceRecord struct {
	ID             string           `json:"id"`
	Username       string           `json:"username"`
	Action         AttendanceAction `json:"action"`
	Score          float64          `json:"score"`
	Timestamp      time.Time        `json:"timestamp"`
	TimePeriod     string           `json:"time_period"`
	TimePeriodThai string           `json:"time_period_thai"`
	DistanceMeters *float64         `json:"distance_meters,omitempty"`
}

// TimePeriod buckets an hour of day into the office's attendance windows.
// The Thai label is what the mobile client displays.
func TimePeriod(hour int) (string, string) {
	switch {
	case hour >= 6 && hour < 12:
		return "morning", "เช้า"
	case hour >= 12 && hour < 13:
		return "noon", "กลางวัน"
	case hour >= 13 && hour < 18:
		return "afternoon", "บ่าย"
	default:
		return "evening", "เย็น/ค่ำ"
	}
}
