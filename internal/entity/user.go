package entity

import "time"

// User is a registered person with one face signature per enrolled photo.
// Recognition compares a probe against every signature and keeps the best
// score, so enrolling more photos improves tolerance to lighting and pose.
type User struct {
	Username   string    `json:"username"`
	Signatures []uint64  `json:"signatures"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
