package faceRepository

import (
	"golang.org/x/net/context"

	"face-attendance/internal/entity"
)

func (r *repository) RecordAttendance(ctx context.Context, record entity.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.attendance = append(r.attendance, record)
	return nil
}

// LastAttendance returns the most recent record for a user, scanning from
// the tail since records are appended in time order.
func (r *repository) LastAttendance(ctx context.Context, username string) (entity.AttendanceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.attendance) - 1; i >= 0; i-- {
		if r.attendance[i].Username == username {
			return r.attendance[i], true
		}
	}

	return entity.AttendanceRecord{}, false
}
