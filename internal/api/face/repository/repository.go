package faceRepository

import (
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"face-attendance/internal/entity"
)

type Repository interface {
	SaveSignature(ctx context.Context, username string, signature uint64) (int, error)
	GetUser(ctx context.Context, username string) (entity.User, error)
	AllUsers(ctx context.Context) ([]entity.User, error)
	Usernames(ctx context.Context) ([]string, error)
	RecordAttendance(ctx context.Context, record entity.AttendanceRecord) error
	LastAttendance(ctx context.Context, username string) (entity.AttendanceRecord, bool)
}

// repository keeps everything in process memory. The development server is
// meant to run with zero infrastructure; a restart wipes enrollment.
type repository struct {
	mu         sync.RWMutex
	users      map[string]*entity.User
	attendance []entity.AttendanceRecord
	log        *logrus.Logger
}

func New(log *logrus.Logger) Repository {
	return &repository{
		users: make(map[string]*entity.User),
		log:   log,
	}
}
