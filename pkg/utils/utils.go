package utils

import (
	"crypto/rand"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"face-attendance/pkg/response"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return response.NewError(http.StatusUnprocessableEntity, "no file uploaded")
	}

	if file.Size > u.maxFileSize {
		return response.NewError(http.StatusRequestEntityTooLarge, "file size exceeds limit")
	}

	// Clients that cannot sniff the payload send application/octet-stream;
	// the decoder rejects non-images later.
	contentType := file.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return response.NewError(http.StatusUnsupportedMediaType, "uploaded file is not an image")
	}

	return nil
}
