//go:build !gocv
// +build !gocv

package detector

import (
	"context"
	"errors"

	"face-attendance/pkg/facequality"
)

type GoCV struct{}

func NewGoCV(cascadePath string) (*GoCV, error) {
	_ = cascadePath
	return &GoCV{}, nil
}

// Detect returns an error when built without the gocv tag.
func (d *GoCV) Detect(ctx context.Context, frame []byte) (*facequality.FaceDetection, error) {
	_ = ctx
	_ = frame
	return nil, errors.New("gocv build tag is not enabled")
}

func (d *GoCV) Close() error {
	return nil
}
