//go:build gocv
// +build gocv

package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"face-attendance/pkg/facequality"
)

// GoCV runs Haar cascade face detection locally. Cascades report a bounding
// box only, so the detection carries zero head angles and no eye
// probabilities; the angle and eye checks pass vacuously and the remote
// service remains the authority on pose.
type GoCV struct {
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
}

// NewGoCV loads the Haar cascade at path (e.g. haarcascade_frontalface_default.xml).
func NewGoCV(cascadePath string) (*GoCV, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade from %s", cascadePath)
	}
	return &GoCV{classifier: classifier}, nil
}

func (d *GoCV) Detect(ctx context.Context, frame []byte) (*facequality.FaceDetection, error) {
	_ = ctx

	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, errors.New("failed to decode image")
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScale(gray)
	d.mu.Unlock()

	if len(rects) == 0 {
		return nil, nil
	}

	// Keep the largest face when the cascade finds several.
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}

	return &facequality.FaceDetection{
		Bounds: facequality.Bounds{
			X:      float64(best.Min.X),
			Y:      float64(best.Min.Y),
			Width:  float64(best.Dx()),
			Height: float64(best.Dy()),
		},
	}, nil
}

func (d *GoCV) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
