// Package detector locates faces in captured frames. Detection itself is
// delegated: a remote AI service over websocket in production, gocv when the
// build tag is enabled, and a luminance heuristic for development builds.
package detector

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"face-attendance/pkg/facequality"
)

// IDetector finds at most one face in an encoded frame. A frame with no face
// yields (nil, nil); callers feed that into the quality gate, which reports
// it as a no-face failure.
type IDetector interface {
	Detect(ctx context.Context, frame []byte) (*facequality.FaceDetection, error)
}

// FromEnv selects the implementation named by FACE_DETECTOR: "remote" dials
// the websocket AI service at FACE_DETECTOR_WS_URL, "gocv" loads the Haar
// cascade at FACE_CASCADE_PATH, anything else (including unset) runs the
// built-in frontal heuristic.
func FromEnv(log *logrus.Logger) IDetector {
	name := strings.ToLower(os.Getenv("FACE_DETECTOR"))
	switch name {
	case "remote":
		return NewRemote(log)
	case "gocv":
		d, err := NewGoCV(os.Getenv("FACE_CASCADE_PATH"))
		if err != nil {
			log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("Failed to load cascade, falling back to frontal detector")
			return NewFrontal()
		}
		return d
	default:
		if name != "" && name != "frontal" {
			log.WithFields(logrus.Fields{
				"detector": name,
			}).Warn("Unknown FACE_DETECTOR value, using frontal detector")
		}
		return NewFrontal()
	}
}
