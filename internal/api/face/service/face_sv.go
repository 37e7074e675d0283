package faceService

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"face-attendance/internal/api/face"
	"face-attendance/internal/entity"
	contextPkg "face-attendance/pkg/context"
	"face-attendance/pkg/facequality"
	"face-attendance/pkg/imageutil"
	"face-attendance/pkg/location"
)

// processImage runs the server-side quality gate and face detection, and
// returns the signature of the padded face crop.
func (s *faceService) processImage(ctx context.Context, imageData []byte) (uint64, error) {
	requestID := contextPkg.GetRequestID(ctx)

	img, err := imageutil.Decode(imageData)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to decode uploaded image")
		return 0, err
	}

	quality := checkImageQuality(img)
	if !quality.Passed {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"message":    quality.Message,
		}).Warn("Image failed quality checks")
		return 0, &face.QualityError{Message: quality.Message, Checks: quality.Checks}
	}

	detection, err := s.detector.Detect(ctx, imageData)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Face detector failed")
		return 0, err
	}

	if detection == nil {
		return 0, &face.DetectionError{Message: "no face found in the image"}
	}

	bounds := img.Bounds()
	region := facequality.ComputeCrop(*detection, float64(bounds.Dx()), float64(bounds.Dy()), facequality.DefaultPaddingRatio)
	crop := imageutil.ApplyCrop(img, region)

	return signatureOf(crop), nil
}

func (s *faceService) Register(ctx context.Context, username string, imageData []byte) (face.RegisterResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	signature, err := s.processImage(ctx, imageData)
	if err != nil {
		return face.RegisterResponse{}, err
	}

	count, err := s.faceRepository.SaveSignature(ctx, username, signature)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"username":   username,
			"error":      err.Error(),
		}).Error("Failed to save face signature")
		return face.RegisterResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"username":   username,
		"count":      count,
	}).Info("Face registered")

	return face.RegisterResponse{
		Status:         "registered",
		Username:       username,
		EmbeddingCount: count,
		Message:        fmt.Sprintf("face enrolled successfully (%d photos total)", count),
		QualityPassed:  true,
		FaceDetected:   true,
	}, nil
}

func (s *faceService) Recognize(ctx context.Context, req face.RecognizeRequest, imageData []byte) (face.RecognizeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	action := req.Action
	if !entity.IsValidAction(action) {
		action = string(entity.ActionCheckIn)
	}

	// Geofence first: a submission from outside the radius is rejected
	// before any image work.
	var distance *float64
	if req.Latitude != nil && req.Longitude != nil {
		check := s.geofence.Check(location.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
		if !check.Allowed {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"distance":   check.Distance,
			}).Warn("Submission outside allowed radius")
			return face.RecognizeResponse{}, &face.LocationError{
				Message:     check.Message,
				Distance:    check.Distance,
				MaxDistance: check.MaxDistance,
			}
		}
		rounded := math.Round(check.Distance)
		distance = &rounded
	}

	signature, err := s.processImage(ctx, imageData)
	if err != nil {
		return face.RecognizeResponse{}, err
	}

	var matched string
	var score float64
	if req.Username != "" {
		user, err := s.faceRepository.GetUser(ctx, req.Username)
		if err != nil {
			return face.RecognizeResponse{}, err
		}

		score = bestSimilarity(signature, user.Signatures)
		if score < verifyThreshold {
			return face.RecognizeResponse{}, &face.VerificationError{Username: req.Username, Score: score}
		}
		matched = req.Username
	} else {
		matched, score, err = s.recognizeAny(ctx, signature)
		if err != nil {
			return face.RecognizeResponse{}, err
		}

		if matched == "" {
			return face.RecognizeResponse{
				Recognized:    false,
				Score:         score,
				Message:       "no matching user found, please register first",
				QualityPassed: true,
			}, nil
		}
	}

	now := time.Now()
	period, periodThai := entity.TimePeriod(now.Hour())

	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate record ID")
		return face.RecognizeResponse{}, err
	}

	record := entity.AttendanceRecord{
		ID:             id,
		Username:       matched,
		Action:         entity.AttendanceAction(action),
		Score:          score,
		Timestamp:      now,
		TimePeriod:     period,
		TimePeriodThai: periodThai,
		DistanceMeters: distance,
	}
	if err := s.faceRepository.RecordAttendance(ctx, record); err != nil {
		return face.RecognizeResponse{}, err
	}

	similarityPercent := math.Round(score*1000) / 10

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"username":   matched,
		"action":     action,
		"score":      score,
	}).Info("Attendance recorded")

	return face.RecognizeResponse{
		Recognized:        true,
		Username:          matched,
		Score:             score,
		SimilarityPercent: similarityPercent,
		Action:            action,
		Timestamp:         now.Format("2006-01-02 15:04:05"),
		TimePeriod:        period,
		TimePeriodThai:    periodThai,
		Distance:          distance,
		Message:           fmt.Sprintf("%s recorded for %s (similarity %.1f%%)", action, periodThai, similarityPercent),
		QualityPassed:     true,
	}, nil
}

// recognizeAny scores the probe against every enrolled user and returns the
// best match above the threshold, or an empty username when nobody matches.
func (s *faceService) recognizeAny(ctx context.Context, signature uint64) (string, float64, error) {
	users, err := s.faceRepository.AllUsers(ctx)
	if err != nil {
		return "", 0, err
	}

	best := -1.0
	matched := ""
	for _, user := range users {
		if score := bestSimilarity(signature, user.Signatures); score > best {
			best = score
			matched = user.Username
		}
	}

	if best < verifyThreshold {
		return "", best, nil
	}

	return matched, best, nil
}

func (s *faceService) CheckQuality(ctx context.Context, imageData []byte) (face.QualityResult, bool, error) {
	img, err := imageutil.Decode(imageData)
	if err != nil {
		return face.QualityResult{}, false, err
	}

	quality := checkImageQuality(img)

	detection, err := s.detector.Detect(ctx, imageData)
	if err != nil {
		return quality, false, err
	}

	return quality, detection != nil, nil
}

func (s *faceService) Usernames(ctx context.Context) ([]string, error) {
	return s.faceRepository.Usernames(ctx)
}
