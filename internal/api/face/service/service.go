package faceService

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"face-attendance/internal/api/face"
	faceRepository "face-attendance/internal/api/face/repository"
	"face-attendance/pkg/detector"
	"face-attendance/pkg/location"
	"face-attendance/pkg/utils"
)

type IFaceService interface {
	Register(ctx context.Context, username string, imageData []byte) (face.RegisterResponse, error)
	Recognize(ctx context.Context, req face.RecognizeRequest, imageData []byte) (face.RecognizeResponse, error)
	CheckQuality(ctx context.Context, imageData []byte) (face.QualityResult, bool, error)
	Usernames(ctx context.Context) ([]string, error)
}

type faceService struct {
	log            *logrus.Logger
	faceRepository faceRepository.Repository
	detector       detector.IDetector
	geofence       location.Geofence
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	fr faceRepository.Repository,
	d detector.IDetector,
	geofence location.Geofence,
	utils utils.IUtils,
) IFaceService {
	return &faceService{
		log:            log,
		faceRepository: fr,
		detector:       d,
		geofence:       geofence,
		utils:          utils,
	}
}
