package faceHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	faceService "face-attendance/internal/api/face/service"
	"face-attendance/internal/middleware"
	"face-attendance/pkg/utils"
)

type FaceHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	faceService faceService.IFaceService
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	fs faceService.IFaceService,
	utils utils.IUtils,
) *FaceHandler {
	return &FaceHandler{
		log:         log,
		validator:   validator,
		middleware:  middleware,
		faceService: fs,
		utils:       utils,
	}
}

func (h *FaceHandler) Start(srv fiber.Router) {
	faceGroup := srv.Group("/face")
	faceGroup.Post("/register", h.Register)
	faceGroup.Post("/recognize", h.Recognize)
	faceGroup.Post("/check-quality", h.CheckQuality)
	faceGroup.Get("/users", h.GetUsers)
}
