package handlerUtil

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"face-attendance/internal/api/face"
	"face-attendance/pkg/log"
	"face-attendance/pkg/response"
)

// ErrorHandler translates domain errors into the detail-envelope wire format
// the mobile client parses: {"detail": {"error": <code>, ...}}.
type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}

	var qualityErr *face.QualityError
	if errors.As(err, &qualityErr) {
		h.logger.WithFields(fields).Warn("Image quality rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": face.ErrorDetail{
				Error:   "image_quality_failed",
				Message: qualityErr.Message,
				Checks:  &qualityErr.Checks,
			},
		})
	}

	var detectionErr *face.DetectionError
	if errors.As(err, &detectionErr) {
		h.logger.WithFields(fields).Warn("No face detected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": face.ErrorDetail{
				Error:   "face_detection_failed",
				Message: detectionErr.Message,
			},
		})
	}

	var verificationErr *face.VerificationError
	if errors.As(err, &verificationErr) {
		h.logger.WithFields(fields).Warn("Verification failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": face.ErrorDetail{
				Error:   "verification_failed",
				Message: fmt.Sprintf("could not verify %q, please try again", verificationErr.Username),
			},
		})
	}

	var locationErr *face.LocationError
	if errors.As(err, &locationErr) {
		h.logger.WithFields(fields).Warn("Location not allowed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": face.ErrorDetail{
				Error:       "location_not_allowed",
				Message:     locationErr.Message,
				Distance:    &locationErr.Distance,
				MaxDistance: &locationErr.MaxDistance,
			},
		})
	}

	if errors.Is(err, face.ErrUserNotFound) {
		h.logger.WithFields(fields).Warn("User not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": face.ErrorDetail{
				Error:   "user_not_found",
				Message: "user not found, please register first",
			},
		})
	}

	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail": "an unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"detail": err.Error(),
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
