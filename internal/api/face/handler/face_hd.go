package faceHandler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"face-attendance/internal/api/face"
	contextPkg "face-attendance/pkg/context"
	"face-attendance/pkg/handlerUtil"
	"face-attendance/pkg/log"
	"face-attendance/pkg/response"
)

// readImageFile pulls the uploaded frame out of the multipart form.
func (h *FaceHandler) readImageFile(ctx *fiber.Ctx) ([]byte, error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, response.NewError(fiber.StatusUnprocessableEntity, "field required: file")
	}

	if err := h.utils.ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	return readAll(fileHeader)
}

func readAll(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (h *FaceHandler) Register(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing face register request")

	req := face.RegisterRequest{
		Username: ctx.FormValue("username"),
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	imageData, err := h.readImageFile(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	resp, err := h.faceService.Register(c, req.Username, imageData)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "face_register")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *FaceHandler) Recognize(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing face recognize request")

	req := face.RecognizeRequest{
		Action:   ctx.FormValue("action"),
		Username: ctx.FormValue("username"),
	}

	if raw := ctx.FormValue("latitude"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errHandler.HandleValidationError(ctx, requestID,
				errors.New("latitude must be a number"), ctx.Path())
		}
		req.Latitude = &lat
	}
	if raw := ctx.FormValue("longitude"); raw != "" {
		lon, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errHandler.HandleValidationError(ctx, requestID,
				errors.New("longitude must be a number"), ctx.Path())
		}
		req.Longitude = &lon
	}

	imageData, err := h.readImageFile(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	resp, err := h.faceService.Recognize(c, req, imageData)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "face_recognize")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *FaceHandler) CheckQuality(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	imageData, err := h.readImageFile(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	quality, faceFound, err := h.faceService.CheckQuality(c, imageData)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "face_check_quality")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
		"quality":  quality,
		"detected": faceFound,
		"passed":   quality.Passed && faceFound,
	})
}

func (h *FaceHandler) GetUsers(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	users, err := h.faceService.Usernames(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "face_get_users")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, face.UsersResponse{
		Users: users,
		Count: len(users),
	})
}
