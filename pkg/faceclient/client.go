// Package faceclient is the client side of the face attendance service: the
// multipart API client, the error classifier that turns service failures into
// actionable guidance, and the submission controller sequencing location
// acquisition, upload and response interpretation.
package faceclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"face-attendance/pkg/location"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds every request. The original client had none and
// could hang on a dead uplink; a hard cap is a deliberate improvement.
const DefaultTimeout = 30 * time.Second

type ClientOption func(*Client)

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

func NewClient(baseURL string, log *logrus.Logger, options ...ClientOption) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     log,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// Register submits a face image for enrollment under the given username.
func (c *Client) Register(ctx context.Context, username string, image ImageFile) (*RegisterResponse, error) {
	form := newMultipartForm()
	if err := form.writeField("username", username); err != nil {
		return nil, err
	}
	if err := form.writeImage("file", image); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/face/register", form)
	if err != nil {
		return nil, err
	}

	var resp RegisterResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to parse register response")
		return nil, &APIError{Status: http.StatusOK, Code: CodeUnknownError, Message: "unreadable register response"}
	}

	return &resp, nil
}

// RecognizeRequest carries everything POST /face/recognize accepts. Username
// and Location are optional; coordinates travel as stringified decimals.
type RecognizeRequest struct {
	Image    ImageFile
	Action   Action
	Username string
	Location *location.Coordinate
}

// Recognize submits a check-in/check-out. A 2xx response with
// recognized=false is returned as a user_not_found APIError alongside the
// parsed body.
func (c *Client) Recognize(ctx context.Context, req RecognizeRequest) (*RecognizeResponse, error) {
	form := newMultipartForm()
	if err := form.writeImage("file", req.Image); err != nil {
		return nil, err
	}
	if err := form.writeField("action", string(req.Action)); err != nil {
		return nil, err
	}
	if req.Username != "" {
		if err := form.writeField("username", req.Username); err != nil {
			return nil, err
		}
	}
	if req.Location != nil {
		if err := form.writeField("latitude", strconv.FormatFloat(req.Location.Latitude, 'f', -1, 64)); err != nil {
			return nil, err
		}
		if err := form.writeField("longitude", strconv.FormatFloat(req.Location.Longitude, 'f', -1, 64)); err != nil {
			return nil, err
		}
	}

	body, err := c.post(ctx, "/face/recognize", form)
	if err != nil {
		return nil, err
	}

	var resp RecognizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to parse recognize response")
		return nil, &APIError{Status: http.StatusOK, Code: CodeUnknownError, Message: "unreadable recognize response"}
	}

	if !resp.Recognized {
		message := resp.Message
		if message == "" {
			message = "user not found in the system"
		}
		return &resp, &APIError{Status: http.StatusOK, Code: CodeUserNotFound, Message: message}
	}

	return &resp, nil
}

// post sends the form and returns the raw 2xx body. Non-2xx responses come
// back as *APIError; transport failures as plain errors.
func (c *Client) post(ctx context.Context, endpoint string, form *multipartForm) ([]byte, error) {
	if err := form.close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &form.buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s failed: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseErrorBody(resp.StatusCode, body)
		c.log.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"code":     apiErr.Code,
		}).Warn("Recognition service returned an error")
		return nil, apiErr
	}

	return body, nil
}

// parseErrorBody interprets {"detail": {...}} and {"detail": "..."} bodies.
// Anything unreadable degrades to unknown_error carrying the HTTP status.
func parseErrorBody(status int, body []byte) *APIError {
	var envelope struct {
		Detail jsoniter.RawMessage `json:"detail"`
	}

	fallback := &APIError{
		Status:  status,
		Code:    CodeUnknownError,
		Message: fmt.Sprintf("HTTP error %d", status),
	}

	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var detail ErrorDetail
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail.Error != "" {
		return &APIError{
			Status:      status,
			Code:        detail.Error,
			Message:     detail.Message,
			Checks:      detail.Checks,
			Distance:    detail.Distance,
			MaxDistance: detail.MaxDistance,
		}
	}

	var plain string
	if err := json.Unmarshal(envelope.Detail, &plain); err == nil && plain != "" {
		return &APIError{Status: status, Code: CodeUnknownError, Message: plain}
	}

	return fallback
}

type multipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newMultipartForm() *multipartForm {
	form := &multipartForm{}
	form.writer = multipart.NewWriter(&form.buf)
	return form
}

func (f *multipartForm) writeField(name, value string) error {
	return f.writer.WriteField(name, value)
}

func (f *multipartForm) writeImage(field string, image ImageFile) error {
	name := image.Name
	if name == "" {
		name = "face.jpg"
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	header.Set("Content-Type", imageMIMEType(name))

	part, err := f.writer.CreatePart(header)
	if err != nil {
		return err
	}

	_, err = part.Write(image.Data)
	return err
}

func (f *multipartForm) close() error {
	return f.writer.Close()
}

func imageMIMEType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg", "":
		return "image/jpeg"
	default:
		return "image/jpeg"
	}
}
