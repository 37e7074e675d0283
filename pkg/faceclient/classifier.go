package faceclient

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the closed set of user-facing failure classes. Every service
// failure maps to exactly one of these; nothing reaches the user unclassified.
type Category string

const (
	CategoryQuality     Category = "QUALITY"
	CategoryNoFace      Category = "NO_FACE"
	CategoryUnknownUser Category = "UNKNOWN_USER"
	CategoryMismatch    Category = "MISMATCH"
	CategoryOutOfRange  Category = "OUT_OF_RANGE"
	CategoryUnknown     Category = "UNKNOWN"
)

// Effect is what a recovery action does when the user picks it.
type Effect string

const (
	EffectRetake   Effect = "retake"
	EffectRetry    Effect = "retry"
	EffectRegister Effect = "register"
	EffectHome     Effect = "home"
)

type RecoveryAction struct {
	Label  string `json:"label"`
	Effect Effect `json:"effect"`
}

// ClassifiedError is a service failure translated into guidance: a category,
// a localized title and message, and the ordered recovery actions to offer.
type ClassifiedError struct {
	Category        Category         `json:"category"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	RecoveryActions []RecoveryAction `json:"recovery_actions"`
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Message)
}

// Diagnostics is the optional structured payload accompanying an error code.
type Diagnostics struct {
	Checks        *QualityChecks
	ServerMessage string
}

// ClassifyContext carries the submission-side facts messages interpolate.
type ClassifyContext struct {
	Action            Action
	Username          string
	RequestedDistance *float64
	MaxDistance       *float64
}

// brightnessDarkThreshold splits a failed brightness check into too-dark
// versus too-bright guidance; the service rejects below 40 and above 220, so
// a failing value under 40 can only mean darkness.
const brightnessDarkThreshold = 40

var (
	actionRetake   = RecoveryAction{Label: "Retake photo", Effect: EffectRetake}
	actionRetry    = RecoveryAction{Label: "Try again", Effect: EffectRetry}
	actionRegister = RecoveryAction{Label: "Register", Effect: EffectRegister}
	actionHome     = RecoveryAction{Label: "Back to home", Effect: EffectHome}
)

// Classify maps a service error code plus optional diagnostics into one of
// the six categories with its default recovery actions. Unrecognized or empty
// codes land in CategoryUnknown.
func Classify(errorCode string, diag *Diagnostics, ctx ClassifyContext) *ClassifiedError {
	switch errorCode {
	case CodeImageQualityFailed:
		return classifyQuality(diag)

	case CodeFaceDetectionFailed:
		return &ClassifiedError{
			Category:        CategoryNoFace,
			Title:           "Face not found",
			Message:         "face the camera and keep your face inside the frame",
			RecoveryActions: []RecoveryAction{actionRetake},
		}

	case CodeUserNotFound:
		return &ClassifiedError{
			Category:        CategoryUnknownUser,
			Title:           "No record found",
			Message:         "no matching user in the system, please register before use",
			RecoveryActions: []RecoveryAction{actionRegister, actionRetry},
		}

	case CodeVerificationFailed:
		return &ClassifiedError{
			Category:        CategoryMismatch,
			Title:           "Verification failed",
			Message:         fmt.Sprintf("the face does not match %q, check the spelling or retake the photo", ctx.Username),
			RecoveryActions: []RecoveryAction{actionRetake, actionHome},
		}

	case CodeLocationNotAllowed:
		message := "you are outside the allowed check-in area"
		if ctx.RequestedDistance != nil && ctx.MaxDistance != nil {
			message = fmt.Sprintf("you are %.0f meters from the office (allowed: %.0f m)",
				*ctx.RequestedDistance, *ctx.MaxDistance)
		}
		return &ClassifiedError{
			Category:        CategoryOutOfRange,
			Title:           "Outside allowed area",
			Message:         message,
			RecoveryActions: []RecoveryAction{actionRetry, actionHome},
		}

	default:
		message := "could not complete the request, please try again"
		if diag != nil && diag.ServerMessage != "" {
			message = diag.ServerMessage
		}
		return &ClassifiedError{
			Category:        CategoryUnknown,
			Title:           "Something went wrong",
			Message:         message,
			RecoveryActions: []RecoveryAction{actionRetry, actionRetake},
		}
	}
}

// classifyQuality composes the QUALITY message from the three sub-checks in
// fixed order (brightness, blur, contrast). The title follows the first of
// brightness/blur that failed; contrast never sets the title.
func classifyQuality(diag *Diagnostics) *ClassifiedError {
	if diag == nil || diag.Checks == nil {
		return &ClassifiedError{
			Category:        CategoryQuality,
			Title:           "Photo rejected",
			Message:         "retake the photo in a well-lit spot and hold the phone steady",
			RecoveryActions: []RecoveryAction{actionRetake},
		}
	}

	checks := diag.Checks
	title := "Photo rejected"
	var bullets []string

	if checks.Brightness != nil && !checks.Brightness.Passed {
		if checks.Brightness.Value < brightnessDarkThreshold {
			title = "Too dark"
			bullets = append(bullets, "too dark, find a brighter spot")
		} else {
			title = "Too bright"
			bullets = append(bullets, "too bright, avoid harsh light")
		}
	}

	if checks.Blur != nil && !checks.Blur.Passed {
		if title == "Photo rejected" {
			title = "Blurry photo"
		}
		bullets = append(bullets, "blurry image, hold the phone steady")
	}

	if checks.Contrast != nil && !checks.Contrast.Passed {
		bullets = append(bullets, "low contrast")
	}

	message := "retake the photo in a well-lit spot and hold the phone steady"
	if len(bullets) > 0 {
		message = "please retake the photo:\n- " + strings.Join(bullets, "\n- ")
	}

	return &ClassifiedError{
		Category:        CategoryQuality,
		Title:           title,
		Message:         message,
		RecoveryActions: []RecoveryAction{actionRetake},
	}
}

// ClassifyError funnels any error from the client into a ClassifiedError.
// APIErrors carry their code and diagnostics; everything else (transport,
// cancellation) degrades to CategoryUnknown with a generic message so raw
// errors are never surfaced.
func ClassifyError(err error, ctx ClassifyContext) *ClassifiedError {
	if classified, ok := err.(*ClassifiedError); ok {
		return classified
	}

	if apiErr, ok := asAPIError(err); ok {
		diag := &Diagnostics{Checks: apiErr.Checks, ServerMessage: apiErr.Message}
		if apiErr.Distance != nil {
			ctx.RequestedDistance = apiErr.Distance
		}
		if apiErr.MaxDistance != nil {
			ctx.MaxDistance = apiErr.MaxDistance
		}
		return Classify(apiErr.Code, diag, ctx)
	}

	return Classify("", nil, ctx)
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
