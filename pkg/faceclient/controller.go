package faceclient

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"face-attendance/pkg/location"
)

// State of a submission for one captured frame. Succeeded and Failed are
// terminal; a new capture goes through Reset back to Idle.
type State string

const (
	StateIdle              State = "idle"
	StateAcquiringLocation State = "acquiring_location"
	StateSubmitting        State = "submitting"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
)

var (
	// ErrLocationPending is surfaced when the user asks to submit before a
	// coordinate (or a definitive acquisition failure) is available.
	ErrLocationPending = errors.New("still acquiring location")

	ErrNotStarted = errors.New("no capture submitted yet")
)

// Capture is one frame plus its submission intent. The image bytes live only
// for the duration of the submission; Reset discards them.
type Capture struct {
	Image    ImageFile
	Action   Action
	Username string
}

// Controller sequences location acquisition, upload and response
// interpretation for a single capture at a time.
//
// Location becoming available and the user pressing retry both funnel through
// one guarded dispatch, so the auto-advancing edge cannot race a manual
// submission into a double upload: at most one submission is ever in flight.
type Controller struct {
	client    *Client
	locations location.Provider
	log       *logrus.Logger

	mu          sync.Mutex
	state       State
	capture     Capture
	coordinate  *location.Coordinate
	locationErr error
	result      *SubmissionResult
	failure     *ClassifiedError
	generation  int
}

func NewController(client *Client, locations location.Provider, log *logrus.Logger) *Controller {
	return &Controller{
		client:    client,
		locations: locations,
		log:       log,
		state:     StateIdle,
	}
}

// Start accepts a capture and begins acquiring a location. As soon as a
// coordinate arrives the submission fires on its own; acquisition failure is
// recorded as a pending reason, never a terminal failure, because a
// location-less submission is still valid.
func (c *Controller) Start(ctx context.Context, capture Capture) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return errors.New("controller already holds a capture, Reset first")
	}

	c.capture = capture
	c.state = StateAcquiringLocation
	c.generation++

	generation := c.generation
	go c.acquireLocation(ctx, generation)

	return nil
}

func (c *Controller) acquireLocation(ctx context.Context, generation int) {
	if c.locations == nil {
		c.dispatch(ctx, event{kind: eventLocationFailed, generation: generation, err: location.ErrUnavailable})
		return
	}

	coordinate, err := c.locations.Current(ctx)
	if err != nil {
		c.dispatch(ctx, event{kind: eventLocationFailed, generation: generation, err: err})
		return
	}

	c.dispatch(ctx, event{kind: eventLocationReady, generation: generation, coordinate: &coordinate})
}

// Retry asks for a submission by hand: a no-op while one is already in
// flight, ErrLocationPending while acquisition has neither produced a
// coordinate nor failed, and otherwise a (re-)submission with whatever
// location is held.
func (c *Controller) Retry(ctx context.Context) error {
	return c.dispatch(ctx, event{kind: eventRetry, generation: c.currentGeneration()})
}

// Reset discards the capture and any held result so a new frame can start
// from Idle. The image bytes are dropped here; nothing persists them.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capture = Capture{}
	c.coordinate = nil
	c.locationErr = nil
	c.result = nil
	c.failure = nil
	c.state = StateIdle
	c.generation++
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the success payload once the controller reached Succeeded.
func (c *Controller) Result() (*SubmissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.state == StateSucceeded
}

// Failure returns the classified error once the controller reached Failed.
func (c *Controller) Failure() (*ClassifiedError, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure, c.state == StateFailed
}

// Location returns the held coordinate, if acquisition has produced one.
func (c *Controller) Location() (*location.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coordinate, c.coordinate != nil
}

type eventKind int

const (
	eventLocationReady eventKind = iota
	eventLocationFailed
	eventRetry
	eventSubmitDone
)

type event struct {
	kind       eventKind
	generation int
	coordinate *location.Coordinate
	err        error
	result     *SubmissionResult
	submitErr  error
}

func (c *Controller) currentGeneration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// dispatch is the single transition function. Every edge of the state machine
// runs under the lock; events from an abandoned capture (stale generation)
// are dropped.
func (c *Controller) dispatch(ctx context.Context, ev event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.generation != c.generation {
		return nil
	}

	switch ev.kind {
	case eventLocationReady:
		if c.state != StateAcquiringLocation {
			return nil
		}
		c.coordinate = ev.coordinate
		c.locationErr = nil
		c.beginSubmitLocked(ctx)
		return nil

	case eventLocationFailed:
		if c.state != StateAcquiringLocation {
			return nil
		}
		c.locationErr = ev.err
		c.log.WithFields(logrus.Fields{
			"action": c.capture.Action,
			"error":  ev.err.Error(),
		}).Warn("Location acquisition failed, submission will proceed without coordinates on retry")
		return nil

	case eventRetry:
		switch c.state {
		case StateIdle:
			return ErrNotStarted
		case StateSubmitting:
			// Single-submission guard: a second request never starts.
			return nil
		case StateSucceeded:
			return nil
		case StateAcquiringLocation:
			if c.coordinate == nil && c.locationErr == nil {
				return ErrLocationPending
			}
			c.beginSubmitLocked(ctx)
			return nil
		case StateFailed:
			// Re-enter Submitting directly; the held location is reused.
			c.failure = nil
			c.beginSubmitLocked(ctx)
			return nil
		}
		return nil

	case eventSubmitDone:
		if c.state != StateSubmitting {
			return nil
		}
		if ev.submitErr != nil {
			c.failure = ClassifyError(ev.submitErr, c.classifyContextLocked())
			c.state = StateFailed
			c.log.WithFields(logrus.Fields{
				"action":   c.capture.Action,
				"category": c.failure.Category,
			}).Warn("Submission failed")
			return nil
		}
		c.result = ev.result
		c.state = StateSucceeded
		return nil
	}

	return nil
}

func (c *Controller) beginSubmitLocked(ctx context.Context) {
	c.state = StateSubmitting
	generation := c.generation
	capture := c.capture
	coordinate := c.coordinate

	go func() {
		result, err := c.submit(ctx, capture, coordinate)
		c.dispatch(ctx, event{
			kind:       eventSubmitDone,
			generation: generation,
			result:     result,
			submitErr:  err,
		})
	}()
}

func (c *Controller) submit(ctx context.Context, capture Capture, coordinate *location.Coordinate) (*SubmissionResult, error) {
	if capture.Action == ActionRegister {
		resp, err := c.client.Register(ctx, capture.Username, capture.Image)
		if err != nil {
			return nil, err
		}
		return &SubmissionResult{
			Username: resp.Username,
			Action:   ActionRegister,
		}, nil
	}

	resp, err := c.client.Recognize(ctx, RecognizeRequest{
		Image:    capture.Image,
		Action:   capture.Action,
		Username: capture.Username,
		Location: coordinate,
	})
	if err != nil {
		return nil, err
	}

	similarity := resp.SimilarityPercent
	if similarity == 0 {
		similarity = resp.Score * 100
	}

	return &SubmissionResult{
		Username:          resp.Username,
		Action:            resp.Action,
		SimilarityPercent: similarity,
		DistanceMeters:    resp.Distance,
		TimePeriodThai:    resp.TimePeriodThai,
		Timestamp:         resp.Timestamp,
	}, nil
}

func (c *Controller) classifyContextLocked() ClassifyContext {
	return ClassifyContext{
		Action:   c.capture.Action,
		Username: c.capture.Username,
	}
}
