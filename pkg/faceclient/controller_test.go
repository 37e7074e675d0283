package faceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"face-attendance/pkg/log"
	"face-attendance/pkg/location"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// pendingProvider never resolves until released, mimicking a slow GPS fix.
type pendingProvider struct {
	release chan struct{}
	result  location.Coordinate
	err     error
}

func (p *pendingProvider) Current(ctx context.Context) (location.Coordinate, error) {
	select {
	case <-p.release:
		return p.result, p.err
	case <-ctx.Done():
		return location.Coordinate{}, ctx.Err()
	}
}

func testCapture() Capture {
	return Capture{
		Image:    ImageFile{Name: "face.jpg", Data: []byte("jpeg-bytes")},
		Action:   ActionCheckIn,
		Username: "somchai",
	}
}

func TestController_AutoSubmitsWhenLocationArrives(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.NotEmpty(t, r.FormValue("latitude"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recognized":true,"username":"somchai","action":"check_in","score":0.92,"similarity_percent":92.0,"timestamp":"2024-05-01 09:00:00"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, log.NewLogger())
	provider := location.Static{Coordinate: location.Coordinate{Latitude: 13.7868, Longitude: 100.4990}}
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))

	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	result, ok := controller.Result()
	require.True(t, ok)
	require.Equal(t, "somchai", result.Username)
	require.Equal(t, 92.0, result.SimilarityPercent)
	require.Equal(t, int32(1), requests.Load())
}

func TestController_RetryWhileSubmittingIsNoOp(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recognized":true,"username":"somchai","action":"check_in","score":0.9}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, log.NewLogger())
	provider := location.Static{Coordinate: location.Coordinate{Latitude: 13.7868, Longitude: 100.4990}}
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))

	require.Eventually(t, func() bool {
		return controller.State() == StateSubmitting
	}, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, controller.Retry(context.Background()))
	}
	require.Equal(t, StateSubmitting, controller.State())

	close(release)

	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(1), requests.Load())
}

func TestController_RetryWhilePendingLocation(t *testing.T) {
	provider := &pendingProvider{release: make(chan struct{})}
	client := NewClient("http://127.0.0.1:0", log.NewLogger())
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))
	require.Equal(t, StateAcquiringLocation, controller.State())

	err := controller.Retry(context.Background())
	require.ErrorIs(t, err, ErrLocationPending)
}

func TestController_LocationFailureAllowsLocationlessSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.Empty(t, r.FormValue("latitude"))
		require.Empty(t, r.FormValue("longitude"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recognized":true,"username":"somchai","action":"check_in","score":0.88}`))
	}))
	defer server.Close()

	provider := &pendingProvider{release: make(chan struct{}), err: location.ErrUnavailable}
	client := NewClient(server.URL, log.NewLogger())
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))
	close(provider.release)

	// The failure is recorded as a pending reason, not a terminal state.
	require.Eventually(t, func() bool {
		err := controller.Retry(context.Background())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestController_RecognizedFalseEndsUnknownUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recognized":false,"message":"no matching user"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, log.NewLogger())
	provider := location.Static{Coordinate: location.Coordinate{Latitude: 13.7868, Longitude: 100.4990}}
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))

	require.Eventually(t, func() bool {
		return controller.State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)

	failure, ok := controller.Failure()
	require.True(t, ok)
	require.Equal(t, CategoryUnknownUser, failure.Category)
	require.Contains(t, effects(failure.RecoveryActions), EffectRegister)
}

func TestController_RetryAfterFailureResubmits(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":{"error":"verification_failed","message":"no match"}}`))
			return
		}
		w.Write([]byte(`{"recognized":true,"username":"somchai","action":"check_in","score":0.9}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, log.NewLogger())
	provider := location.Static{Coordinate: location.Coordinate{Latitude: 13.7868, Longitude: 100.4990}}
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))

	require.Eventually(t, func() bool {
		return controller.State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)

	failure, _ := controller.Failure()
	require.Equal(t, CategoryMismatch, failure.Category)
	require.Contains(t, failure.Message, "somchai")

	require.NoError(t, controller.Retry(context.Background()))

	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(2), requests.Load())
}

func TestController_TransportFailureIsClassified(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", log.NewLogger(), WithTimeout(200*time.Millisecond))
	provider := location.Static{Coordinate: location.Coordinate{Latitude: 13.7868, Longitude: 100.4990}}
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))

	require.Eventually(t, func() bool {
		return controller.State() == StateFailed
	}, 5*time.Second, 10*time.Millisecond)

	failure, ok := controller.Failure()
	require.True(t, ok)
	require.Equal(t, CategoryUnknown, failure.Category)
}

func TestController_ResetStartsANewCapture(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recognized":true,"username":"somchai","action":"check_in","score":0.9}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, log.NewLogger())
	provider := location.Static{Coordinate: location.Coordinate{Latitude: 13.7868, Longitude: 100.4990}}
	controller := NewController(client, provider, log.NewLogger())

	require.NoError(t, controller.Start(context.Background(), testCapture()))
	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	controller.Reset()
	require.Equal(t, StateIdle, controller.State())
	_, ok := controller.Result()
	require.False(t, ok)

	require.NoError(t, controller.Start(context.Background(), testCapture()))
	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestController_RetryBeforeStart(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", log.NewLogger())
	controller := NewController(client, nil, log.NewLogger())

	err := controller.Retry(context.Background())
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestController_RegisterActionSubmitsWithoutRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/face/register", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"registered","username":"somchai","embedding_count":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, log.NewLogger())
	controller := NewController(client, nil, log.NewLogger())

	capture := testCapture()
	capture.Action = ActionRegister

	require.NoError(t, controller.Start(context.Background(), capture))

	// A nil provider records unavailability; the manual submit then proceeds.
	require.Eventually(t, func() bool {
		return controller.Retry(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return controller.State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	result, ok := controller.Result()
	require.True(t, ok)
	require.Equal(t, ActionRegister, result.Action)
}
