package detector

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"face-attendance/pkg/facequality"
	"face-attendance/pkg/log"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// portraitFrame draws a bright square subject on a dark background.
func portraitFrame(t *testing.T, frameSide, subjectX, subjectY, subjectSide int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, frameSide, frameSide))
	dark := color.RGBA{R: 20, G: 20, B: 20, A: 255}
	bright := color.RGBA{R: 220, G: 200, B: 180, A: 255}

	for y := 0; y < frameSide; y++ {
		for x := 0; x < frameSide; x++ {
			if x >= subjectX && x < subjectX+subjectSide && y >= subjectY && y < subjectY+subjectSide {
				img.Set(x, y, bright)
			} else {
				img.Set(x, y, dark)
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFrontal_LocatesCenteredSubject(t *testing.T) {
	frame := portraitFrame(t, 320, 100, 100, 140)

	face, err := NewFrontal().Detect(context.Background(), frame)
	require.NoError(t, err)
	require.NotNil(t, face)

	require.InDelta(t, 100, face.Bounds.X, 5)
	require.InDelta(t, 100, face.Bounds.Y, 5)
	require.InDelta(t, 140, face.Bounds.Width, 8)
	require.InDelta(t, 140, face.Bounds.Height, 8)
}

func TestFrontal_DetectionPassesQualityGate(t *testing.T) {
	frame := portraitFrame(t, 320, 100, 100, 140)

	face, err := NewFrontal().Detect(context.Background(), frame)
	require.NoError(t, err)

	report := facequality.Evaluate(face, 320, 320)
	require.True(t, report.Passed, report.Message)
}

func TestFrontal_UniformFrameHasNoFace(t *testing.T) {
	frame := portraitFrame(t, 320, 0, 0, 0)

	face, err := NewFrontal().Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Nil(t, face)
}

func TestFrontal_InvalidBytes(t *testing.T) {
	_, err := NewFrontal().Detect(context.Background(), []byte("not an image"))
	require.Error(t, err)
}

func detectorServer(t *testing.T, response string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(response)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRemote_DetectRoundTrip(t *testing.T) {
	server := detectorServer(t, `{"face":{"bounds":{"x":120,"y":80,"width":200,"height":220},"yaw_angle":3.5,"roll_angle":-1.2,"left_eye_open_probability":0.94,"right_eye_open_probability":0.91}}`)
	t.Setenv("FACE_DETECTOR_WS_URL", "ws"+strings.TrimPrefix(server.URL, "http"))

	client := NewRemote(log.NewLogger())
	defer client.Close()

	face, err := client.Detect(context.Background(), []byte("frame-bytes"))
	require.NoError(t, err)
	require.NotNil(t, face)
	require.Equal(t, 120.0, face.Bounds.X)
	require.Equal(t, 3.5, face.YawAngle)
	require.NotNil(t, face.LeftEyeOpenProbability)
	require.Equal(t, 0.94, *face.LeftEyeOpenProbability)
	require.Nil(t, face.PitchAngle)
}

func TestRemote_NullFaceMeansNoFace(t *testing.T) {
	server := detectorServer(t, `{"face":null}`)
	t.Setenv("FACE_DETECTOR_WS_URL", "ws"+strings.TrimPrefix(server.URL, "http"))

	client := NewRemote(log.NewLogger())
	defer client.Close()

	face, err := client.Detect(context.Background(), []byte("frame-bytes"))
	require.NoError(t, err)
	require.Nil(t, face)
}

func TestRemote_UnreachableService(t *testing.T) {
	t.Setenv("FACE_DETECTOR_WS_URL", "ws://127.0.0.1:1/api/v1/face/ws")

	client := NewRemote(log.NewLogger())
	defer client.Close()

	_, err := client.Detect(context.Background(), []byte("frame-bytes"))
	require.Error(t, err)
}

func TestFromEnv_DefaultsToFrontal(t *testing.T) {
	t.Setenv("FACE_DETECTOR", "")

	require.IsType(t, &Frontal{}, FromEnv(log.NewLogger()))
}

func TestFromEnv_SelectsRemote(t *testing.T) {
	t.Setenv("FACE_DETECTOR", "remote")
	t.Setenv("FACE_DETECTOR_WS_URL", "ws://127.0.0.1:1/api/v1/face/ws")

	d := FromEnv(log.NewLogger())
	remote, ok := d.(*Remote)
	require.True(t, ok)
	defer remote.Close()
}

func TestFromEnv_UnknownValueFallsBack(t *testing.T) {
	t.Setenv("FACE_DETECTOR", "mediapipe")

	require.IsType(t, &Frontal{}, FromEnv(log.NewLogger()))
}
