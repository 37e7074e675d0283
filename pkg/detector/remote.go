package detector

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"face-attendance/pkg/facequality"
)

// Remote streams frames to the face detection AI service over a websocket.
// One frame in, one detection out; the connection is reused across frames
// and re-dialed on demand when it drops.
type Remote struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	url          string
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// remoteDetection is the wire shape the AI service answers with. A frame
// without a face comes back as {"face": null}.
type remoteDetection struct {
	Face *facequality.FaceDetection `json:"face"`
}

func NewRemote(log *logrus.Logger) *Remote {
	client := &Remote{
		log:          log,
		url:          detectorURL(),
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	go func() {
		if err := client.Reconnect(); err != nil {
			log.WithFields(logrus.Fields{
				"error": err.Error(),
				"url":   client.url,
			}).Warn("Initial connection to face detector failed, will retry on demand")
		}
	}()

	return client
}

func detectorURL() string {
	url := os.Getenv("FACE_DETECTOR_WS_URL")
	if url == "" {
		url = "ws://localhost:8000/api/v1/face/ws"
	}
	return url
}

func (c *Remote) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Reconnect drops any existing connection and dials a fresh one.
func (c *Remote) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
	})

	c.conn = conn
	go c.keepAlive()

	return nil
}

func (c *Remote) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Remote) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		conn := c.conn
		if conn == nil {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Warn("Ping to face detector failed, marking connection as dead")
			conn.Close()
			c.conn = nil
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *Remote) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("not connected to face detector at %s", c.url)
	}
	return c.conn, nil
}

// Detect sends one binary frame and waits for the detection answer.
func (c *Remote) Detect(ctx context.Context, frame []byte) (*facequality.FaceDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.getConnection()
	if err != nil {
		if err := c.Reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to face detector: %w", err)
		}
		conn, err = c.getConnection()
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.conn = nil
		conn.Close()
		c.mu.Unlock()
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))

	c.mu.Unlock()

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		conn.Close()
		c.mu.Unlock()
		return nil, fmt.Errorf("error reading detection: %w", err)
	}

	c.mu.Lock()
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	c.mu.Unlock()

	var result remoteDetection
	if err := json.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling detection: %w", err)
	}

	if result.Face != nil {
		c.log.WithFields(logrus.Fields{
			"x":     result.Face.Bounds.X,
			"y":     result.Face.Bounds.Y,
			"yaw":   result.Face.YawAngle,
			"roll":  result.Face.RollAngle,
			"bytes": len(frame),
		}).Debug("Face located by remote detector")
	}

	return result.Face, nil
}
