package faceclient

import (
	"os"
	"path/filepath"
)

// Session is the explicit session context: the username survives restarts on
// disk (the mobile app keeps it in device storage), while the captured image
// lives only in memory until it is submitted or discarded.
type Session struct {
	path     string
	username string
	capture  *Capture
}

const sessionFileName = "session.json"

type sessionFile struct {
	Username string `json:"username"`
}

// LoadSession reads the persisted username from dir, creating nothing. A
// missing or unreadable file simply yields an empty session.
func LoadSession(dir string) *Session {
	session := &Session{path: filepath.Join(dir, sessionFileName)}

	data, err := os.ReadFile(session.path)
	if err != nil {
		return session
	}

	var stored sessionFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return session
	}

	session.username = stored.Username
	return session
}

func (s *Session) Username() string {
	return s.username
}

// SetUsername updates and persists the username.
func (s *Session) SetUsername(username string) error {
	s.username = username

	data, err := json.Marshal(sessionFile{Username: username})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// Attach hands the session a captured frame. Any previous capture is
// discarded first.
func (s *Session) Attach(capture Capture) {
	s.capture = &capture
}

// Capture returns the held frame, if any.
func (s *Session) Capture() (Capture, bool) {
	if s.capture == nil {
		return Capture{}, false
	}
	return *s.capture, true
}

// Discard drops the captured frame. Image bytes are never written to disk.
func (s *Session) Discard() {
	s.capture = nil
}
