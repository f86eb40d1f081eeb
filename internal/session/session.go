// Package session holds the per-utterance record shared by both machines.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxcmd/voxcmd/internal/fsm"
)

// Segment is one word-level transcript span with its recognition confidence.
type Segment struct {
	Text       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// Session is one spoken utterance from capture start to insertion or
// cancellation. The owning machine mutates it as the lifecycle progresses
// and discards it when the machine returns to its baseline state.
type Session struct {
	ID         uuid.UUID
	StartedAt  time.Time
	EndedAt    time.Time // zero while the session is open
	Samples    []int16
	Transcript string
	Language   string
	Confidence float64
	Inserted   bool
	ErrMessage string
	Peak       int
	Segments   []Segment
	State      fsm.State
}

// New opens a session for the given language.
func New(language string) *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Language:  language,
		State:     fsm.StateRecording,
	}
}

// Duration is EndedAt-StartedAt, or time since start while the session is open.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Close stamps the end timestamp once.
func (s *Session) Close() {
	if s.EndedAt.IsZero() {
		s.EndedAt = time.Now()
	}
}

// Validate enforces the session invariants.
func (s *Session) Validate() error {
	if !s.EndedAt.IsZero() && s.EndedAt.Before(s.StartedAt) {
		return fmt.Errorf("session %s: end %s precedes start %s", s.ID, s.EndedAt, s.StartedAt)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("session %s: confidence %f outside [0,1]", s.ID, s.Confidence)
	}
	if strings.TrimSpace(s.Language) == "" {
		return fmt.Errorf("session %s: language must not be empty", s.ID)
	}
	return nil
}
