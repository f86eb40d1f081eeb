// Package capture drives the hotkey-triggered dictation session from start
// through transcription and insertion.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxcmd/voxcmd/internal/audio"
	"github.com/voxcmd/voxcmd/internal/fsm"
	"github.com/voxcmd/voxcmd/internal/insert"
	"github.com/voxcmd/voxcmd/internal/session"
	"github.com/voxcmd/voxcmd/internal/transcribe"
)

var (
	// ErrAlreadyRecording rejects start while a session is active or the
	// microphone is held by the wake-word machine.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording rejects stop outside the recording state.
	ErrNotRecording = errors.New("not recording")
	// ErrNoAudioCaptured reports a stop that flushed zero samples.
	ErrNoAudioCaptured = errors.New("no audio captured")
)

// Config carries the per-session tunables for the hotkey path.
type Config struct {
	Language       string
	SilenceTimeout time.Duration
	MaxDuration    time.Duration
	SilenceEpsilon float64
	MaxChunksHint  int
}

// Rewriter is the command-match step applied between transcription and
// insertion. A nil rewriter passes the transcript through.
type Rewriter func(ctx context.Context, transcript string) string

// Hooks receives lifecycle notifications, typically for metrics and
// desktop notifications. Every field is optional.
type Hooks struct {
	Started          func()
	Completed        func(s *session.Session)
	Cancelled        func()
	TranscribeFailed func()
	InsertFailed     func()
	TranscribeDone   func(elapsed time.Duration)
}

func (h Hooks) started() {
	if h.Started != nil {
		h.Started()
	}
}

func (h Hooks) completed(s *session.Session) {
	if h.Completed != nil {
		h.Completed(s)
	}
}

func (h Hooks) cancelled() {
	if h.Cancelled != nil {
		h.Cancelled()
	}
}

// Machine owns one hotkey dictation lifecycle at a time. All transitions are
// serialized by its mutex; the transcriber and inserter calls run outside the
// lock so cancel stays responsive, and a generation counter discards their
// results if the session was cancelled while they were in flight.
type Machine struct {
	logger      *slog.Logger
	cfg         Config
	guard       *audio.SourceGuard
	buffer      *audio.CaptureBuffer
	transcriber transcribe.Transcriber
	rewrite     Rewriter
	inserter    insert.Inserter
	hooks       Hooks

	// OnLevel observes the RMS level of every chunk fed while recording.
	OnLevel func(level float64)

	mu         sync.Mutex
	state      fsm.State
	sess       *session.Session
	generation uint64

	silenceTimer *time.Timer
	maxTimer     *time.Timer
}

// NewMachine wires the machine's collaborators. The guard is shared with the
// wake-word machine so only one of them records at a time.
func NewMachine(
	logger *slog.Logger,
	cfg Config,
	guard *audio.SourceGuard,
	transcriber transcribe.Transcriber,
	rewrite Rewriter,
	inserter insert.Inserter,
	hooks Hooks,
) *Machine {
	if guard == nil {
		guard = &audio.SourceGuard{}
	}
	return &Machine{
		logger:      logger,
		cfg:         cfg,
		guard:       guard,
		buffer:      audio.NewCaptureBuffer(cfg.MaxChunksHint),
		transcriber: transcriber,
		rewrite:     rewrite,
		inserter:    inserter,
		hooks:       hooks,
		state:       fsm.StateIdle,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() fsm.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start opens a new session and begins accepting chunks via Feed.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != fsm.StateIdle {
		return ErrAlreadyRecording
	}
	if !m.guard.TryAcquire() {
		return ErrAlreadyRecording
	}

	next, err := fsm.Transition(m.state, fsm.EventStart)
	if err != nil {
		m.guard.Release()
		return err
	}

	m.generation++
	m.sess = session.New(m.cfg.Language)
	m.buffer.Clear()
	m.state = next
	m.armTimersLocked(m.generation)

	if m.logger != nil {
		m.logger.Info("session started", "session_id", m.sess.ID.String())
	}
	m.hooks.started()
	return nil
}

// Feed is the producer callback for one captured chunk. Chunks arriving
// outside recording are dropped. A level at or above the silence epsilon
// re-arms the silence timer.
func (m *Machine) Feed(chunk audio.Chunk) {
	m.mu.Lock()
	if m.state != fsm.StateRecording {
		m.mu.Unlock()
		return
	}
	m.buffer.Append(chunk)
	level := chunk.RMS()
	if level >= m.cfg.SilenceEpsilon && m.silenceTimer != nil {
		m.silenceTimer.Reset(m.cfg.SilenceTimeout)
	}
	observer := m.OnLevel
	m.mu.Unlock()

	if observer != nil {
		observer(level)
	}
}

// Stop ends capture and runs the transcribe, command-match, and insert
// stages. A transcriber or inserter failure cancels the session with the
// message recorded on it, returns the machine to idle, and surfaces the
// wrapped error.
func (m *Machine) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.state != fsm.StateRecording {
		m.mu.Unlock()
		return ErrNotRecording
	}

	gen := m.generation
	m.stopTimersLocked()
	m.buffer.MarkComplete()

	samples := m.buffer.Samples()
	sess := m.sess
	if len(samples) == 0 {
		m.discardLocked(sess, ErrNoAudioCaptured.Error())
		m.mu.Unlock()
		return ErrNoAudioCaptured
	}

	sess.Samples = samples
	sess.Peak = m.buffer.PeakLevel()

	next, err := fsm.Transition(m.state, fsm.EventStop)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = next
	sess.State = next
	m.mu.Unlock()

	began := time.Now()
	result, err := m.transcriber.Transcribe(ctx, samples, sess.Language)
	elapsed := time.Since(began)
	if m.hooks.TranscribeDone != nil {
		m.hooks.TranscribeDone(elapsed)
	}

	m.mu.Lock()
	if m.generation != gen {
		// Cancelled while the call was in flight; the result is stale.
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		if m.hooks.TranscribeFailed != nil {
			m.hooks.TranscribeFailed()
		}
		m.discardLocked(sess, err.Error())
		m.mu.Unlock()
		return fmt.Errorf("transcribe session %s: %w", sess.ID, err)
	}

	sess.Transcript = result.Text
	sess.Confidence = result.Confidence
	sess.Segments = result.Words

	next, err = fsm.Transition(m.state, fsm.EventTranscribed)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = next
	sess.State = next
	m.mu.Unlock()

	text := result.Text
	if m.rewrite != nil {
		text = m.rewrite(ctx, text)
	}

	var insertErr error
	if strings.TrimSpace(text) != "" {
		insertErr = m.inserter.Insert(ctx, text)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return nil
	}
	if insertErr != nil {
		if m.hooks.InsertFailed != nil {
			m.hooks.InsertFailed()
		}
		m.discardLocked(sess, insertErr.Error())
		return fmt.Errorf("insert session %s: %w", sess.ID, insertErr)
	}

	sess.Transcript = text
	sess.Inserted = strings.TrimSpace(text) != ""

	next, err = fsm.Transition(m.state, fsm.EventInserted)
	if err != nil {
		return err
	}
	m.state = next
	sess.State = next
	sess.Close()

	if m.logger != nil {
		m.logger.Info("session completed",
			"session_id", sess.ID.String(),
			"duration", sess.Duration().String(),
			"transcribe_latency", elapsed.String(),
			"inserted", sess.Inserted,
		)
	}
	m.hooks.completed(sess)

	m.resetLocked()
	return nil
}

// Cancel aborts the session from any non-idle state, discarding buffered
// audio and any in-flight transcription result.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == fsm.StateIdle {
		return ErrNotRecording
	}

	next, err := fsm.Transition(m.state, fsm.EventCancel)
	if err != nil {
		return err
	}
	m.state = next
	m.generation++
	m.stopTimersLocked()

	sess := m.sess
	if sess != nil {
		sess.State = fsm.StateCancelled
		sess.Close()
		if m.logger != nil {
			m.logger.Info("session cancelled", "session_id", sess.ID.String())
		}
	}
	m.hooks.cancelled()

	m.resetLocked()
	return nil
}

// discardLocked cancels the active session with a failure message and
// returns the machine to idle. Callers hold the mutex.
func (m *Machine) discardLocked(sess *session.Session, message string) {
	if next, err := fsm.Transition(m.state, fsm.EventCancel); err == nil {
		m.state = next
	}
	m.generation++
	m.stopTimersLocked()
	if sess != nil {
		sess.ErrMessage = message
		sess.State = fsm.StateCancelled
		sess.Close()
		if m.logger != nil {
			m.logger.Warn("session aborted", "session_id", sess.ID.String(), "error", message)
		}
	}
	m.hooks.cancelled()
	m.resetLocked()
}

// resetLocked returns a finished machine to idle and releases the mic.
// Callers hold the mutex; state must be completed or cancelled.
func (m *Machine) resetLocked() {
	if next, err := fsm.Transition(m.state, fsm.EventReset); err == nil {
		m.state = next
	}
	m.buffer.Clear()
	m.sess = nil
	m.guard.Release()
}

// armTimersLocked schedules the silence and max-duration auto-stops. Both
// check the generation so a timer outliving its session never fires into a
// newer one.
func (m *Machine) armTimersLocked(gen uint64) {
	if m.cfg.SilenceTimeout > 0 {
		m.silenceTimer = time.AfterFunc(m.cfg.SilenceTimeout, func() {
			m.autoStop(gen, "silence timeout")
		})
	}
	if m.cfg.MaxDuration > 0 {
		m.maxTimer = time.AfterFunc(m.cfg.MaxDuration, func() {
			m.autoStop(gen, "max duration")
		})
	}
}

func (m *Machine) stopTimersLocked() {
	if m.silenceTimer != nil {
		m.silenceTimer.Stop()
		m.silenceTimer = nil
	}
	if m.maxTimer != nil {
		m.maxTimer.Stop()
		m.maxTimer = nil
	}
}

// autoStop runs the normal stop path when a timer fires. Timeouts are not
// errors; an empty buffer at silence timeout just discards the session.
func (m *Machine) autoStop(gen uint64, reason string) {
	m.mu.Lock()
	if m.generation != gen || m.state != fsm.StateRecording {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("auto-stop", "reason", reason)
	}
	if err := m.Stop(context.Background()); err != nil &&
		!errors.Is(err, ErrNotRecording) && !errors.Is(err, ErrNoAudioCaptured) {
		if m.logger != nil {
			m.logger.Warn("auto-stop failed", "reason", reason, "error", err.Error())
		}
	}
}
