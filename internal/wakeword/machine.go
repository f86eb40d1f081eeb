package wakeword

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

// ErrNoKeywordsConfigured rejects enable without at least one enabled keyword.
var ErrNoKeywordsConfigured = errors.New("no keywords configured")

// Reason is the typed cause attached to the error state.
type Reason string

const (
	ReasonWakeWordInitFailed     Reason = "wakeWordInitFailed"
	ReasonAudioCaptureFailed     Reason = "audioCaptureFailed"
	ReasonTranscriptionFailed    Reason = "transcriptionFailed"
	ReasonInsertionFailed        Reason = "insertionFailed"
	ReasonSilenceTimeoutExceeded Reason = "silenceTimeoutExceeded"
	ReasonMaxDurationExceeded    Reason = "maxDurationExceeded"
)

// Config carries the per-utterance tunables for the wake-word path. The
// silence and max-duration values are independent of the hotkey machine's.
type Config struct {
	Language       string
	Keywords       []Keyword
	SilenceTimeout time.Duration
	MaxDuration    time.Duration
	SilenceEpsilon float64
	MaxChunksHint  int
}

// Rewriter is the command-match step applied between transcription and
// insertion. A nil rewriter passes the transcript through.
type Rewriter func(ctx context.Context, transcript string) string

// Hooks receives lifecycle notifications. Every field is optional.
type Hooks struct {
	Detected func(phrase string)
	Inserted func(s *session.Session)
	Failed   func(reason Reason)
}

// Machine is the long-lived wake-word listening loop. Unlike the hotkey
// machine it survives many utterances: a completed insertion returns it to
// monitoring, and a failure parks it in the error state until an explicit
// Reset or Disable. Transitions are serialized by the mutex; the detector
// event loop runs on its own goroutine.
type Machine struct {
	logger      *slog.Logger
	cfg         Config
	guard       *audio.SourceGuard
	buffer      *audio.CaptureBuffer
	detector    Detector
	transcriber transcribe.Transcriber
	rewrite     Rewriter
	inserter    insert.Inserter
	hooks       Hooks

	// OnLevel observes the RMS level of every chunk fed while capturing.
	OnLevel func(level float64)

	mu         sync.Mutex
	state      fsm.WakeState
	reason     Reason
	sess       *session.Session
	generation uint64
	holdsGuard bool
	cancelLoop context.CancelFunc

	silenceTimer *time.Timer
	maxTimer     *time.Timer
}

// NewMachine wires the machine's collaborators. The guard is shared with the
// hotkey machine so only one of them records at a time.
func NewMachine(
	logger *slog.Logger,
	cfg Config,
	guard *audio.SourceGuard,
	detector Detector,
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
		detector:    detector,
		transcriber: transcriber,
		rewrite:     rewrite,
		inserter:    inserter,
		hooks:       hooks,
		state:       fsm.WakeIdle,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() fsm.WakeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// FailureReason returns the cause of the error state, or empty.
func (m *Machine) FailureReason() Reason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// enabledKeywords filters the configured keywords down to the enabled ones.
func (m *Machine) enabledKeywords() []Keyword {
	var out []Keyword
	for _, k := range m.cfg.Keywords {
		if k.Enabled && strings.TrimSpace(k.Phrase) != "" {
			out = append(out, k)
		}
	}
	return out
}

// Enable starts the detector and begins monitoring. It fails with
// ErrNoKeywordsConfigured when no enabled keyword exists; a detector start
// failure parks the machine in error(wakeWordInitFailed).
func (m *Machine) Enable(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fsm.WakeTransition(m.state, fsm.WakeEventEnable)
	if err != nil {
		return err
	}

	keywords := m.enabledKeywords()
	if len(keywords) == 0 {
		return ErrNoKeywordsConfigured
	}

	loopCtx, cancel := context.WithCancel(ctx)
	detections, err := m.detector.Start(loopCtx, keywords)
	if err != nil {
		cancel()
		m.failLocked(ReasonWakeWordInitFailed, err.Error())
		return fmt.Errorf("start wake-word detector: %w", err)
	}

	m.state = next
	m.cancelLoop = cancel
	m.generation++
	if m.logger != nil {
		m.logger.Info("wake-word monitoring enabled", "keywords", len(keywords))
	}

	go m.loop(loopCtx, detections)
	return nil
}

// loop consumes detector events until the channel closes or the machine is
// disabled.
func (m *Machine) loop(ctx context.Context, detections <-chan Detection) {
	for {
		select {
		case <-ctx.Done():
			return
		case det, ok := <-detections:
			if !ok {
				return
			}
			m.onDetection(ctx, det)
		}
	}
}

// onDetection arms a capture when a keyword clears its trigger threshold.
// The triggered state is observable but momentary; the machine moves to
// capturing in the same critical section.
func (m *Machine) onDetection(ctx context.Context, det Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != fsm.WakeMonitoring {
		return
	}

	keyword, found := m.lookupKeyword(det.Phrase)
	if !found || det.Score < keyword.TriggerThreshold {
		if m.logger != nil {
			m.logger.Debug("detection below threshold", "phrase", det.Phrase, "score", det.Score)
		}
		return
	}

	// A hotkey session already holds the microphone. That is transient, so
	// drop this detection and keep monitoring instead of parking in error.
	if !m.guard.TryAcquire() {
		if m.logger != nil {
			m.logger.Info("wake word ignored; microphone held by another session", "phrase", det.Phrase)
		}
		return
	}
	m.holdsGuard = true

	next, err := fsm.WakeTransition(m.state, fsm.WakeEventDetect)
	if err != nil {
		m.releaseGuardLocked()
		return
	}
	m.state = next
	next, err = fsm.WakeTransition(m.state, fsm.WakeEventCapture)
	if err != nil {
		m.releaseGuardLocked()
		return
	}
	m.state = next

	m.generation++
	m.sess = session.New(m.cfg.Language)
	m.buffer.Clear()
	m.armTimersLocked(ctx, m.generation)

	if m.logger != nil {
		m.logger.Info("wake word detected", "phrase", det.Phrase, "score", det.Score)
	}
	if m.hooks.Detected != nil {
		m.hooks.Detected(det.Phrase)
	}
}

func (m *Machine) lookupKeyword(phrase string) (Keyword, bool) {
	for _, k := range m.enabledKeywords() {
		if strings.EqualFold(k.Phrase, phrase) {
			return k, true
		}
	}
	return Keyword{}, false
}

// Feed is the producer callback for one captured chunk. Chunks arriving
// outside capturing are dropped. A level at or above the silence epsilon
// re-arms the silence timer.
func (m *Machine) Feed(chunk audio.Chunk) {
	m.mu.Lock()
	if m.state != fsm.WakeCapturing {
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

// CaptureFailed reports that the audio stream backing the current capture
// could not be started or died. The machine parks in error until Reset.
func (m *Machine) CaptureFailed(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != fsm.WakeCapturing {
		return
	}
	m.failLocked(ReasonAudioCaptureFailed, message)
}

// Reset leaves the error state back to idle. The detector is already
// stopped by the time the machine parks in error.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fsm.WakeTransition(m.state, fsm.WakeEventReset)
	if err != nil {
		return err
	}
	m.state = next
	m.reason = ""
	return nil
}

// Disable stops the detector and returns to idle from any state.
func (m *Machine) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.stopTimersLocked()
	m.stopDetectorLocked()
	m.releaseGuardLocked()
	m.buffer.Clear()
	m.sess = nil
	m.reason = ""

	next, err := fsm.WakeTransition(m.state, fsm.WakeEventDisable)
	if err == nil {
		m.state = next
	}
	if m.logger != nil {
		m.logger.Info("wake-word monitoring disabled")
	}
}

// finishCapture runs the transcribe, command-match, and insert stages after
// an auto-stop, then returns to monitoring. timeoutReason is recorded when
// the capture produced no audio.
func (m *Machine) finishCapture(ctx context.Context, gen uint64, timeoutReason Reason) {
	m.mu.Lock()
	if m.generation != gen || m.state != fsm.WakeCapturing {
		m.mu.Unlock()
		return
	}

	m.stopTimersLocked()
	m.buffer.MarkComplete()

	samples := m.buffer.Samples()
	sess := m.sess
	if len(samples) == 0 {
		m.failLocked(timeoutReason, "no audio captured before timeout")
		m.mu.Unlock()
		return
	}
	sess.Samples = samples
	sess.Peak = m.buffer.PeakLevel()

	next, err := fsm.WakeTransition(m.state, fsm.WakeEventStop)
	if err != nil {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.mu.Unlock()

	result, err := m.transcriber.Transcribe(ctx, samples, sess.Language)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.failLocked(ReasonTranscriptionFailed, err.Error())
		m.mu.Unlock()
		return
	}

	sess.Transcript = result.Text
	sess.Confidence = result.Confidence
	sess.Segments = result.Words

	next, err = fsm.WakeTransition(m.state, fsm.WakeEventTranscribed)
	if err != nil {
		m.mu.Unlock()
		return
	}
	m.state = next
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
		return
	}
	if insertErr != nil {
		m.failLocked(ReasonInsertionFailed, insertErr.Error())
		return
	}

	sess.Transcript = text
	sess.Inserted = strings.TrimSpace(text) != ""
	sess.Close()

	next, err = fsm.WakeTransition(m.state, fsm.WakeEventInserted)
	if err != nil {
		return
	}
	m.state = next

	m.releaseGuardLocked()
	m.buffer.Clear()
	m.sess = nil

	if m.logger != nil {
		m.logger.Info("wake-word session completed",
			"session_id", sess.ID.String(),
			"duration", sess.Duration().String(),
			"inserted", sess.Inserted,
		)
	}
	if m.hooks.Inserted != nil {
		m.hooks.Inserted(sess)
	}
}

// failLocked parks the machine in the error state with the given reason.
// The detector and timers are stopped; recovery requires Reset or Disable.
// Callers hold the mutex.
func (m *Machine) failLocked(reason Reason, message string) {
	m.generation++
	m.stopTimersLocked()
	m.stopDetectorLocked()
	m.releaseGuardLocked()
	m.buffer.Clear()

	if m.sess != nil {
		m.sess.ErrMessage = message
		m.sess.Close()
		m.sess = nil
	}

	m.state = fsm.WakeError
	m.reason = reason

	if m.logger != nil {
		m.logger.Error("wake-word machine failed", "reason", string(reason), "error", message)
	}
	if m.hooks.Failed != nil {
		m.hooks.Failed(reason)
	}
}

func (m *Machine) stopDetectorLocked() {
	if m.cancelLoop == nil {
		return
	}
	m.cancelLoop()
	m.cancelLoop = nil
	if err := m.detector.Stop(); err != nil && m.logger != nil {
		m.logger.Warn("detector stop failed", "error", err.Error())
	}
}

func (m *Machine) releaseGuardLocked() {
	if m.holdsGuard {
		m.guard.Release()
		m.holdsGuard = false
	}
}

// armTimersLocked schedules the silence and max-duration auto-stops for the
// active capture. Both carry the generation so a stale timer never fires
// into a newer utterance.
func (m *Machine) armTimersLocked(ctx context.Context, gen uint64) {
	if m.cfg.SilenceTimeout > 0 {
		m.silenceTimer = time.AfterFunc(m.cfg.SilenceTimeout, func() {
			m.finishCapture(ctx, gen, ReasonSilenceTimeoutExceeded)
		})
	}
	if m.cfg.MaxDuration > 0 {
		m.maxTimer = time.AfterFunc(m.cfg.MaxDuration, func() {
			m.finishCapture(ctx, gen, ReasonMaxDurationExceeded)
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
