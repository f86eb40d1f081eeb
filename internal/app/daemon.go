package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/voxcmd/voxcmd/internal/audio"
	"github.com/voxcmd/voxcmd/internal/capture"
	"github.com/voxcmd/voxcmd/internal/command"
	"github.com/voxcmd/voxcmd/internal/config"
	"github.com/voxcmd/voxcmd/internal/focus"
	"github.com/voxcmd/voxcmd/internal/fsm"
	"github.com/voxcmd/voxcmd/internal/insert"
	"github.com/voxcmd/voxcmd/internal/ipc"
	"github.com/voxcmd/voxcmd/internal/metrics"
	"github.com/voxcmd/voxcmd/internal/notify"
	"github.com/voxcmd/voxcmd/internal/session"
	"github.com/voxcmd/voxcmd/internal/transcribe"
	"github.com/voxcmd/voxcmd/internal/wakeword"
)

// Daemon owns the long-lived dictation state: both session machines, the
// command snapshot store, the pulse streams feeding the active machine, and
// the IPC command surface.
type Daemon struct {
	logger      *slog.Logger
	cfg         config.Config
	store       *command.Store
	commandPath string
	metrics     *metrics.Metrics
	notifier    *notify.Notifier
	hotkey      *capture.Machine
	wake        *wakeword.Machine

	mu           sync.Mutex
	hotkeyStream *stream
	wakeStream   *stream
}

// stream pairs a pulse capture with its pump goroutine's completion signal,
// so a stop can wait for every flushed chunk to reach the machine.
type stream struct {
	capture *audio.Capture
	done    chan struct{}
}

func (s *stream) stop() error {
	err := s.capture.Stop()
	<-s.done
	return err
}

// NewDaemon wires the dictation pipeline from a validated config. A nil
// detector disables the wake-word path; the hotkey path is always available.
func NewDaemon(
	logger *slog.Logger,
	cfg config.Config,
	transcriber transcribe.Transcriber,
	inserter insert.Inserter,
	probe focus.Probe,
	detector wakeword.Detector,
	commandPath string,
) *Daemon {
	m := metrics.New()

	store := command.NewStore(logger)
	engine := command.NewEngine(store, probe, logger)
	engine.OnMatch = m.CommandMatches.Inc

	notifier := notify.New(logger, cfg.Notifications.Enable)

	d := &Daemon{
		logger:      logger,
		cfg:         cfg,
		store:       store,
		commandPath: commandPath,
		metrics:     m,
		notifier:    notifier,
	}

	guard := &audio.SourceGuard{}

	d.hotkey = capture.NewMachine(logger, capture.Config{
		Language:       cfg.Session.Language,
		SilenceTimeout: cfg.Session.SilenceThreshold.Std(),
		MaxDuration:    cfg.Session.MaxDuration.Std(),
		SilenceEpsilon: cfg.Session.SilenceEpsilon,
	}, guard, transcriber, engine.Rewrite, inserter, capture.Hooks{
		Started: m.SessionsStarted.Inc,
		Completed: func(s *session.Session) {
			m.SessionsCompleted.Inc()
			if s.Inserted {
				notifier.Inserted(s.Transcript)
			}
			go d.stopHotkeyStream()
		},
		Cancelled: func() {
			m.SessionsCancelled.Inc()
			go d.stopHotkeyStream()
		},
		TranscribeFailed: m.TranscriptionFailures.Inc,
		InsertFailed:     m.InsertionFailures.Inc,
		TranscribeDone: func(elapsed time.Duration) {
			m.TranscriptionDuration.Observe(elapsed.Seconds())
		},
	})

	if detector != nil {
		d.wake = wakeword.NewMachine(logger, wakeword.Config{
			Language:       cfg.Session.Language,
			Keywords:       wakeKeywords(cfg.WakeWord),
			SilenceTimeout: cfg.WakeWord.SilenceThreshold.Std(),
			MaxDuration:    cfg.WakeWord.MaxDuration.Std(),
			SilenceEpsilon: cfg.WakeWord.SilenceEpsilon,
		}, guard, detector, transcriber, engine.Rewrite, inserter, wakeword.Hooks{
			Detected: func(string) {
				m.WakeDetections.Inc()
				go d.startWakeStream(context.Background())
			},
			Inserted: func(s *session.Session) {
				if s.Inserted {
					notifier.Inserted(s.Transcript)
				}
				go d.stopWakeStream()
			},
			Failed: func(reason wakeword.Reason) {
				m.WakeErrors.WithLabelValues(string(reason)).Inc()
				notifier.Error(fmt.Sprintf("wake-word session failed: %s", reason))
				go d.stopWakeStream()
			},
		})
	}

	return d
}

func wakeKeywords(cfg config.WakeWordConfig) []wakeword.Keyword {
	keywords := make([]wakeword.Keyword, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		keywords = append(keywords, wakeword.Keyword{
			Phrase:           k.Phrase,
			BoostingScore:    k.BoostingScore,
			TriggerThreshold: k.TriggerThreshold,
			Enabled:          k.IsEnabled(),
		})
	}
	return keywords
}

// Start loads the command file, begins watching it, and enables wake-word
// monitoring when configured. Failures here are non-fatal: the daemon still
// serves the hotkey path.
func (d *Daemon) Start(ctx context.Context) {
	if err := d.store.LoadFile(d.commandPath); err != nil {
		d.logger.Warn("command config unavailable; voice commands disabled", "error", err.Error())
	}
	go func() {
		if err := d.store.Watch(ctx, d.commandPath); err != nil {
			d.logger.Warn("command config watcher stopped", "error", err.Error())
		}
	}()

	if d.cfg.WakeWord.Enable && d.wake != nil {
		if err := d.wake.Enable(ctx); err != nil {
			d.logger.Warn("wake-word monitoring not started", "error", err.Error())
		}
	}
}

// Shutdown stops the active streams and machines.
func (d *Daemon) Shutdown() {
	if d.hotkey.State() != fsm.StateIdle {
		_ = d.hotkey.Cancel()
	}
	if d.wake != nil {
		d.wake.Disable()
	}
	d.stopHotkeyStream()
	d.stopWakeStream()
}

// Handle serves one IPC command.
func (d *Daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return d.statusResponse(true, "status")
	case ipc.CommandToggle:
		if d.hotkey.State() == fsm.StateRecording {
			return d.requestStop(ctx)
		}
		return d.startSession(ctx)
	case ipc.CommandStop:
		return d.requestStop(ctx)
	case ipc.CommandCancel:
		return d.cancelSession()
	case ipc.CommandReload:
		if err := d.store.LoadFile(d.commandPath); err != nil {
			return d.errorResponse(err)
		}
		return d.statusResponse(true, "commands reloaded")
	case ipc.CommandWakeEnable:
		return d.wakeEnable(ctx)
	case ipc.CommandWakeDisable:
		return d.wakeDisable()
	default:
		return ipc.Response{OK: false, State: string(d.hotkey.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// startSession begins a hotkey recording: machine first (state + mic guard),
// then the pulse stream pumping chunks into it.
func (d *Daemon) startSession(ctx context.Context) ipc.Response {
	selection, err := audio.SelectDevice(ctx, d.cfg.Audio.Input, d.cfg.Audio.Fallback)
	if err != nil {
		return d.errorResponse(fmt.Errorf("select audio device: %w", err))
	}
	if selection.Warning != "" {
		d.logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	if err := d.hotkey.Start(); err != nil {
		return d.errorResponse(err)
	}

	rec, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		_ = d.hotkey.Cancel()
		return d.errorResponse(fmt.Errorf("start capture: %w", err))
	}

	s := &stream{capture: rec, done: make(chan struct{})}
	d.mu.Lock()
	d.hotkeyStream = s
	d.mu.Unlock()

	go func() {
		defer close(s.done)
		for chunk := range rec.Chunks() {
			d.hotkey.Feed(chunk)
		}
	}()

	return d.statusResponse(true, "recording started")
}

// requestStop flushes the stream and runs the stop pipeline in the
// background so the IPC response returns immediately.
func (d *Daemon) requestStop(ctx context.Context) ipc.Response {
	if d.hotkey.State() != fsm.StateRecording {
		return d.errorResponse(capture.ErrNotRecording)
	}

	d.stopHotkeyStream()
	go func() {
		if err := d.hotkey.Stop(context.WithoutCancel(ctx)); err != nil {
			d.logger.Warn("session stop failed", "error", err.Error())
			if !errors.Is(err, capture.ErrNoAudioCaptured) && !errors.Is(err, capture.ErrNotRecording) {
				d.notifier.Error(err.Error())
			}
		}
	}()

	return d.statusResponse(true, "stop requested")
}

func (d *Daemon) cancelSession() ipc.Response {
	if err := d.hotkey.Cancel(); err != nil {
		return d.errorResponse(err)
	}
	return d.statusResponse(true, "cancelled")
}

func (d *Daemon) wakeEnable(ctx context.Context) ipc.Response {
	if d.wake == nil {
		return d.errorResponse(errors.New("no wake-word detector available"))
	}
	if err := d.wake.Enable(context.WithoutCancel(ctx)); err != nil {
		return d.errorResponse(err)
	}
	return d.statusResponse(true, "wake-word monitoring enabled")
}

func (d *Daemon) wakeDisable() ipc.Response {
	if d.wake == nil {
		return d.errorResponse(errors.New("no wake-word detector available"))
	}
	d.wake.Disable()
	d.stopWakeStream()
	return d.statusResponse(true, "wake-word monitoring disabled")
}

// startWakeStream opens a pulse stream feeding the wake machine's capture.
func (d *Daemon) startWakeStream(ctx context.Context) {
	selection, err := audio.SelectDevice(ctx, d.cfg.Audio.Input, d.cfg.Audio.Fallback)
	if err != nil {
		d.logger.Warn("wake capture device selection failed", "error", err.Error())
		d.wake.CaptureFailed(err.Error())
		return
	}

	rec, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		d.logger.Warn("wake capture start failed", "error", err.Error())
		d.wake.CaptureFailed(err.Error())
		return
	}

	s := &stream{capture: rec, done: make(chan struct{})}
	d.mu.Lock()
	d.wakeStream = s
	d.mu.Unlock()

	go func() {
		defer close(s.done)
		for chunk := range rec.Chunks() {
			d.wake.Feed(chunk)
		}
	}()
}

func (d *Daemon) stopHotkeyStream() {
	d.mu.Lock()
	s := d.hotkeyStream
	d.hotkeyStream = nil
	d.mu.Unlock()
	if s != nil {
		if err := s.stop(); err != nil {
			d.logger.Warn("capture stop failed", "error", err.Error())
		}
	}
}

func (d *Daemon) stopWakeStream() {
	d.mu.Lock()
	s := d.wakeStream
	d.wakeStream = nil
	d.mu.Unlock()
	if s != nil {
		if err := s.stop(); err != nil {
			d.logger.Warn("wake capture stop failed", "error", err.Error())
		}
	}
}

func (d *Daemon) statusResponse(ok bool, message string) ipc.Response {
	resp := ipc.Response{OK: ok, State: string(d.hotkey.State()), Message: message}
	if d.wake != nil {
		resp.WakeState = string(d.wake.State())
	}
	return resp
}

func (d *Daemon) errorResponse(err error) ipc.Response {
	resp := ipc.Response{OK: false, State: string(d.hotkey.State()), Error: err.Error()}
	if d.wake != nil {
		resp.WakeState = string(d.wake.State())
	}
	return resp
}

// serveMetrics exposes the Prometheus registry until context cancellation.
func (d *Daemon) serveMetrics(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())

	server := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
