// Package notify sends non-fatal desktop notifications for session outcomes.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

const appTitle = "voxcmd"

// Notifier emits desktop notifications. Failures are logged, never surfaced:
// a missing notification daemon must not break dictation.
type Notifier struct {
	logger  *slog.Logger
	enabled bool
}

// New constructs a notifier; disabled notifiers drop every message.
func New(logger *slog.Logger, enabled bool) *Notifier {
	return &Notifier{logger: logger, enabled: enabled}
}

// Inserted announces a successfully inserted transcript.
func (n *Notifier) Inserted(text string) {
	n.send(appTitle, truncate(text, 120))
}

// Error announces a failed session.
func (n *Notifier) Error(message string) {
	n.send(appTitle+" error", message)
}

func (n *Notifier) send(title string, body string) {
	if n == nil || !n.enabled {
		return
	}
	if err := beeep.Notify(title, body, ""); err != nil && n.logger != nil {
		n.logger.Warn("desktop notification failed", "error", err.Error())
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
