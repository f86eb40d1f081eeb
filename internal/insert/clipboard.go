package insert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

const (
	// clipboardSettle gives the clipboard manager time to observe the write
	// before the paste keystroke lands.
	clipboardSettle = 80 * time.Millisecond
	pasteSettle     = 120 * time.Millisecond
)

// Clipboard inserts text by swapping it into the system clipboard, sending a
// paste keystroke, and restoring the previous clipboard contents.
type Clipboard struct {
	logger *slog.Logger
}

// NewClipboard constructs the clipboard/paste inserter.
func NewClipboard(logger *slog.Logger) *Clipboard {
	return &Clipboard{logger: logger}
}

// Insert writes text to the clipboard and dispatches Ctrl+V.
func (c *Clipboard) Insert(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	previous, restoreErr := clipboard.ReadAll()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if err := sleepCtx(ctx, clipboardSettle); err != nil {
		return err
	}

	if err := sendPaste(); err != nil {
		return fmt.Errorf("dispatch paste: %w", err)
	}
	if err := sleepCtx(ctx, pasteSettle); err != nil {
		return err
	}

	if restoreErr == nil {
		if err := clipboard.WriteAll(previous); err != nil && c.logger != nil {
			c.logger.Warn("restore clipboard failed", "error", err.Error())
		}
	}
	return nil
}

// sendPaste emits a Ctrl+V key chord.
func sendPaste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}

// sleepCtx waits d or returns the context error, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
