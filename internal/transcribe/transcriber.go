// Package transcribe defines the speech-to-text contract and its providers.
package transcribe

import (
	"context"
	"time"

	"github.com/voxcmd/voxcmd/internal/session"
)

// Result is one completed recognition of an utterance.
type Result struct {
	Text          string
	Confidence    float64
	AudioDuration time.Duration
	Words         []session.Segment
}

// Transcriber converts a flushed sample sequence into text. Implementations
// may block on network calls; callers pass a cancellable context.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, language string) (Result, error)
}

// Func adapts a function to the Transcriber interface.
type Func func(ctx context.Context, samples []int16, language string) (Result, error)

func (f Func) Transcribe(ctx context.Context, samples []int16, language string) (Result, error) {
	return f(ctx, samples, language)
}
