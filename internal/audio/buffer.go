package audio

import (
	"sync"
	"time"
)

// CaptureBuffer accumulates chunks produced by the audio callback while the
// controlling session reads aggregate properties. One active session owns
// the buffer at a time.
//
// Append holds the mutex only long enough to push one chunk, so the producer
// is never blocked for unbounded time. No chunk is ever dropped; everything
// appended stays until Clear.
type CaptureBuffer struct {
	mu       sync.Mutex
	chunks   []Chunk
	complete bool
	maxHint  int
}

// NewCaptureBuffer creates an empty buffer. maxChunks is a capacity hint for
// the backing slice, not a limit.
func NewCaptureBuffer(maxChunks int) *CaptureBuffer {
	if maxChunks < 0 {
		maxChunks = 0
	}
	return &CaptureBuffer{
		chunks:  make([]Chunk, 0, maxChunks),
		maxHint: maxChunks,
	}
}

// Append adds a chunk to the tail of the sequence. Callers must not append
// after MarkComplete.
func (b *CaptureBuffer) Append(chunk Chunk) {
	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	b.mu.Unlock()
}

// Clear empties the sequence and resets completion, for cancelled or
// restarted sessions.
func (b *CaptureBuffer) Clear() {
	b.mu.Lock()
	b.chunks = make([]Chunk, 0, b.maxHint)
	b.complete = false
	b.mu.Unlock()
}

// MarkComplete signals that no further data is expected.
func (b *CaptureBuffer) MarkComplete() {
	b.mu.Lock()
	b.complete = true
	b.mu.Unlock()
}

// Complete reports whether MarkComplete has been called since the last Clear.
func (b *CaptureBuffer) Complete() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.complete
}

// Len returns the number of buffered chunks.
func (b *CaptureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// TotalDuration is the sum of all buffered chunk durations.
func (b *CaptureBuffer) TotalDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	var total time.Duration
	for _, c := range b.chunks {
		total += c.Duration()
	}
	return total
}

// CurrentLevel is the RMS of the most recently appended chunk, or 0 when empty.
func (b *CaptureBuffer) CurrentLevel() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.chunks) == 0 {
		return 0
	}
	return b.chunks[len(b.chunks)-1].RMS()
}

// PeakLevel is the maximum peak amplitude across all buffered chunks.
func (b *CaptureBuffer) PeakLevel() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	peak := 0
	for _, c := range b.chunks {
		if p := c.Peak(); p > peak {
			peak = p
		}
	}
	return peak
}

// Samples returns the flattened sample sequence across all buffered chunks.
func (b *CaptureBuffer) Samples() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, c := range b.chunks {
		total += len(c.samples)
	}
	out := make([]int16, 0, total)
	for _, c := range b.chunks {
		out = append(out, c.samples...)
	}
	return out
}
