// Package audio handles PCM chunk values, capture buffering, and Pulse streams.
package audio

import (
	"math"
	"time"
)

const (
	// SampleRate is the only sample rate the pipeline operates at.
	SampleRate = 16000
	// Channels is fixed: all capture is mono.
	Channels = 1
)

// Chunk is one immutable slice of captured audio, roughly 100ms of samples.
type Chunk struct {
	samples []int16
}

// NewChunk copies samples into an immutable chunk.
func NewChunk(samples []int16) Chunk {
	out := make([]int16, len(samples))
	copy(out, samples)
	return Chunk{samples: out}
}

// Len returns the sample count.
func (c Chunk) Len() int {
	return len(c.samples)
}

// Samples returns a copy of the chunk's samples.
func (c Chunk) Samples() []int16 {
	out := make([]int16, len(c.samples))
	copy(out, c.samples)
	return out
}

// Duration is sample_count / sample_rate.
func (c Chunk) Duration() time.Duration {
	return time.Duration(len(c.samples)) * time.Second / SampleRate
}

// Peak returns the maximum absolute sample value.
//
// math.MinInt16 has no positive int16 counterpart; it is reported as 32768
// instead of overflowing.
func (c Chunk) Peak() int {
	peak := 0
	for _, s := range c.samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// RMS returns sqrt(mean(sample^2)), or 0 for an empty chunk.
func (c Chunk) RMS() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(c.samples)))
}

// Valid reports whether the chunk carries usable content: non-empty samples
// with a nonzero peak. A pure-silence chunk is still well-formed data, but it
// fails this content-quality check.
func (c Chunk) Valid() bool {
	return len(c.samples) > 0 && c.Peak() > 0
}
