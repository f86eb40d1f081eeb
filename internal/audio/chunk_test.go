package audio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewChunkCopiesSamples(t *testing.T) {
	source := []int16{1, 2, 3}
	chunk := NewChunk(source)
	source[0] = 99

	require.Equal(t, []int16{1, 2, 3}, chunk.Samples())
}

func TestChunkDuration(t *testing.T) {
	chunk := NewChunk(make([]int16, 1600)) // 100ms at 16kHz
	require.Equal(t, 100*time.Millisecond, chunk.Duration())

	require.Equal(t, time.Duration(0), NewChunk(nil).Duration())
}

func TestChunkPeak(t *testing.T) {
	require.Equal(t, 0, NewChunk(nil).Peak())
	require.Equal(t, 0, NewChunk([]int16{0, 0}).Peak())
	require.Equal(t, 7, NewChunk([]int16{3, -7, 5}).Peak())
}

func TestChunkPeakMinInt16DoesNotOverflow(t *testing.T) {
	chunk := NewChunk([]int16{math.MinInt16, 100})
	require.Equal(t, 32768, chunk.Peak())
}

func TestChunkRMS(t *testing.T) {
	require.Zero(t, NewChunk(nil).RMS())

	chunk := NewChunk([]int16{3, 4, -3, -4})
	require.InDelta(t, math.Sqrt(12.5), chunk.RMS(), 1e-9)
}

func TestChunkValid(t *testing.T) {
	require.False(t, NewChunk(nil).Valid())
	require.False(t, NewChunk([]int16{0, 0, 0}).Valid())
	require.True(t, NewChunk([]int16{0, 1, 0}).Valid())
}
