package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxcmd/voxcmd/internal/fsm"
)

func TestNewSessionIsOpenAndValid(t *testing.T) {
	s := New("en-US")
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", s.ID.String())
	require.Equal(t, fsm.StateRecording, s.State)
	require.True(t, s.EndedAt.IsZero())
	require.NoError(t, s.Validate())
	require.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}

func TestCloseStampsEndOnce(t *testing.T) {
	s := New("en-US")
	s.Close()
	first := s.EndedAt
	require.False(t, first.IsZero())

	s.Close()
	require.Equal(t, first, s.EndedAt)
	require.Equal(t, first.Sub(s.StartedAt), s.Duration())
}

func TestValidateRejectsEndBeforeStart(t *testing.T) {
	s := New("en-US")
	s.EndedAt = s.StartedAt.Add(-time.Second)
	require.Error(t, s.Validate())
	require.Contains(t, s.Validate().Error(), "precedes start")
}

func TestValidateRejectsConfidenceOutOfRange(t *testing.T) {
	for _, confidence := range []float64{-0.01, 1.01} {
		s := New("en-US")
		s.Confidence = confidence
		require.Error(t, s.Validate())
	}

	s := New("en-US")
	s.Confidence = 1.0
	require.NoError(t, s.Validate())
}

func TestValidateRejectsEmptyLanguage(t *testing.T) {
	s := New("  ")
	require.Error(t, s.Validate())
	require.Contains(t, s.Validate().Error(), "language")
}
