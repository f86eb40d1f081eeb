package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWakeTransitionOneUtteranceLoop(t *testing.T) {
	s := WakeIdle

	next, err := WakeTransition(s, WakeEventEnable)
	require.NoError(t, err)
	require.Equal(t, WakeMonitoring, next)

	next, err = WakeTransition(next, WakeEventDetect)
	require.NoError(t, err)
	require.Equal(t, WakeTriggered, next)

	next, err = WakeTransition(next, WakeEventCapture)
	require.NoError(t, err)
	require.Equal(t, WakeCapturing, next)

	next, err = WakeTransition(next, WakeEventStop)
	require.NoError(t, err)
	require.Equal(t, WakeTranscribing, next)

	next, err = WakeTransition(next, WakeEventTranscribed)
	require.NoError(t, err)
	require.Equal(t, WakeInserting, next)

	// A finished utterance returns to monitoring, not idle.
	next, err = WakeTransition(next, WakeEventInserted)
	require.NoError(t, err)
	require.Equal(t, WakeMonitoring, next)
}

func TestWakeTransitionFailFromAnyState(t *testing.T) {
	states := []WakeState{WakeIdle, WakeMonitoring, WakeTriggered, WakeCapturing, WakeTranscribing, WakeInserting, WakeError}
	for _, state := range states {
		next, err := WakeTransition(state, WakeEventFail)
		require.NoError(t, err)
		require.Equal(t, WakeError, next)
	}
}

func TestWakeTransitionDisableFromAnyState(t *testing.T) {
	states := []WakeState{WakeMonitoring, WakeTriggered, WakeCapturing, WakeTranscribing, WakeInserting, WakeError}
	for _, state := range states {
		next, err := WakeTransition(state, WakeEventDisable)
		require.NoError(t, err)
		require.Equal(t, WakeIdle, next)
	}
}

func TestWakeTransitionErrorRequiresExplicitReset(t *testing.T) {
	for _, event := range []WakeEvent{WakeEventEnable, WakeEventDetect, WakeEventStop, WakeEventInserted} {
		next, err := WakeTransition(WakeError, event)
		require.Error(t, err)
		require.Equal(t, WakeError, next)
	}

	next, err := WakeTransition(WakeError, WakeEventReset)
	require.NoError(t, err)
	require.Equal(t, WakeIdle, next)
}

func TestWakeTransitionMonitoringRejectsEnable(t *testing.T) {
	next, err := WakeTransition(WakeMonitoring, WakeEventEnable)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid transition")
	require.Equal(t, WakeMonitoring, next)
}
