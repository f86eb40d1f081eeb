package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllSeries(t *testing.T) {
	m := New()
	m.SessionsStarted.Inc()
	m.SessionsCompleted.Inc()
	m.TranscriptionDuration.Observe(0.25)
	m.WakeErrors.WithLabelValues("transcriptionFailed").Inc()

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body := recorder.Body.String()
	require.Contains(t, body, "voxcmd_sessions_started_total 1")
	require.Contains(t, body, "voxcmd_sessions_completed_total 1")
	require.Contains(t, body, "voxcmd_transcription_duration_seconds_count 1")
	require.Contains(t, body, `voxcmd_wake_errors_total{reason="transcriptionFailed"} 1`)
}

func TestNewInstancesAreIndependent(t *testing.T) {
	first := New()
	second := New()
	first.SessionsStarted.Inc()

	recorder := httptest.NewRecorder()
	second.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, recorder.Body.String(), "voxcmd_sessions_started_total 0")
}
