package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxcmd/voxcmd/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	require.True(t, checkRuntimeDir().Pass)

	t.Setenv("XDG_RUNTIME_DIR", "")
	check := checkRuntimeDir()
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "XDG_RUNTIME_DIR")
}

func TestCheckCommandFileMissingIsNotFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Commands.File = filepath.Join(t.TempDir(), "absent.yaml")

	check := checkCommandFile(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "voice commands disabled")
}

func TestCheckCommandFileParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	body := `
version: 1
enabled: true
commands:
  - trigger: terraform design
    inject: /speckit.plan
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := config.Default()
	cfg.Commands.File = path

	check := checkCommandFile(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "1 commands configured")
}

func TestCheckCommandFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: [broken"), 0o600))

	cfg := config.Default()
	cfg.Commands.File = path

	check := checkCommandFile(cfg)
	require.False(t, check.Pass)
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestCheckASRReadyUnreachableEndpoint(t *testing.T) {
	check := checkASRReady(context.Background(), "127.0.0.1:1")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "not ready")
}
