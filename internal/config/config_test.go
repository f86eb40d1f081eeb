package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
asr_endpoint: localhost:50051
audio:
  input: pipewire
session:
  language: en-GB
  silence_threshold: 750ms
  max_duration: 45s
  silence_epsilon: 300
wakeword:
  enable: true
  silence_threshold: 1s
  max_duration: 20s
  keywords:
    - phrase: hey vox
      boosting_score: 2.0
      trigger_threshold: 0.75
    - phrase: computer
      trigger_threshold: 0.9
      enabled: false
commands:
  file: /etc/voxcmd/commands.yaml
notifications:
  enable: false
metrics:
  enable: true
  listen: 127.0.0.1:9105
`

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "localhost:50051", cfg.ASREndpoint)
	require.Equal(t, "pipewire", cfg.Audio.Input)
	require.Equal(t, "default", cfg.Audio.Fallback) // untouched default
	require.Equal(t, "en-GB", cfg.Session.Language)
	require.Equal(t, 750*time.Millisecond, cfg.Session.SilenceThreshold.Std())
	require.Equal(t, 45*time.Second, cfg.Session.MaxDuration.Std())
	require.Equal(t, 300.0, cfg.Session.SilenceEpsilon)
	require.True(t, cfg.WakeWord.Enable)
	require.Equal(t, time.Second, cfg.WakeWord.SilenceThreshold.Std())
	require.Len(t, cfg.WakeWord.Keywords, 2)
	require.True(t, cfg.WakeWord.Keywords[0].IsEnabled())
	require.False(t, cfg.WakeWord.Keywords[1].IsEnabled())
	require.Equal(t, "/etc/voxcmd/commands.yaml", cfg.Commands.File)
	require.False(t, cfg.Notifications.Enable)
	require.True(t, cfg.Metrics.Enable)
	require.Equal(t, "127.0.0.1:9105", cfg.Metrics.Listen)
}

func TestParseEmptyFileYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("asr_endpont: localhost:50051\n"))
	require.Error(t, err)
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("session:\n  silence_threshold: fast\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid duration")
}

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty asr endpoint", func(c *Config) { c.ASREndpoint = " " }},
		{"empty language", func(c *Config) { c.Session.Language = "" }},
		{"zero silence threshold", func(c *Config) { c.Session.SilenceThreshold = 0 }},
		{"zero max duration", func(c *Config) { c.Session.MaxDuration = 0 }},
		{"negative epsilon", func(c *Config) { c.Session.SilenceEpsilon = -1 }},
		{"zero wake silence threshold", func(c *Config) { c.WakeWord.SilenceThreshold = 0 }},
		{"empty keyword phrase", func(c *Config) {
			c.WakeWord.Keywords = []KeywordConfig{{Phrase: "  ", TriggerThreshold: 0.5}}
		}},
		{"keyword threshold out of range", func(c *Config) {
			c.WakeWord.Keywords = []KeywordConfig{{Phrase: "hey vox", TriggerThreshold: 1.2}}
		}},
		{"metrics enabled without listen", func(c *Config) {
			c.Metrics.Enable = true
			c.Metrics.Listen = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
		})
	}
}

func TestValidateWarnsOnWakeEnableWithoutKeywords(t *testing.T) {
	cfg := Default()
	cfg.WakeWord.Enable = true

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "no keyword is enabled")
}

func TestValidateWarnsOnInvertedDurations(t *testing.T) {
	cfg := Default()
	cfg.Session.SilenceThreshold = Duration(2 * time.Minute)

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "en-GB", loaded.Config.Session.Language)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  language: \"\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "session.language")
}

func TestResolvePathPrecedence(t *testing.T) {
	explicit, err := ResolvePath("/tmp/custom.yaml")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.yaml", explicit)

	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	fromXDG, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/xdg/voxcmd/config.yaml", fromXDG)

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/tester")
	fromHome, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/home/tester/.config/voxcmd/config.yaml", fromHome)

	commands, err := ResolveCommandPath("")
	require.NoError(t, err)
	require.Equal(t, "/home/tester/.config/voxcmd/commands.yaml", commands)
}
