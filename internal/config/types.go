// Package config resolves, parses, validates, and defaults the voxcmd daemon
// configuration.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully materialized runtime configuration for the daemon.
type Config struct {
	ASREndpoint   string              `yaml:"asr_endpoint"`
	Audio         AudioConfig         `yaml:"audio"`
	Session       SessionConfig       `yaml:"session"`
	WakeWord      WakeWordConfig      `yaml:"wakeword"`
	Commands      CommandsConfig      `yaml:"commands"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string `yaml:"input"`
	Fallback string `yaml:"fallback"`
}

// SessionConfig tunes the hotkey capture path.
type SessionConfig struct {
	Language         string   `yaml:"language"`
	SilenceThreshold Duration `yaml:"silence_threshold"`
	MaxDuration      Duration `yaml:"max_duration"`
	SilenceEpsilon   float64  `yaml:"silence_epsilon"`
}

// WakeWordConfig tunes the always-listening path. Its silence and duration
// limits are independent of the hotkey session's.
type WakeWordConfig struct {
	Enable           bool            `yaml:"enable"`
	Keywords         []KeywordConfig `yaml:"keywords"`
	SilenceThreshold Duration        `yaml:"silence_threshold"`
	MaxDuration      Duration        `yaml:"max_duration"`
	SilenceEpsilon   float64         `yaml:"silence_epsilon"`
}

// KeywordConfig is one wake phrase with its detector tuning.
type KeywordConfig struct {
	Phrase           string  `yaml:"phrase"`
	BoostingScore    float64 `yaml:"boosting_score"`
	TriggerThreshold float64 `yaml:"trigger_threshold"`
	Enabled          *bool   `yaml:"enabled"`
}

// IsEnabled defaults to true when the flag is omitted.
func (k KeywordConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// CommandsConfig points at the separately watched voice-command file.
type CommandsConfig struct {
	File string `yaml:"file"`
}

// NotificationsConfig controls desktop notifications.
type NotificationsConfig struct {
	Enable bool `yaml:"enable"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

// Warning is a non-fatal validation message.
type Warning struct {
	Message string
}

// Duration decodes Go duration strings ("1.5s", "750ms") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"1.5s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
