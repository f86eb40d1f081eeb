// Package command rewrites transcripts whose leading words speak a configured
// voice-command trigger while a terminal application holds focus.
package command

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TriggerConfig is one configured voice command as written in the file.
type TriggerConfig struct {
	Trigger   string   `yaml:"trigger"`
	Inject    string   `yaml:"inject"`
	Threshold *float64 `yaml:"threshold,omitempty"`
	Enabled   *bool    `yaml:"enabled,omitempty"`
}

// IsEnabled defaults to true when the flag is omitted.
func (t TriggerConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// EffectiveThreshold is the per-trigger override when set, else the default.
func (t TriggerConfig) EffectiveThreshold(defaultThreshold float64) float64 {
	if t.Threshold != nil {
		return *t.Threshold
	}
	return defaultThreshold
}

// Config is the voice-command file contents.
type Config struct {
	Version          int             `yaml:"version"`
	Enabled          bool            `yaml:"enabled"`
	DefaultThreshold float64         `yaml:"default_threshold"`
	MatchFirstNWords int             `yaml:"match_first_n_words"`
	TerminalApps     []string        `yaml:"terminal_apps"`
	Commands         []TriggerConfig `yaml:"commands"`
}

// Default is the empty, disabled configuration used before a first
// successful load.
func Default() Config {
	return Config{
		Version:          1,
		Enabled:          false,
		DefaultThreshold: 0.8,
		MatchFirstNWords: 5,
	}
}

// Parse decodes and validates the voice-command file. Unknown fields are
// rejected so typos surface as load errors rather than silently dead keys.
func Parse(data []byte) (Config, error) {
	cfg := Config{
		DefaultThreshold: 0.8,
		MatchFirstNWords: 5,
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse command config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate enforces load-time invariants; bad triggers fail the whole load so
// the previous snapshot stays in effect.
func validate(cfg Config) error {
	if cfg.DefaultThreshold < 0 || cfg.DefaultThreshold > 1 {
		return fmt.Errorf("default_threshold %f outside [0,1]", cfg.DefaultThreshold)
	}
	if cfg.MatchFirstNWords < 1 {
		return fmt.Errorf("match_first_n_words must be >= 1, got %d", cfg.MatchFirstNWords)
	}
	for i, trigger := range cfg.Commands {
		if strings.TrimSpace(trigger.Trigger) == "" {
			return fmt.Errorf("commands[%d]: trigger phrase must not be empty", i)
		}
		if strings.TrimSpace(trigger.Inject) == "" {
			return fmt.Errorf("commands[%d] (%q): inject must not be empty", i, trigger.Trigger)
		}
		if trigger.Threshold != nil && (*trigger.Threshold < 0 || *trigger.Threshold > 1) {
			return fmt.Errorf("commands[%d] (%q): threshold %f outside [0,1]", i, trigger.Trigger, *trigger.Threshold)
		}
	}
	return nil
}
