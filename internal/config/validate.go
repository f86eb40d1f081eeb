package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.ASREndpoint) == "" {
		return nil, fmt.Errorf("asr_endpoint must not be empty")
	}
	if strings.TrimSpace(cfg.Session.Language) == "" {
		return nil, fmt.Errorf("session.language must not be empty")
	}
	if cfg.Session.SilenceThreshold <= 0 {
		return nil, fmt.Errorf("session.silence_threshold must be > 0")
	}
	if cfg.Session.MaxDuration <= 0 {
		return nil, fmt.Errorf("session.max_duration must be > 0")
	}
	if cfg.Session.SilenceEpsilon < 0 {
		return nil, fmt.Errorf("session.silence_epsilon must be >= 0")
	}
	if cfg.Session.MaxDuration < cfg.Session.SilenceThreshold {
		warnings = append(warnings, Warning{
			Message: "session.max_duration is shorter than session.silence_threshold; the ceiling will always fire first",
		})
	}

	if cfg.WakeWord.SilenceThreshold <= 0 {
		return nil, fmt.Errorf("wakeword.silence_threshold must be > 0")
	}
	if cfg.WakeWord.MaxDuration <= 0 {
		return nil, fmt.Errorf("wakeword.max_duration must be > 0")
	}
	if cfg.WakeWord.SilenceEpsilon < 0 {
		return nil, fmt.Errorf("wakeword.silence_epsilon must be >= 0")
	}

	enabledKeywords := 0
	for i, k := range cfg.WakeWord.Keywords {
		if strings.TrimSpace(k.Phrase) == "" {
			return nil, fmt.Errorf("wakeword.keywords[%d].phrase must not be empty", i)
		}
		if k.TriggerThreshold < 0 || k.TriggerThreshold > 1 {
			return nil, fmt.Errorf("wakeword.keywords[%d].trigger_threshold must be within [0,1]", i)
		}
		if k.IsEnabled() {
			enabledKeywords++
		}
	}
	if cfg.WakeWord.Enable && enabledKeywords == 0 {
		warnings = append(warnings, Warning{
			Message: "wakeword.enable is true but no keyword is enabled; monitoring will not start",
		})
	}

	if cfg.Metrics.Enable && strings.TrimSpace(cfg.Metrics.Listen) == "" {
		return nil, fmt.Errorf("metrics.listen must not be empty when metrics.enable=true")
	}

	return warnings, nil
}
