package config

import "time"

// Default returns the canonical runtime configuration used when no file is
// present.
func Default() Config {
	return Config{
		ASREndpoint: "speech.googleapis.com:443",
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Session: SessionConfig{
			Language:         "en-US",
			SilenceThreshold: Duration(1500 * time.Millisecond),
			MaxDuration:      Duration(60 * time.Second),
			SilenceEpsilon:   250,
		},
		WakeWord: WakeWordConfig{
			Enable:           false,
			SilenceThreshold: Duration(2 * time.Second),
			MaxDuration:      Duration(30 * time.Second),
			SilenceEpsilon:   250,
		},
		Commands:      CommandsConfig{},
		Notifications: NotificationsConfig{Enable: true},
		Metrics: MetricsConfig{
			Enable: false,
			Listen: "127.0.0.1:9090",
		},
	}
}
