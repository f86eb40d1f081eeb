// Package wakeword runs the always-listening capture loop behind an external
// acoustic keyword detector.
package wakeword

import "context"

// Keyword configures one wake phrase handed to the detector.
type Keyword struct {
	Phrase           string
	BoostingScore    float64
	TriggerThreshold float64
	Enabled          bool
}

// Detection is one asynchronous keyword hit reported by the detector.
type Detection struct {
	Phrase string
	Score  float64
}

// Detector is the external wake-word engine. Start returns a channel of
// detections that stays open until Stop or context cancellation; the
// detector consumes microphone audio on its own.
type Detector interface {
	Start(ctx context.Context, keywords []Keyword) (<-chan Detection, error)
	Stop() error
}
