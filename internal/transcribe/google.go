package transcribe

import (
	"context"
	"fmt"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/voxcmd/voxcmd/internal/audio"
	"github.com/voxcmd/voxcmd/internal/session"
)

// Google recognizes utterances with the Cloud Speech-to-Text Recognize API.
type Google struct {
	client *speech.Client
}

// NewGoogle dials the Speech API. opts may carry credentials or an endpoint
// override for self-hosted gateways.
func NewGoogle(ctx context.Context, opts ...option.ClientOption) (*Google, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Google{client: client}, nil
}

// Transcribe sends one LINEAR16 utterance and returns the top alternative
// with word-level segments.
func (g *Google) Transcribe(ctx context.Context, samples []int16, language string) (Result, error) {
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       audio.SampleRate,
			AudioChannelCount:     audio.Channels,
			LanguageCode:          language,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: encodePCM16(samples),
			},
		},
	}

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}

	result := Result{
		AudioDuration: time.Duration(len(samples)) * time.Second / audio.SampleRate,
	}
	for _, r := range resp.GetResults() {
		alternatives := r.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		top := alternatives[0]
		if result.Text != "" {
			result.Text += " "
		}
		result.Text += top.GetTranscript()
		if c := float64(top.GetConfidence()); c > result.Confidence {
			result.Confidence = c
		}
		for _, w := range top.GetWords() {
			result.Words = append(result.Words, session.Segment{
				Text:       w.GetWord(),
				Start:      w.GetStartTime().AsDuration(),
				End:        w.GetEndTime().AsDuration(),
				Confidence: float64(w.GetConfidence()),
			})
		}
	}
	return result, nil
}

// Close releases the underlying gRPC connection.
func (g *Google) Close() error {
	return g.client.Close()
}

// encodePCM16 serializes samples as little-endian signed 16-bit PCM.
func encodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
