// Package tts implements C6: converting reply text segments into Opus
// frames and handing them to the Play-out Pacer.
package tts

import "context"

// Provider is the narrow interface the TTS Streamer calls against
// (spec.md §1: "the core only calls synthesize(text) -> opus_frames"). It
// streams Opus frames as they're produced rather than buffering a whole
// segment, so the pacer can begin before synthesis finishes.
type Provider interface {
	StreamSynthesize(ctx context.Context, text string, voiceID string, onFrame func(opusFrame []byte) error) error
	Name() string
}
