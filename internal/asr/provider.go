// Package asr implements C4: dispatching a finished utterance to a
// transcription provider.
package asr

import "context"

// Provider is the narrow interface the ASR Dispatcher calls against
// (spec.md §1: "the core only calls recognize(chunks, session) -> text").
// audio is already-serialised WAV or raw PCM, prepared by the Dispatcher.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Name() string
}
