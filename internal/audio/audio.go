// Package audio implements C1 Audio Codec: Opus<->PCM encode/decode,
// resampling to 16kHz mono s16le, and framing into 20ms windows.
//
// The 20ms window is load-bearing (spec.md §4.1): it matches the play-out
// cadence (internal/pacer) and must not vary.
package audio

import "fmt"

const (
	// SampleRate is the canonical rate the core operates at.
	SampleRate = 16000
	// FrameDurationMs is the fixed frame size; changing it desynchronizes
	// the play-out pacer's wall-clock cadence.
	FrameDurationMs = 20
	// FrameSamples is samples-per-channel in one 20ms window at 16kHz.
	FrameSamples = SampleRate * FrameDurationMs / 1000 // 320
	// FrameBytes is the s16le byte size of one frame (320 samples * 2 bytes).
	FrameBytes = FrameSamples * 2 // 640
)

// Format tags an AudioChunk's encoding, so conversions only ever happen at
// defined boundaries (spec.md §9: "every AudioChunk carries an explicit
// format tag").
type Format string

const (
	FormatOpus          Format = "opus"
	FormatOpusConverted  Format = "opus-converted"
	FormatPCM16          Format = "pcm16"
)

// Chunk is one tagged unit of audio, matching spec.md §3 AudioChunk.
type Chunk struct {
	Data       []byte
	Format     Format
	SampleRate int
	TimestampMs int64
}

// DecodeError / ResampleError are recoverable at the call boundary — the
// frame is dropped and the session continues (spec.md §4.1, §7).
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return fmt.Sprintf("audio: decode failed: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

type ResampleError struct{ Err error }

func (e *ResampleError) Error() string { return fmt.Sprintf("audio: resample failed: %v", e.Err) }
func (e *ResampleError) Unwrap() error { return e.Err }
