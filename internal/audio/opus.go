package audio

import (
	"fmt"

	"layeh.com/gopus"
)

// Codec is a persistent per-session Opus encoder/decoder pair. Opus codec
// state must survive across calls within a session (spec.md §4.1: "feed
// all frames in order"), so one Codec is owned exclusively by one Session.
//
// Grounded on MrWong99-glyphoxa/pkg/audio/discord/opus.go, generalized from
// 48kHz/stereo Discord voice down to this server's 16kHz mono contract.
type Codec struct {
	dec *gopus.Decoder
	enc *gopus.Encoder
}

// NewCodec builds a Codec for 16kHz mono Opus; the encoder uses the
// general "audio" application profile (gopus.Audio).
func NewCodec() (*Codec, error) {
	dec, err := gopus.NewDecoder(SampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus decoder: %w", err)
	}
	enc, err := gopus.NewEncoder(SampleRate, 1, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus encoder: %w", err)
	}
	return &Codec{dec: dec, enc: enc}, nil
}

// DecodeFrame decodes one Opus packet into s16le PCM bytes for exactly one
// 20ms/320-sample window.
func (c *Codec) DecodeFrame(opusPacket []byte) ([]byte, error) {
	pcm, err := c.dec.Decode(opusPacket, FrameSamples, false)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return int16sToBytes(pcm), nil
}

// EncodeFrame Opus-encodes exactly one 20ms/320-sample s16le PCM window.
// The caller (Framer) is responsible for zero-padding the trailing window.
func (c *Codec) EncodeFrame(pcm []byte) ([]byte, error) {
	if len(pcm) != FrameBytes {
		return nil, fmt.Errorf("audio: encode frame must be exactly %d bytes, got %d", FrameBytes, len(pcm))
	}
	samples := bytesToInt16s(pcm)
	packet, err := c.enc.Encode(samples, FrameSamples, FrameBytes)
	if err != nil {
		return nil, fmt.Errorf("audio: opus encode: %w", err)
	}
	return packet, nil
}

func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return pcm
}
