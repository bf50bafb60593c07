package tts

import (
	"context"
	"sync/atomic"

	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
)

// MaxRetries is the TTS retry budget per segment (spec.md §4.6: "up to 5
// attempts per segment with no backoff gap").
const MaxRetries = 5

// Segment is one synthesised reply sentence handed to the Play-out Pacer,
// matching spec.md §4.6's "(segment_index, text, opus_frames)" tuple.
type Segment struct {
	Index  int
	Text   string
	Frames [][]byte
	// Final marks the segment whose index equals tts_last_index once the
	// LLM has signalled completion — the Pacer schedules "tts stop" after
	// its last frame.
	Final bool
}

// PacerSink is the Play-out Pacer's acceptance point for finished segments.
type PacerSink interface {
	Enqueue(ctx context.Context, seg Segment) error
}

// Streamer is C6: it allocates a monotonic segment_index per reply, calls
// the TTS provider with a retry budget, and hands finished segments to the
// Pacer. One Streamer instance is reused across the session's lifetime;
// StartReply resets its per-reply bookkeeping.
type Streamer struct {
	provider Provider
	pacer    PacerSink
	logger   logging.Logger

	nextIndex       int32
	firstIndex      int32
	lastIndex       int32
	apologySentThis bool
}

// NewStreamer builds a Streamer.
func NewStreamer(provider Provider, pacer PacerSink, logger logging.Logger) *Streamer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Streamer{provider: provider, pacer: pacer, logger: logger}
}

// StartReply resets segment-index bookkeeping for a new reply
// (tts_first_index/tts_last_index both reset to 0, per spec.md §3).
func (s *Streamer) StartReply() {
	atomic.StoreInt32(&s.nextIndex, 0)
	atomic.StoreInt32(&s.firstIndex, 0)
	atomic.StoreInt32(&s.lastIndex, 0)
	s.apologySentThis = false
}

// FirstIndex / LastIndex report tts_first_index / tts_last_index.
func (s *Streamer) FirstIndex() int { return int(atomic.LoadInt32(&s.firstIndex)) }
func (s *Streamer) LastIndex() int  { return int(atomic.LoadInt32(&s.lastIndex)) }

// Segment implements dialogue.SegmentSink: synthesise one reply segment and
// hand it to the pacer, retrying up to MaxRetries times with no backoff on
// provider failure. On exhaustion the segment is dropped and a single
// apology segment is emitted in its place, once per reply (with no frames
// if the apology itself cannot be synthesised). voiceID is
// forwarded to the provider as-is, so an empty voiceID still means "the
// provider's default voice" rather than a role switch no-op.
func (s *Streamer) Segment(ctx context.Context, text string, voiceID string, final bool) error {
	index := int(atomic.AddInt32(&s.nextIndex, 1)) - 1
	if index == 0 {
		atomic.StoreInt32(&s.firstIndex, int32(index))
	}
	atomic.StoreInt32(&s.lastIndex, int32(index))

	frames, err := s.synthesizeWithRetry(ctx, text, voiceID)
	if err != nil {
		s.logger.Error("tts segment exhausted retries, dropping", "provider", s.provider.Name(), "index", index, "error", err)
		if s.apologySentThis {
			return nil
		}
		s.apologySentThis = true
		apologyFrames, apologyErr := s.synthesizeWithRetry(ctx, "Sorry, I couldn't say that.", voiceID)
		if apologyErr != nil {
			s.logger.Error("tts apology synthesis failed, sending apology text without audio", "provider", s.provider.Name(), "index", index, "error", apologyErr)
		}
		return s.pacer.Enqueue(ctx, Segment{Index: index, Text: "Sorry, I couldn't say that.", Frames: apologyFrames, Final: final})
	}

	return s.pacer.Enqueue(ctx, Segment{Index: index, Text: text, Frames: frames, Final: final})
}

func (s *Streamer) synthesizeWithRetry(ctx context.Context, text, voiceID string) ([][]byte, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		var frames [][]byte
		err := s.provider.StreamSynthesize(ctx, text, voiceID, func(frame []byte) error {
			frames = append(frames, frame)
			return nil
		})
		if err == nil {
			return frames, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
