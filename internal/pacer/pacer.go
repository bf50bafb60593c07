// Package pacer implements C7: sending Opus frames to the transport at
// wall-clock cadence, with a pre-buffer and barge-in support. Grounded on
// the original sendAudioHandle.py's sendAudioMessage/sendAudio, generalized
// off its single-connection loop into a per-session queue consumer so TTS
// segments can be produced concurrently with play-out.
package pacer

import (
	"context"
	"time"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/control"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/tts"
)

// PreBufferFrames is the number of frames sent back-to-back before pacing
// begins, to prime the client's jitter buffer (spec.md §4.7 step 2).
const PreBufferFrames = 5

// MaxSleep caps any single computed pacing delay, so a stall never blocks
// barge-in responsiveness for long (spec.md §4.7 step 3).
const MaxSleep = 100 * time.Millisecond

// QueueDepth is the pacer's segment queue capacity (spec.md §5: "a small
// queue of segments (<= 8)").
const QueueDepth = 8

// Sender is the transport-facing half of the pacer: control messages and
// audio frames. Implemented by transport.Transport.
type Sender interface {
	SendControl(ctx context.Context, msg control.Message) error
	SendAudio(ctx context.Context, opusFrame []byte) error
}

// Pacer is C7. It owns a bounded queue of tts.Segment; TTS produces into it
// via Enqueue, and a single consumer goroutine drains it in segment_index
// order, honouring barge-in via the abort channel.
type Pacer struct {
	sessionID string
	sender    Sender
	logger    logging.Logger

	queue chan tts.Segment
	abort chan struct{}
	done  chan struct{}

	onIdle func()

	// stopNotifyFrames, when set via SetStopNotifyFrames, are played ahead
	// of "tts stop" on a reply's natural completion (spec.md §6:
	// enable_stop_tts_notify/stop_tts_notify_voice). Not played on
	// barge-in — the original only ever reaches send_tts_message("stop")
	// from a finished reply, never from an interrupted one.
	stopNotifyFrames [][]byte
}

// New builds a Pacer bound to one session's transport. onIdle is invoked
// (non-blocking) whenever the pacer returns the session to Idle — after a
// final segment completes or on barge-in.
func New(sessionID string, sender Sender, logger logging.Logger, onIdle func()) *Pacer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Pacer{
		sessionID: sessionID,
		sender:    sender,
		logger:    logger,
		queue:     make(chan tts.Segment, QueueDepth),
		abort:     make(chan struct{}, 1),
		done:      make(chan struct{}),
		onIdle:    onIdle,
	}
}

// Enqueue implements tts.PacerSink: hand a finished segment to the pacer's
// queue, blocking if the queue is full (backpressure onto the TTS task).
func (p *Pacer) Enqueue(ctx context.Context, seg tts.Segment) error {
	select {
	case p.queue <- seg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetStopNotifyFrames configures the notification tone played ahead of
// every natural (non-barge-in) "tts stop", per spec.md §6's
// enable_stop_tts_notify config key. Passing nil disables it, the default.
func (p *Pacer) SetStopNotifyFrames(frames [][]byte) {
	p.stopNotifyFrames = frames
}

// Abort signals a barge-in: the running and queued segments are discarded
// at the next frame boundary (spec.md §4.7 step 4).
func (p *Pacer) Abort() {
	select {
	case p.abort <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled, pacing frames at 20ms
// cadence per spec.md §4.7. It is meant to run for the lifetime of the
// session in its own goroutine.
func (p *Pacer) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case seg := <-p.queue:
			if p.playSegment(ctx, seg) {
				// Barge-in fired mid-segment: drain any already-queued
				// segments without playing them, emit stop, go idle.
				p.drainQueue()
				p.sender.SendControl(ctx, control.TTSMsg(p.sessionID, control.TTSStop, ""))
				if p.onIdle != nil {
					p.onIdle()
				}
				continue
			}
			if seg.Final {
				p.playStopNotify(ctx)
				p.sender.SendControl(ctx, control.TTSMsg(p.sessionID, control.TTSStop, ""))
				if p.onIdle != nil {
					p.onIdle()
				}
			}
		}
	}
}

// playStopNotify sends the configured notification tone frame-by-frame at
// the usual 20ms cadence, ahead of the "tts stop" control message. It is a
// no-op when no notify frames are configured.
func (p *Pacer) playStopNotify(ctx context.Context) {
	if len(p.stopNotifyFrames) == 0 {
		return
	}
	start := time.Now()
	for i, frame := range p.stopNotifyFrames {
		select {
		case <-ctx.Done():
			return
		default:
		}
		expected := start.Add(time.Duration(i*audio.FrameDurationMs) * time.Millisecond)
		if delay := time.Until(expected); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
		if err := p.sender.SendAudio(ctx, frame); err != nil {
			p.logger.Warn("pacer send failed during stop notify", "error", err)
			return
		}
	}
}

func (p *Pacer) drainQueue() {
	for {
		select {
		case <-p.queue:
		default:
			return
		}
	}
}

// playSegment sends one segment's frames at real-time cadence. It returns
// true if a barge-in aborted play-out partway through.
func (p *Pacer) playSegment(ctx context.Context, seg tts.Segment) bool {
	// Drain any stale abort signal from a prior segment before starting.
	select {
	case <-p.abort:
	default:
	}

	p.sender.SendControl(ctx, control.TTSMsg(p.sessionID, control.TTSSentenceStart, seg.Text))

	start := time.Now()
	playPositionMs := 0

	preBuffer := PreBufferFrames
	if preBuffer > len(seg.Frames) {
		preBuffer = len(seg.Frames)
	}
	for i := 0; i < preBuffer; i++ {
		if err := p.sender.SendAudio(ctx, seg.Frames[i]); err != nil {
			p.logger.Warn("pacer send failed during pre-buffer", "error", err)
			return false
		}
		playPositionMs += audio.FrameDurationMs
	}

	for i := preBuffer; i < len(seg.Frames); i++ {
		select {
		case <-p.abort:
			p.logger.Debug("pacer aborted mid-segment", "session_id", p.sessionID, "frame", i)
			return true
		case <-ctx.Done():
			return true
		default:
		}

		expected := start.Add(time.Duration(playPositionMs) * time.Millisecond)
		delay := time.Until(expected)
		if delay > MaxSleep {
			delay = MaxSleep
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-p.abort:
				return true
			case <-ctx.Done():
				return true
			}
		}

		if err := p.sender.SendAudio(ctx, seg.Frames[i]); err != nil {
			p.logger.Warn("pacer send failed", "error", err)
			return false
		}
		playPositionMs += audio.FrameDurationMs
	}

	p.sender.SendControl(ctx, control.TTSMsg(p.sessionID, control.TTSSentenceEnd, seg.Text))
	return false
}
