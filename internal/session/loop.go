package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voicebridge-ai/voicebridge-server/internal/asr"
	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/control"
	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
	"github.com/voicebridge-ai/voicebridge-server/internal/pacer"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
	"github.com/voicebridge-ai/voicebridge-server/internal/tts"
	"github.com/voicebridge-ai/voicebridge-server/internal/vad"
)

// WakewordPolicy carries the config-driven wakeword list and greeting
// toggle the `listen{state:detect}` path needs (spec.md §6:
// wakeup_words[], enable_greeting).
type WakewordPolicy struct {
	Words          map[string]bool
	EnableGreeting bool
}

// Loop is the per-session inbound dispatcher (spec.md §5): it reads the
// transport and fans out to VAD, the utterance buffer, and control
// handling, driving the rest of the pipeline (ASR -> Dialogue -> TTS ->
// Pacer) on speech-end or explicit stop. One Loop runs for the lifetime of
// a session, in its own goroutine; the Pacer runs concurrently in a
// sibling goroutine consuming the same Session's Streamer output.
type Loop struct {
	sess      *Session
	dispatch  *asr.Dispatcher
	streamer  *tts.Streamer
	pacer     *pacer.Pacer
	wakeword  WakewordPolicy
	functions []dialogue.FunctionSchema

	// pipelineMu guards pipelineCancel: the ASR-dispatch/dialogue/TTS chain
	// for one utterance runs on its own goroutine (grounded on the
	// teacher's runBatchPipeline goroutine in managed_stream.go), so Run's
	// transport.Recv loop keeps draining control messages while a
	// multi-segment reply is still being generated and played. Starting a
	// new utterance cancels any pipeline still running for the previous
	// one, mirroring the teacher's internalInterrupt.
	pipelineMu     sync.Mutex
	pipelineGen    int64
	pipelineCancel context.CancelFunc
	pipelineWG     sync.WaitGroup
}

// NewLoop wires a Session's components into a runnable Loop.
func NewLoop(sess *Session, dispatch *asr.Dispatcher, streamer *tts.Streamer, p *pacer.Pacer, wakeword WakewordPolicy, functions []dialogue.FunctionSchema) *Loop {
	return &Loop{sess: sess, dispatch: dispatch, streamer: streamer, pacer: p, wakeword: wakeword, functions: functions}
}

// Run drains the transport until it closes or the session's context is
// cancelled. It never returns a non-nil error for provider or protocol
// failures (spec.md §7: those are logged and recovered); it returns once
// the transport is genuinely gone.
func (l *Loop) Run(ctx context.Context) error {
	for {
		in, err := l.sess.Transport.Recv(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrTransportClosed) || errors.Is(err, context.Canceled) {
				l.sess.Machine.ForceIdle()
				return nil
			}
			l.sess.Logger.Warn("transport recv error", "session_id", l.sess.SessionID, "error", err)
			continue
		}

		switch in.Kind {
		case transport.InboundControl:
			if err := l.handleControl(ctx, in.Control); err != nil {
				return err
			}
		case transport.InboundAudio:
			l.handleAudio(ctx, in.Audio)
		}
	}
}

func (l *Loop) handleControl(ctx context.Context, msg control.Message) error {
	switch msg.Type {
	case control.Hello:
		return l.sess.Transport.SendControl(ctx, control.WelcomeMsg(l.sess.ID))

	case control.Abort:
		l.sess.SetClientAbort(true)
		l.pacer.Abort()
		l.cancelPipeline()
		return nil

	case control.Listen:
		if msg.Mode != "" {
			l.sess.SetMode(modeFromControl(msg.Mode))
		}
		switch msg.State {
		case control.ListenStart:
			if l.sess.Mode() == Manual {
				l.sess.Machine.To(Listening)
			}
		case control.ListenStop:
			if l.sess.Mode() == Manual {
				l.finishUtterance(ctx)
			}
		case control.ListenDetect:
			l.handleWakewordDetect(ctx, msg.Text)
		}
		return nil

	case control.IOT:
		// Plugin-handled; out of scope beyond acknowledging receipt.
		l.sess.Logger.Debug("iot message received", "session_id", l.sess.SessionID)
		return nil
	}
	return nil
}

func modeFromControl(m control.ListenMode) ListenMode {
	switch m {
	case control.ModeManual:
		return Manual
	case control.ModeWakeword:
		return WakewordDetect
	default:
		return Auto
	}
}

func (l *Loop) handleWakewordDetect(ctx context.Context, text string) {
	l.sess.Buffer.TakeAndClear()
	isWakeword := l.wakeword.Words[text]
	if isWakeword && !l.wakeword.EnableGreeting {
		l.sess.Transport.SendControl(ctx, control.STTMsg(l.sess.SessionID, text))
		l.sess.Transport.SendControl(ctx, control.TTSMsg(l.sess.SessionID, control.TTSStop, ""))
		return
	}
	l.spawnPipeline(ctx, func(pctx context.Context) {
		l.runTranscript(pctx, text)
	})
}

func (l *Loop) handleAudio(ctx context.Context, payload []byte) {
	if l.sess.Mode() == WakewordDetect {
		return // audio ignored until a wakeword control message arrives
	}
	chunk := audio.Chunk{Data: payload, Format: audio.FormatOpus, SampleRate: audio.SampleRate, TimestampMs: time.Now().UnixMilli()}
	l.sess.Buffer.Append(chunk)
	if !l.sess.AsrServerReceive() {
		return // back-pressure: audio stays buffered, but VAD is not evaluated
	}

	pcm, err := audio.DecodeToPCM(l.sess.Codec, chunk)
	if err != nil {
		l.sess.Logger.Warn("dropping undecodable audio frame", "session_id", l.sess.SessionID, "error", err)
		return
	}

	if l.sess.Mode() != Auto {
		// Manual mode ignores VAD-derived speech_end (spec.md §4.2); still
		// track last-speech timestamp loosely via the buffer's own timer.
		if l.sess.Buffer.ExceedsForceDispatchWindow() {
			l.finishUtterance(ctx)
		}
		return
	}

	events, err := l.sess.Gate.Push(pcm, time.Now().UnixMilli())
	if err != nil {
		l.sess.Logger.Warn("vad error", "session_id", l.sess.SessionID, "error", err)
		return
	}
	for _, ev := range events {
		switch ev.Type {
		case vad.SpeechStart:
			l.sess.Machine.To(Listening)
		case vad.SpeechEnd:
			l.finishUtterance(ctx)
		}
	}
	if l.sess.Buffer.ExceedsForceDispatchWindow() {
		l.sess.Logger.Warn("force-dispatching utterance after 60s cap", "session_id", l.sess.SessionID)
		l.finishUtterance(ctx)
	}
}

// finishUtterance implements the speech_end / listen-stop path: take the
// buffer and hand the ASR dispatch + dialogue/TTS pipeline to its own
// goroutine via spawnPipeline, so Run's transport.Recv loop keeps draining
// inbound control messages (notably "abort") while the reply is generated.
func (l *Loop) finishUtterance(ctx context.Context) {
	l.sess.Gate.Reset()
	chunks := l.sess.Buffer.TakeAndClear()
	if len(chunks) == 0 {
		l.sess.Machine.To(Idle)
		return
	}

	l.sess.Machine.To(Thinking)

	l.spawnPipeline(ctx, func(pctx context.Context) {
		res, err := l.dispatch.Dispatch(pctx, l.sess.Codec, chunks)
		if err != nil {
			// At-most-one-in-flight violation: the previous pipeline hadn't
			// noticed its cancellation yet. Drop this one silently.
			l.sess.Logger.Warn("asr dispatch rejected", "session_id", l.sess.SessionID, "error", err)
			l.sess.Machine.To(Idle)
			return
		}
		if res.Text == "" {
			l.sess.Machine.To(Idle)
			return
		}

		l.runTranscript(pctx, res.Text)
	})
}

// spawnPipeline interrupts any ASR-dispatch/dialogue/TTS chain still
// running for a previous utterance and starts work on a new goroutine with
// its own cancellable context derived from ctx (grounded on the teacher's
// runBatchPipeline/pipelineCancel pair in managed_stream.go). Run's
// transport.Recv loop never waits on this goroutine.
func (l *Loop) spawnPipeline(ctx context.Context, work func(context.Context)) {
	l.pipelineMu.Lock()
	if l.pipelineCancel != nil {
		l.pipelineCancel()
	}
	l.pipelineGen++
	gen := l.pipelineGen
	pctx, cancel := context.WithCancel(ctx)
	l.pipelineCancel = cancel
	l.pipelineWG.Add(1)
	l.pipelineMu.Unlock()

	go func() {
		defer l.pipelineWG.Done()
		defer cancel()
		work(pctx)
		l.pipelineMu.Lock()
		if l.pipelineGen == gen {
			l.pipelineCancel = nil
		}
		l.pipelineMu.Unlock()
	}()
}

// Wait blocks until any in-flight ASR-dispatch/dialogue/TTS pipeline
// goroutine has returned. Called after Run exits so a session teardown
// doesn't race a reply still being synthesised against a closing transport.
func (l *Loop) Wait() {
	l.pipelineWG.Wait()
}

// cancelPipeline interrupts the pipeline goroutine currently running for
// this session, if any (spec.md §5's barge-in: an explicit "abort" must be
// observed within one pacing window, not after the whole reply finishes).
func (l *Loop) cancelPipeline() {
	l.pipelineMu.Lock()
	defer l.pipelineMu.Unlock()
	if l.pipelineCancel != nil {
		l.pipelineCancel()
	}
}

func (l *Loop) runTranscript(ctx context.Context, text string) {
	l.sess.Machine.To(Thinking)
	l.sess.Transport.SendControl(ctx, control.STTMsg(l.sess.SessionID, text))
	l.sess.Transport.SendControl(ctx, control.LLMMsg(l.sess.SessionID, "", "happy"))
	l.sess.Transport.SendControl(ctx, control.TTSMsg(l.sess.SessionID, control.TTSStart, ""))

	l.streamer.StartReply()
	l.sess.SetClientAbort(false)
	l.sess.Machine.To(Speaking)

	closeAfter, err := l.sess.Engine.HandleTranscript(ctx, text, l.sess.ExitPhrases, l.functions, l.streamer)
	if err != nil && !errors.Is(err, dialogue.ErrEmptyTranscript) {
		l.sess.Logger.Error("dialogue engine error", "session_id", l.sess.SessionID, "error", err)
	}
	l.sess.SetCloseAfterReply(closeAfter)
}
