package dialogue

import (
	"context"
	"errors"
	"strings"

	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue/intent"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
)

// ErrEmptyTranscript mirrors the teacher's ErrEmptyTranscription: an ASR
// dispatch that produced nothing never reaches the Dialogue Engine at all
// (spec.md §4.4), but callers may still probe for this condition.
var ErrEmptyTranscript = errors.New("transcript is empty")

// SegmentSink is C6's narrow acceptance point for Engine output: one
// sentence-sized segment of reply text, in order (spec.md §4.5 step 4),
// synthesised with the given voice. Implemented by the TTS Streamer.
type SegmentSink interface {
	Segment(ctx context.Context, text string, voiceID string, final bool) error
}

// Engine is C5: per-session conversation history plus the exit-phrase /
// intent-hook / LLM decision chain, streaming sentence segments to a
// SegmentSink. Grounded on the teacher's Orchestrator.ProcessAudioStream,
// generalized to add the exit-phrase and intent-hook steps spec.md §4.5
// requires ahead of the LLM call.
type Engine struct {
	history  *History
	intents  *intent.Registry
	llm      LLMProvider
	executor FunctionExecutor
	logger   logging.Logger

	systemPrompt string
	voiceID      string
}

// NewEngine builds an Engine. executor may be nil when function-calling is
// not configured.
func NewEngine(llm LLMProvider, intents *intent.Registry, executor FunctionExecutor, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Engine{
		history:  NewHistory(DefaultMaxTurns),
		intents:  intents,
		llm:      llm,
		executor: executor,
		logger:   logger,
	}
}

// SetSystemPrompt seeds the session's system prompt and resets history
// around it (used at session start and by role-switch intents).
func (e *Engine) SetSystemPrompt(prompt string) {
	e.systemPrompt = prompt
	e.history.SetSystemPrompt(prompt)
}

// SystemPrompt returns the current system prompt.
func (e *Engine) SystemPrompt() string { return e.systemPrompt }

// VoiceID returns the current TTS voice, possibly changed by an intent hook.
func (e *Engine) VoiceID() string { return e.voiceID }

// SetVoiceID sets the TTS voice.
func (e *Engine) SetVoiceID(voice string) { e.voiceID = voice }

// HandleTranscript runs spec.md §4.5's full decision chain for one finished
// user utterance and streams the reply to sink in sentence segments. It
// returns closeAfterReply=true when an exit phrase matched.
func (e *Engine) HandleTranscript(ctx context.Context, transcript string, exitPhrases []string, functions []FunctionSchema, sink SegmentSink) (closeAfterReply bool, err error) {
	if strings.TrimSpace(transcript) == "" {
		return false, ErrEmptyTranscript
	}

	e.history.Append(RoleUser, transcript)

	// Step 1: exit phrases.
	trimmed := strings.TrimSpace(transcript)
	for _, phrase := range exitPhrases {
		if trimmed == phrase {
			reply := "Goodbye."
			e.history.Append(RoleAssistant, reply)
			if sendErr := e.emitSegments(ctx, reply, sink); sendErr != nil {
				return true, sendErr
			}
			return true, nil
		}
	}

	// Step 2: intent hooks.
	if e.intents != nil {
		if res, claimed := e.intents.Dispatch(transcript); claimed {
			if res.NewSystemPrompt != "" {
				e.SetSystemPrompt(res.NewSystemPrompt)
			}
			if res.NewVoiceID != "" {
				e.voiceID = res.NewVoiceID
			}
			e.history.Append(RoleAssistant, res.Reply)
			return false, e.emitSegments(ctx, res.Reply, sink)
		}
	}

	// Step 3: LLM, plain or function-calling.
	reply, err := e.llm.Complete(ctx, e.history.Messages(), functions)
	if err != nil {
		e.logger.Error("llm completion failed", "provider", e.llm.Name(), "error", err)
		apology := "Sorry, I'm having trouble responding right now."
		e.history.Append(RoleAssistant, apology)
		return false, e.emitSegments(ctx, apology, sink)
	}

	if reply.Call != nil {
		if e.executor == nil {
			e.logger.Warn("function call received with no executor configured", "function", reply.Call.Name)
			return false, nil
		}
		result, execErr := e.executor.Execute(ctx, *reply.Call)
		if execErr != nil {
			e.logger.Error("function execution failed", "function", reply.Call.Name, "error", execErr)
			result = "Sorry, that action failed."
		}
		e.history.Append(RoleAssistant, result)
		return false, e.emitSegments(ctx, result, sink)
	}

	e.history.Append(RoleAssistant, reply.Text)
	return false, e.emitSegments(ctx, reply.Text, sink)
}

// emitSegments runs the full reply text through the Segmenter and feeds
// each resulting segment to sink in order; the last segment of the reply is
// marked final, matching tts_last_index in spec.md §4.6.
func (e *Engine) emitSegments(ctx context.Context, text string, sink SegmentSink) error {
	var seg Segmenter
	segments := seg.Push(text)
	if tail := seg.Flush(); tail != "" {
		segments = append(segments, tail)
	}
	if len(segments) == 0 {
		return nil
	}
	for i, s := range segments {
		if err := sink.Segment(ctx, s, e.voiceID, i == len(segments)-1); err != nil {
			return err
		}
	}
	return nil
}
