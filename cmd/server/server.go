package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/voicebridge-ai/voicebridge-server/internal/asr"
	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/config"
	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue/intent"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/pacer"
	"github.com/voicebridge-ai/voicebridge-server/internal/roleapi"
	"github.com/voicebridge-ai/voicebridge-server/internal/session"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
	"github.com/voicebridge-ai/voicebridge-server/internal/tts"
	"github.com/voicebridge-ai/voicebridge-server/internal/vad"
)

// Server holds the providers and config shared across every session: one
// instance built at startup, one Session/Loop/Pacer/Engine set constructed
// per connection.
type Server struct {
	cfg      *config.Config
	logger   logging.Logger
	registry *session.Registry

	asrProvider asr.Provider
	llmProvider dialogue.LLMProvider
	ttsProvider tts.Provider
	roleClient  *roleapi.Client

	wakeword         session.WakewordPolicy
	stopNotifyFrames [][]byte
}

// NewServer builds the shared Server from a loaded config.
func NewServer(cfg *config.Config, logger logging.Logger) (*Server, error) {
	asrP, err := buildASRProvider(cfg)
	if err != nil {
		return nil, err
	}
	llmP, err := buildLLMProvider(cfg)
	if err != nil {
		return nil, err
	}
	ttsP, err := buildTTSProvider(cfg)
	if err != nil {
		return nil, err
	}

	words := make(map[string]bool, len(cfg.WakeupWords))
	for _, w := range cfg.WakeupWords {
		words[w] = true
	}

	var notifyFrames [][]byte
	if cfg.EnableStopTTSNotify {
		notifyFrames, err = audio.LoadNotifyFrames(cfg.StopTTSNotifyVoice)
		if err != nil {
			return nil, fmt.Errorf("load stop tts notify voice: %w", err)
		}
	}

	return &Server{
		cfg:              cfg,
		logger:           logger,
		registry:         session.NewRegistry(),
		asrProvider:      asrP,
		llmProvider:      llmP,
		ttsProvider:      ttsP,
		roleClient:       roleapi.NewClient(roleAPIBaseURL(cfg)),
		wakeword:         session.WakewordPolicy{Words: words, EnableGreeting: cfg.EnableGreeting},
		stopNotifyFrames: notifyFrames,
	}, nil
}

func roleAPIBaseURL(cfg *config.Config) string {
	port := cfg.RoleAPIPort
	if port == 0 {
		port = 8081
	}
	return "http://127.0.0.1:" + strconv.Itoa(port)
}

// newIntentRegistry builds the per-session static hook list (SPEC_FULL §7).
func (s *Server) newIntentRegistry() *intent.Registry {
	hooks := []intent.Hook{
		intent.ExitPhraseHook{Phrases: s.cfg.ExitCommands, Reply: "Goodbye."},
		intent.ChangeRoleHook{Trigger: "become", Roles: s.roleClient},
	}
	return intent.NewRegistry(hooks...)
}

// AcceptSession builds one session's full pipeline around an already
// negotiated transport and runs it to completion (blocking). deviceID keys
// the session registry; sessionID is the per-connection correlation id sent
// in stt/llm/tts messages.
func (s *Server) AcceptSession(ctx context.Context, deviceID string, tr transport.Transport) {
	codec, err := audio.NewCodec()
	if err != nil {
		s.logger.Error("failed to build codec for session", "device_id", deviceID, "error", err)
		tr.Close()
		return
	}

	gate := vad.NewGate(vad.EnergyModel{}, s.cfg.VAD.Threshold, int64(s.cfg.VAD.MinSilenceDurationMs))

	intents := s.newIntentRegistry()
	engine := dialogue.NewEngine(s.llmProvider, intents, nil, s.logger)
	engine.SetSystemPrompt(s.cfg.Prompt)

	sessionID := uuid.NewString()
	sess := session.NewSession(ctx, deviceID, sessionID, codec, gate, engine, tr, s.logger)
	sess.ExitPhrases = s.cfg.ExitCommands

	s.registry.Put(deviceID, sess)
	defer s.registry.Remove(deviceID, sess)

	dispatcher := asr.NewDispatcher(s.asrProvider, asr.DefaultTimeout, audio.SampleRate, s.logger)

	p := pacer.New(sessionID, tr, s.logger, func() {
		sess.Machine.ForceIdle()
		if sess.CloseAfterReply() {
			sess.Close()
		}
	})
	p.SetStopNotifyFrames(s.stopNotifyFrames)
	streamer := tts.NewStreamer(s.ttsProvider, p, s.logger)

	loop := session.NewLoop(sess, dispatcher, streamer, p, s.wakeword, nil)

	if err := session.Run(sess.Context(), loop, p); err != nil {
		s.logger.Warn("session ended with error", "device_id", deviceID, "session_id", sessionID, "error", err)
	}
}
