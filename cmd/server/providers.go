package main

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/voicebridge-ai/voicebridge-server/internal/asr"
	asrProviders "github.com/voicebridge-ai/voicebridge-server/internal/asr/providers"
	"github.com/voicebridge-ai/voicebridge-server/internal/config"
	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
	llmProviders "github.com/voicebridge-ai/voicebridge-server/internal/dialogue/providers"
	"github.com/voicebridge-ai/voicebridge-server/internal/tts"
	ttsProviders "github.com/voicebridge-ai/voicebridge-server/internal/tts/providers"
)

// loadSecrets overlays a .env file onto the process environment, matching
// the teacher's cmd/agent/main.go startup sequence.
func loadSecrets() {
	_ = godotenv.Load()
}

// buildASRProvider selects a concrete asr.Provider by name from cfg,
// mirroring cmd/agent/main.go's switch-on-provider-name pattern.
func buildASRProvider(cfg *config.Config) (asr.Provider, error) {
	name := cfg.SelectedModule.ASR
	if name == "" {
		name = "groq"
	}
	pc := cfg.ASR[name]
	switch pc.Type {
	case "openai":
		return asrProviders.NewOpenAI(pc.APIKey, pc.Model), nil
	case "groq", "":
		return asrProviders.NewGroq(pc.APIKey, pc.Model), nil
	default:
		return nil, fmt.Errorf("unknown asr provider type %q for %q", pc.Type, name)
	}
}

// buildLLMProvider selects a concrete dialogue.LLMProvider by name from cfg.
func buildLLMProvider(cfg *config.Config) (dialogue.LLMProvider, error) {
	name := cfg.SelectedModule.LLM
	if name == "" {
		name = "openai"
	}
	pc := cfg.LLM[name]
	switch pc.Type {
	case "anthropic":
		return llmProviders.NewAnthropic(pc.APIKey, pc.Model), nil
	case "google":
		return llmProviders.NewGoogle(pc.APIKey, pc.Model), nil
	case "openai", "":
		return llmProviders.NewOpenAI(pc.APIKey, pc.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider type %q for %q", pc.Type, name)
	}
}

// buildTTSProvider selects a concrete tts.Provider by name from cfg. Every
// configured TTS backend in this pack speaks the same streaming-websocket
// protocol (teacher's pkg/providers/tts/lokutor.go), so one adapter serves
// all of them, parameterised by host/path/key.
func buildTTSProvider(cfg *config.Config) (tts.Provider, error) {
	name := cfg.SelectedModule.TTS
	if name == "" {
		name = "default"
	}
	pc := cfg.TTS[name]
	if pc.Endpoint == "" {
		return nil, fmt.Errorf("tts provider %q has no endpoint configured", name)
	}
	return ttsProviders.NewWebSocketTTS(name, pc.Endpoint, "/v1/tts/stream", pc.APIKey), nil
}
