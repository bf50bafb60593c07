package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// Config, starting from Default() so unset fields keep their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, merged onto Default(), and
// validates the result. Exposed separately so tests can build configs from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that cfg is internally coherent, returning a joined error
// listing every failure found (spec.md §7 "BadConfig — fail fast at start").
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", cfg.Server.Port))
	}
	if cfg.VAD.Threshold < 0 || cfg.VAD.Threshold > 1 {
		errs = append(errs, fmt.Errorf("VAD.threshold must be within [0,1], got %f", cfg.VAD.Threshold))
	}
	if cfg.VAD.MinSilenceDurationMs < 0 {
		errs = append(errs, fmt.Errorf("VAD.min_silence_duration_ms must be non-negative"))
	}

	if cfg.WebRTC.Enabled {
		if cfg.WebRTC.Port <= 0 {
			errs = append(errs, fmt.Errorf("webrtc.port must be positive when webrtc.enabled"))
		}
		if cfg.WebRTC.SignalingPath == "" {
			errs = append(errs, fmt.Errorf("webrtc.signaling_path is required when webrtc.enabled"))
		}
		if len(cfg.WebRTC.STUNServers) == 0 && len(cfg.WebRTC.TURNServers) == 0 {
			slog.Warn("webrtc enabled with no STUN/TURN servers configured; only host candidates will be gathered")
		}
	}

	if cfg.SelectedModule.ASR != "" {
		if _, ok := cfg.ASR[cfg.SelectedModule.ASR]; !ok {
			slog.Warn("selected_module.ASR not found in asr provider table", "name", cfg.SelectedModule.ASR)
		}
	}
	if cfg.SelectedModule.LLM != "" {
		if _, ok := cfg.LLM[cfg.SelectedModule.LLM]; !ok {
			slog.Warn("selected_module.LLM not found in llm provider table", "name", cfg.SelectedModule.LLM)
		}
	}
	if cfg.SelectedModule.TTS != "" {
		if _, ok := cfg.TTS[cfg.SelectedModule.TTS]; !ok {
			slog.Warn("selected_module.TTS not found in tts provider table", "name", cfg.SelectedModule.TTS)
		}
	}

	if cfg.EnableStopTTSNotify && cfg.StopTTSNotifyVoice == "" {
		errs = append(errs, fmt.Errorf("stop_tts_notify_voice is required when enable_stop_tts_notify is true"))
	}

	return errors.Join(errs...)
}
