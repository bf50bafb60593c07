// Package config loads and validates the server's YAML configuration,
// mirroring the key layout in spec.md §6.
package config

// Config is the root configuration document.
type Config struct {
	Server         ServerConfig   `yaml:"server"`
	WebRTC         WebRTCConfig   `yaml:"webrtc"`
	SelectedModule SelectedModule `yaml:"selected_module"`
	ASR            map[string]ProviderConfig `yaml:"asr"`
	LLM            map[string]ProviderConfig `yaml:"llm"`
	TTS            map[string]ProviderConfig `yaml:"tts"`
	VAD            VADConfig      `yaml:"VAD"`
	Prompt         string         `yaml:"prompt"`
	ExitCommands   []string       `yaml:"exit_commands"`
	WakeupWords    []string       `yaml:"wakeup_words"`
	EnableGreeting bool           `yaml:"enable_greeting"`
	EnableStopTTSNotify bool      `yaml:"enable_stop_tts_notify"`
	StopTTSNotifyVoice  string    `yaml:"stop_tts_notify_voice"`
	RoleAPIPort    int            `yaml:"role_api_port"`
}

// ServerConfig holds the primary WebSocket listen address.
type ServerConfig struct {
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// WebRTCConfig controls whether the WebRTC transport/signalling is enabled.
type WebRTCConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Port          int      `yaml:"port"`
	SignalingPath string   `yaml:"signaling_path"`
	STUNServers   []string `yaml:"stun_servers"`
	TURNServers   []TURNServer `yaml:"turn_servers"`
}

// TURNServer is a single configured TURN relay.
type TURNServer struct {
	URL        string `yaml:"url"`
	Username   string `yaml:"username"`
	Credential string `yaml:"credential"`
}

// SelectedModule names which configured provider to use per concern.
type SelectedModule struct {
	ASR string `yaml:"ASR"`
	LLM string `yaml:"LLM"`
	TTS string `yaml:"TTS"`
	VAD string `yaml:"VAD"`
}

// ProviderConfig is a generic per-provider credential/endpoint sub-table.
type ProviderConfig struct {
	Type       string `yaml:"type"`
	APIKey     string `yaml:"api_key"`
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	VoiceID    string `yaml:"voice_id"`
}

// VADConfig holds the voice-activity-detection thresholds from spec.md §4.2.
type VADConfig struct {
	Threshold             float64 `yaml:"threshold"`
	MinSilenceDurationMs  int     `yaml:"min_silence_duration_ms"`
}

// Default returns a Config with the spec.md §4.2/§6 documented defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{IP: "0.0.0.0", Port: 8000, LogLevel: "info"},
		WebRTC: WebRTCConfig{Enabled: false, Port: 8082, SignalingPath: "/ws/signaling"},
		VAD:    VADConfig{Threshold: 0.5, MinSilenceDurationMs: 1000},
		EnableGreeting: true,
		RoleAPIPort:    8081,
	}
}
