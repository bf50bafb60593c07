// Package control defines the JSON control-message vocabulary exchanged
// over the primary WebSocket and the WebRTC data channel, per spec.md §6.
package control

import "encoding/json"

// Type is the discriminant of Message.Type.
type Type string

const (
	Hello Type = "hello"
	Listen Type = "listen"
	Abort  Type = "abort"
	IOT    Type = "iot"
	STT    Type = "stt"
	LLM    Type = "llm"
	TTS    Type = "tts"
	Welcome Type = "welcome"
	Error  Type = "error"
)

// ListenState is the `state` field of a listen message.
type ListenState string

const (
	ListenStart  ListenState = "start"
	ListenStop   ListenState = "stop"
	ListenDetect ListenState = "detect"
)

// ListenMode is the `mode` field of a listen message.
type ListenMode string

const (
	ModeAuto     ListenMode = "auto"
	ModeManual   ListenMode = "manual"
	ModeWakeword ListenMode = "wakeword"
)

// TTSState is the `state` field of a tts message.
type TTSState string

const (
	TTSStart        TTSState = "start"
	TTSSentenceStart TTSState = "sentence_start"
	TTSSentenceEnd   TTSState = "sentence_end"
	TTSStop          TTSState = "stop"
)

// Message is the wire shape of every control message: a `type` discriminant
// plus type-specific optional fields, all inlined onto one JSON object.
// Fields not declared here are dropped on decode. The custom MarshalJSON /
// UnmarshalJSON below map the shared wire "state" field.
type Message struct {
	Type Type `json:"type"`

	// listen (C->S)
	State ListenState `json:"state,omitempty"`
	Mode  ListenMode  `json:"mode,omitempty"`
	Text  string      `json:"text,omitempty"`

	// iot (C->S)
	Descriptors json.RawMessage `json:"descriptors,omitempty"`
	States      json.RawMessage `json:"states,omitempty"`

	// stt/llm/tts (S->C)
	SessionID string `json:"session_id,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
	TTSState  TTSState `json:"-"`

	// welcome (S->C)
	DeviceID string `json:"device-id,omitempty"`

	// error (S->C)
	Message string `json:"message,omitempty"`
}

// MarshalJSON re-maps TTSState onto the wire "state" field, since tts and
// listen share the name but not the Go type.
func (m Message) MarshalJSON() ([]byte, error) {
	type wire Message
	aux := struct {
		wire
		State string `json:"state,omitempty"`
	}{wire: wire(m)}
	if m.Type == TTS {
		aux.State = string(m.TTSState)
	} else if m.State != "" {
		aux.State = string(m.State)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON is the mirror of MarshalJSON: it decodes the shared "state"
// wire field into either ListenState or TTSState depending on Type.
func (m *Message) UnmarshalJSON(data []byte) error {
	type wire Message
	aux := struct {
		*wire
		State string `json:"state,omitempty"`
	}{wire: (*wire)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch m.Type {
	case TTS:
		m.TTSState = TTSState(aux.State)
	default:
		m.State = ListenState(aux.State)
	}
	return nil
}

// WelcomeMsg builds the server's acknowledgement to a hello message.
func WelcomeMsg(deviceID string) Message {
	return Message{Type: Welcome, DeviceID: deviceID}
}

// STTMsg notifies the client of a finalised transcript.
func STTMsg(sessionID, text string) Message {
	return Message{Type: STT, SessionID: sessionID, Text: text}
}

// LLMMsg notifies the client of reply metadata.
func LLMMsg(sessionID, text, emotion string) Message {
	return Message{Type: LLM, SessionID: sessionID, Text: text, Emotion: emotion}
}

// TTSMsg builds a tts boundary-marker message.
func TTSMsg(sessionID string, state TTSState, text string) Message {
	return Message{Type: TTS, SessionID: sessionID, TTSState: state, Text: text}
}

// ErrorMsg builds a protocol error notification.
func ErrorMsg(message string) Message {
	return Message{Type: Error, Message: message}
}
