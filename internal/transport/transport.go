// Package transport defines C9: the uniform interface the rest of the core
// programs against, hiding whether a session is carried over a raw
// WebSocket or a WebRTC peer connection (spec.md §4.9, §9's "WebSocket
// polymorphism via hasattr probing" anti-pattern is replaced by this single
// abstraction with two implementations).
package transport

import (
	"context"
	"errors"

	"github.com/voicebridge-ai/voicebridge-server/internal/control"
)

// Kind identifies which wire carried a session, decided once at
// negotiation time (spec.md §9 Open Question: the adapter picks one path
// per session rather than switching mid-session).
type Kind int

const (
	KindWebSocket Kind = iota
	KindWebRTCTrack
	KindWebRTCDataChannel
)

// InboundKind discriminates a received Inbound message.
type InboundKind int

const (
	InboundControl InboundKind = iota
	InboundAudio
)

// Inbound is one message read from the transport: either a decoded control
// message or a raw Opus-or-PCM audio payload.
type Inbound struct {
	Kind    InboundKind
	Control control.Message
	Audio   []byte
}

// ErrTransportClosed is returned by Transport methods once the underlying
// connection has gone away; it is fatal for the owning session.
var ErrTransportClosed = errors.New("transport closed")

// Transport is C9's uniform interface: send_control, send_audio, and an
// inbound stream, per spec.md §4.9.
type Transport interface {
	Kind() Kind

	// SendControl writes one control message.
	SendControl(ctx context.Context, msg control.Message) error

	// SendAudio writes one Opus frame (20ms/16kHz/mono).
	SendAudio(ctx context.Context, opusFrame []byte) error

	// Recv blocks for the next inbound message, or returns
	// ErrTransportClosed once the connection is gone.
	Recv(ctx context.Context) (Inbound, error)

	// Close tears down the underlying connection.
	Close() error
}
