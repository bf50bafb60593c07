package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coder/websocket"

	"github.com/voicebridge-ai/voicebridge-server/internal/control"
)

// WS is C9's WebSocket implementation: binary frames are Opus audio, text
// frames are control JSON, matching spec.md §4.9 and the
// ws://host:PORT/xiaozhi/v1/ endpoint in §6.
type WS struct {
	conn *websocket.Conn
}

// NewWS wraps an already-accepted coder/websocket connection.
func NewWS(conn *websocket.Conn) *WS { return &WS{conn: conn} }

func (w *WS) Kind() Kind { return KindWebSocket }

func (w *WS) SendControl(ctx context.Context, msg control.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return w.conn.Write(ctx, websocket.MessageText, payload)
}

func (w *WS) SendAudio(ctx context.Context, opusFrame []byte) error {
	return w.conn.Write(ctx, websocket.MessageBinary, opusFrame)
}

func (w *WS) Recv(ctx context.Context) (Inbound, error) {
	kind, payload, err := w.conn.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
			return Inbound{}, ErrTransportClosed
		}
		return Inbound{}, err
	}
	switch kind {
	case websocket.MessageBinary:
		return Inbound{Kind: InboundAudio, Audio: payload}, nil
	case websocket.MessageText:
		var msg control.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return Inbound{}, err
		}
		return Inbound{Kind: InboundControl, Control: msg}, nil
	default:
		return Inbound{}, errors.New("transport: unsupported websocket message type")
	}
}

func (w *WS) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
