// Package providers holds TTS provider adapters behind tts.Provider.
package providers

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebSocketTTS is a tts.Provider backed by a streaming synthesis endpoint
// that accepts a JSON request and replies with binary Opus frames followed
// by a text "EOS" sentinel. Adapted from the teacher's
// pkg/providers/tts/lokutor.go, generalized to take host/path/apiKey as
// configuration instead of hardcoding one vendor's endpoint.
type WebSocketTTS struct {
	name   string
	host   string
	path   string
	key    string
	scheme string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketTTS builds a WebSocketTTS adapter.
func NewWebSocketTTS(name, host, path, apiKey string) *WebSocketTTS {
	return &WebSocketTTS{name: name, host: host, path: path, key: apiKey, scheme: "wss"}
}

func (t *WebSocketTTS) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return t.conn, nil
	}
	scheme := t.scheme
	if scheme == "" {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: t.host, Path: t.path, RawQuery: "api_key=" + t.key}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("tts dial %s: %w", t.name, err)
	}
	t.conn = conn
	return conn, nil
}

func (t *WebSocketTTS) StreamSynthesize(ctx context.Context, text, voiceID string, onFrame func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req := map[string]interface{}{
		"text":  text,
		"voice": voiceID,
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "write failed")
		return fmt.Errorf("tts request %s: %w", t.name, err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "read failed")
			return fmt.Errorf("tts read %s: %w", t.name, err)
		}
		switch messageType {
		case websocket.MessageBinary:
			if err := onFrame(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return fmt.Errorf("tts provider error %s: %s", t.name, msg)
			}
		}
	}
}

func (t *WebSocketTTS) Name() string { return t.name }

func (t *WebSocketTTS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
