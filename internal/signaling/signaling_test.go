package signaling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
)

// buildOfferSDP spins up a throwaway local peer connection and returns the
// SDP offer it produces, mimicking a real browser client's first message.
func buildOfferSDP(t *testing.T) string {
	t.Helper()
	pc, err := pionwebrtc.NewPeerConnection(pionwebrtc.Configuration{})
	if err != nil {
		t.Fatalf("client NewPeerConnection: %v", err)
	}
	defer pc.Close()

	if _, err := pc.AddTransceiverFromKind(pionwebrtc.RTPCodecTypeAudio); err != nil {
		t.Fatalf("AddTransceiverFromKind: %v", err)
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		t.Fatalf("SetLocalDescription: %v", err)
	}
	return offer.SDP
}

func TestHandlerAnswersOfferAndNotifiesReady(t *testing.T) {
	var mu sync.Mutex
	var readySessionID string
	var readyTransport *transport.WebRTC

	handler := NewHandler(transport.WebRTCConfig{}, func(sessionID string, tr *transport.WebRTC) {
		mu.Lock()
		readySessionID = sessionID
		readyTransport = tr
		mu.Unlock()
	}, logging.NoOpLogger{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		handler.Handle(r.Context(), conn)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.Dial(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	offerSDP := buildOfferSDP(t)
	if err := wsjson.Write(ctx, client, map[string]interface{}{
		"type": "offer",
		"sdp":  offerSDP,
	}); err != nil {
		t.Fatalf("write offer: %v", err)
	}

	var answer map[string]interface{}
	for {
		if err := wsjson.Read(ctx, client, &answer); err != nil {
			t.Fatalf("read reply: %v", err)
		}
		if answer["type"] == "answer" {
			break
		}
	}
	if answer["sdp"] == "" || answer["sdp"] == nil {
		t.Fatalf("expected a non-empty answer sdp, got %+v", answer)
	}

	mu.Lock()
	defer mu.Unlock()
	if readySessionID == "" {
		t.Fatalf("expected ready callback to fire with a session id")
	}
	if readyTransport == nil {
		t.Fatalf("expected ready callback to receive a transport")
	}
	if readyTransport.Kind() != transport.KindWebRTCTrack {
		t.Fatalf("expected KindWebRTCTrack, got %v", readyTransport.Kind())
	}
	readyTransport.Close()
}

func TestHandlerRespondsToPing(t *testing.T) {
	handler := NewHandler(transport.WebRTCConfig{}, nil, logging.NoOpLogger{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		handler.Handle(r.Context(), conn)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.Dial(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := wsjson.Write(ctx, client, map[string]interface{}{"type": "ping", "timestamp": int64(42)}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	var pong map[string]interface{}
	if err := wsjson.Read(ctx, client, &pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong["type"] != "pong" {
		t.Fatalf("expected a pong reply, got %+v", pong)
	}
}
