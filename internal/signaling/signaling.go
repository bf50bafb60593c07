// Package signaling implements C10: the WebRTC SDP offer/answer and ICE
// candidate exchange over a dedicated signalling WebSocket endpoint,
// grounded on the original webrtc/signaling.py SignalingHandler.
package signaling

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	pionwebrtc "github.com/pion/webrtc/v4"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
)

// sdpPayload is the offer/answer payload shape (spec.md §6: "{type, sdp}").
type sdpPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// icePayload is the ice_candidate payload shape.
type icePayload struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
}

// envelope is the outer signalling message, accepting both the flat
// `{type, sdp}` shape and the nested `{type, payload:{sdp}}` shape for
// client compatibility (spec.md §4.10).
type envelope struct {
	Type      string          `json:"type"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate string          `json:"candidate,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

func (e envelope) sdp() (sdpPayload, error) {
	if len(e.Payload) > 0 {
		var p sdpPayload
		if err := json.Unmarshal(e.Payload, &p); err == nil && p.SDP != "" {
			return p, nil
		}
	}
	return sdpPayload{Type: e.Type, SDP: e.SDP}, nil
}

func (e envelope) ice() (icePayload, error) {
	if len(e.Payload) > 0 {
		var p icePayload
		if err := json.Unmarshal(e.Payload, &p); err == nil && p.Candidate != "" {
			return p, nil
		}
	}
	return icePayload{Candidate: e.Candidate}, nil
}

// ReadyFunc is invoked once a peer connection's answer has been sent, so
// the caller can register the resulting transport with the session
// registry exactly as it would a plain WebSocket connection.
type ReadyFunc func(sessionID string, tr *transport.WebRTC)

// Handler drives one signalling connection end to end.
type Handler struct {
	cfg    transport.WebRTCConfig
	ready  ReadyFunc
	logger logging.Logger
}

// NewHandler builds a signalling Handler.
func NewHandler(cfg transport.WebRTCConfig, ready ReadyFunc, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Handler{cfg: cfg, ready: ready, logger: logger}
}

// Handle drains one signalling WebSocket connection until it closes or the
// context is cancelled.
func (h *Handler) Handle(ctx context.Context, conn *websocket.Conn) {
	sessionID := uuid.NewString()

	var tr *transport.WebRTC
	var pendingCandidates []icePayload
	remoteSet := false

	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return
		}

		switch env.Type {
		case "offer", "sdp_offer":
			sdp, _ := env.sdp()
			codec, err := audio.NewCodec()
			if err != nil {
				h.sendError(ctx, conn, err)
				continue
			}
			newTr, err := transport.NewPeerConnection(h.cfg, codec)
			if err != nil {
				h.sendError(ctx, conn, err)
				continue
			}
			tr = newTr
			pc := tr.PeerConnection()

			if err := pc.SetRemoteDescription(pionwebrtc.SessionDescription{Type: pionwebrtc.SDPTypeOffer, SDP: sdp.SDP}); err != nil {
				h.sendError(ctx, conn, err)
				continue
			}
			remoteSet = true
			for _, c := range pendingCandidates {
				h.addCandidate(pc, c)
			}
			pendingCandidates = nil

			answer, err := pc.CreateAnswer(nil)
			if err != nil {
				h.sendError(ctx, conn, err)
				continue
			}
			if err := pc.SetLocalDescription(answer); err != nil {
				h.sendError(ctx, conn, err)
				continue
			}

			pc.OnICECandidate(func(c *pionwebrtc.ICECandidate) {
				if c == nil {
					return
				}
				init := c.ToJSON()
				wsjson.Write(ctx, conn, map[string]interface{}{
					"type":          "ice_candidate",
					"session_id":    sessionID,
					"candidate":     init.Candidate,
					"sdpMid":        init.SDPMid,
					"sdpMLineIndex": init.SDPMLineIndex,
				})
			})

			wsjson.Write(ctx, conn, map[string]interface{}{
				"type":       "answer",
				"session_id": sessionID,
				"sdp":        pc.LocalDescription().SDP,
			})

			if h.ready != nil {
				h.ready(sessionID, tr)
			}

		case "ice_candidate", "ice-candidate", "candidate":
			ice, _ := env.ice()
			if tr == nil || !remoteSet {
				pendingCandidates = append(pendingCandidates, ice)
				continue
			}
			h.addCandidate(tr.PeerConnection(), ice)

		case "ping":
			wsjson.Write(ctx, conn, map[string]interface{}{"type": "pong", "timestamp": env.Timestamp})

		case "close":
			wsjson.Write(ctx, conn, map[string]interface{}{"type": "closed"})
			if tr != nil {
				tr.Close()
			}
			return

		default:
			h.sendError(ctx, conn, fmt.Errorf("unsupported signalling message type: %s", env.Type))
		}
	}
}

func (h *Handler) addCandidate(pc *pionwebrtc.PeerConnection, ice icePayload) {
	init := pionwebrtc.ICECandidateInit{Candidate: ice.Candidate, SDPMid: ice.SDPMid, SDPMLineIndex: ice.SDPMLineIndex}
	if err := pc.AddICECandidate(init); err != nil {
		h.logger.Warn("failed to add ice candidate", "error", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, err error) {
	h.logger.Warn("signalling error", "error", err)
	wsjson.Write(ctx, conn, map[string]interface{}{"type": "error", "message": err.Error()})
}
