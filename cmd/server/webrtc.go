package main

import (
	"context"
	"strconv"

	"github.com/voicebridge-ai/voicebridge-server/internal/config"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/signaling"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
)

// portString renders port, falling back to def when unset.
func portString(port, def int) string {
	if port == 0 {
		port = def
	}
	return strconv.Itoa(port)
}

// webrtcConfigFrom adapts the YAML-facing config.WebRTCConfig onto the
// transport package's negotiation config.
func webrtcConfigFrom(cfg *config.Config) transport.WebRTCConfig {
	turn := make([]transport.TURNServer, 0, len(cfg.WebRTC.TURNServers))
	for _, t := range cfg.WebRTC.TURNServers {
		turn = append(turn, transport.TURNServer{URLs: []string{t.URL}, Username: t.Username, Credential: t.Credential})
	}
	return transport.WebRTCConfig{STUNServers: cfg.WebRTC.STUNServers, TURNServers: turn}
}

// newSignalingHandler wires a signalling Handler whose ReadyFunc hands the
// negotiated WebRTC transport straight into the same per-session pipeline a
// plain WebSocket connection uses, running the session in its own goroutine
// since Handler.Handle itself blocks draining the signalling socket.
func newSignalingHandler(srv *Server, cfg transport.WebRTCConfig, logger logging.Logger) *signaling.Handler {
	return signaling.NewHandler(cfg, func(sessionID string, tr *transport.WebRTC) {
		go srv.AcceptSession(context.Background(), sessionID, tr)
	}, logger)
}
