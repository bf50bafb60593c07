// Command server runs the voice dialogue server: the primary WebSocket
// endpoint (C9 WS transport), an optional WebRTC signalling endpoint (C9/C10
// WebRTC transport), and the role CRUD sidecar, all sharing one session
// registry (C11).
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/websocket"

	"github.com/voicebridge-ai/voicebridge-server/internal/config"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/roleapi"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server's YAML config file")
	flag.Parse()

	loadSecrets()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewSlog(logging.ParseLevel(cfg.Server.LogLevel))

	srv, err := NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	roleStore, err := roleapi.NewStore("data/roles.json")
	if err != nil {
		log.Fatalf("roleapi: %v", err)
	}
	roleMux := roleapi.NewMux(roleStore)
	roleHTTP := &http.Server{Addr: ":" + portString(cfg.RoleAPIPort, 8081), Handler: roleMux}
	go func() {
		if err := roleHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("role api server failed", "error", err)
		}
	}()

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/xiaozhi/v1/", func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.Header.Get("device-id")
		if deviceID == "" {
			http.Error(w, "missing device-id header", http.StatusBadRequest)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept failed", "error", err)
			return
		}
		tr := transport.NewWS(conn)
		srv.AcceptSession(r.Context(), deviceID, tr)
	})

	var signalingHTTP *http.Server
	if cfg.WebRTC.Enabled {
		wrtcCfg := webrtcConfigFrom(cfg)
		handler := newSignalingHandler(srv, wrtcCfg, logger)
		sigMux := http.NewServeMux()
		sigMux.HandleFunc(cfg.WebRTC.SignalingPath, func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				logger.Warn("signaling websocket accept failed", "error", err)
				return
			}
			handler.Handle(r.Context(), conn)
		})
		signalingHTTP = &http.Server{Addr: ":" + portString(cfg.WebRTC.Port, 8082), Handler: sigMux}
		go func() {
			if err := signalingHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("signaling server failed", "error", err)
			}
		}()
	}

	primaryHTTP := &http.Server{Addr: cfg.Server.IP + ":" + portString(cfg.Server.Port, 8000), Handler: wsMux}
	go func() {
		logger.Info("primary websocket server listening", "addr", primaryHTTP.Addr)
		if err := primaryHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("primary server failed", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	cancel()
	srv.registry.CloseAll()
	primaryHTTP.Close()
	roleHTTP.Close()
	if signalingHTTP != nil {
		signalingHTTP.Close()
	}
}
