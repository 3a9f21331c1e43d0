package handlers

import (
	"context"
	"net/http"

	"github.com/fortuna/services/player-stats-service/internal/client"
	"github.com/fortuna/services/player-stats-service/internal/hub"
	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler serves the live ingest event feed
type WSHandler struct {
	hub      *hub.Hub
	ctx      context.Context
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WebSocket handler. ctx bounds the lifetime of every
// client pump, independent of the upgrade request.
func NewWSHandler(ctx context.Context, h *hub.Hub, allowedOrigins []string, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub: h,
		ctx: ctx,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, h.hub, h.log)

	h.hub.Register(c)

	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	h.log.Info("websocket connection established", "client_id", clientID, "remote", r.RemoteAddr)
}

// HandleMetrics returns hub metrics
func (h *WSHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.hub.GetMetrics())
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
