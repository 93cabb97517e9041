package chatserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lapor-chat/internal/auth"
	"lapor-chat/internal/config"
	ws "lapor-chat/internal/websocket"
)

// WebSocketHandler authenticates subscribers and hands them to the hub.
type WebSocketHandler struct {
	hub       *ws.Hub
	blacklist auth.TokenBlacklist
	cfg       config.Config
	log       *zap.SugaredLogger
}

// NewWebSocketHandler creates a new WebSocketHandler. blacklist may be nil.
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config, log *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		blacklist: blacklist,
		cfg:       cfg,
		log:       log,
	}
}

// ServeWS upgrades an authenticated request into a live room subscription.
// Browsers cannot set headers on a WebSocket handshake, so the token comes
// from the query string.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		h.log.Infow("websocket auth rejected", "error", err)
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrTokenInvalid) && !errors.Is(err, auth.ErrTokenRevoked) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	ws.ServeWs(h.hub, claims.UserID, w, r, h.cfg.WebSocket, h.log)
}
