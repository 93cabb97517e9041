package apiserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lapor-chat/internal/middleware"
	"lapor-chat/internal/services"
)

// PushTokenHandler stores the caller's device push token.
type PushTokenHandler struct {
	tokens services.PushTokenService
	log    *zap.SugaredLogger
}

// NewPushTokenHandler creates a new PushTokenHandler.
func NewPushTokenHandler(tokens services.PushTokenService, log *zap.SugaredLogger) *PushTokenHandler {
	return &PushTokenHandler{tokens: tokens, log: log}
}

// PushTokenRequest is the body of PUT /push-token.
type PushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Put overwrites the caller's token.
func (h *PushTokenHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req PushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "token is required", http.StatusBadRequest)
		return
	}

	err := h.tokens.Register(r.Context(), userID, req.Token)
	if errors.Is(err, services.ErrEmptyPushToken) {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Errorw("store push token", "userId", userID, "error", err)
		writeJSONError(w, "cannot store push token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
