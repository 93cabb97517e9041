package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/middleware"
	"lapor-chat/internal/services"
)

// MessageHandler serves the room's message store.
type MessageHandler struct {
	messages services.MessageService
	log      *zap.SugaredLogger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages services.MessageService, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

// MessageListResponse wraps the snapshot returned by GET.
type MessageListResponse struct {
	Messages []imtypes.Message `json:"messages"`
}

// List returns the whole room, newest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.Snapshot(r.Context())
	if err != nil {
		h.log.Errorw("list messages", "error", err)
		writeJSONError(w, "cannot load messages", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []imtypes.Message{}
	}
	writeJSONResponse(w, http.StatusOK, MessageListResponse{Messages: msgs})
}

// Append stores a message authored by the caller. A createdAt in the body is
// ignored; the server stamps it.
func (h *MessageHandler) Append(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var in imtypes.AppendMessageInput
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Append(r.Context(), userID, in)
	switch {
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrInvalidMessage):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		h.log.Errorw("append message", "userId", userID, "error", err)
		writeJSONError(w, "cannot store message", http.StatusInternalServerError)
	default:
		writeJSONResponse(w, http.StatusCreated, msg)
	}
}

// Delete removes a message by id.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	err := h.messages.Delete(r.Context(), services.Actor{UserID: claims.UserID, Role: claims.Role}, id)
	switch {
	case errors.Is(err, services.ErrMessageNotFound):
		writeJSONError(w, "message not found", http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case err != nil:
		h.log.Errorw("delete message", "id", id, "error", err)
		writeJSONError(w, "cannot delete message", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
