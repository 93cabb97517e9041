package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lapor-chat/internal/auth"
	"lapor-chat/internal/middleware"
	"lapor-chat/internal/services"
)

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	AuthService    services.AuthService
	UserService    services.UserService
	TokenBlacklist auth.TokenBlacklist
	log            *zap.SugaredLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthService, userService services.UserService, tokenBlacklist auth.TokenBlacklist, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		AuthService:    authService,
		UserService:    userService,
		TokenBlacklist: tokenBlacklist,
		log:            log,
	}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Anonymous creates a throwaway identity.
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	sess, err := h.AuthService.SignInAnonymously(r.Context())
	if err != nil {
		h.log.Errorw("anonymous sign-in", "error", err)
		writeJSONError(w, "gagal masuk secara anonim", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, sess)
}

// Register creates an email account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	if _, err := h.AuthService.Register(r.Context(), req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			writeJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, services.ErrMissingCredentials), errors.Is(err, services.ErrPasswordTooShort):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			h.log.Errorw("register", "error", err)
			writeJSONError(w, "pendaftaran gagal", http.StatusInternalServerError)
		}
		return
	}

	sess, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Errorw("sign in after register", "error", err)
		writeJSONError(w, "pendaftaran gagal", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, sess)
}

// Login signs in with email and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			writeJSONError(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, services.ErrMissingCredentials):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			h.log.Errorw("login", "error", err)
			writeJSONError(w, "gagal masuk", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, sess)
}

// readCredentials decodes and validates the body, answering 400 itself.
// Blank fields get the same message the sign-up form shows.
func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeJSONError(w, services.ErrMissingCredentials.Error(), http.StatusBadRequest)
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// LogoutHandler revokes the current token until it would have expired.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		writeJSONError(w, "token cannot be revoked", http.StatusBadRequest)
		return
	}

	if err := h.TokenBlacklist.Add(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.log.Errorw("blacklist token", "jti", claims.ID, "error", err)
		writeJSONError(w, "logout failed", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the caller's own user record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	user, err := h.UserService.GetUserProfile(r.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeJSONError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Errorw("get profile", "userId", userID, "error", err)
		writeJSONError(w, "cannot load user", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}
