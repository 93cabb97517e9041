package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lapor-chat/internal/storage"
)

// Router holds every handler the API server mounts.
type Router struct {
	Auth      *AuthHandler
	Messages  *MessageHandler
	Uploads   *UploadHandler
	PushToken *PushTokenHandler
	Blobs     http.Handler

	// AuthMW guards /api/v1. RateLimit, when set, runs after it so callers
	// are keyed by user.
	AuthMW    mux.MiddlewareFunc
	RateLimit mux.MiddlewareFunc
}

// Build wires the routes.
func (rt Router) Build() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/anonymous", rt.Auth.Anonymous).Methods(http.MethodPost)
	authRouter.HandleFunc("/register", rt.Auth.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", rt.Auth.Login).Methods(http.MethodPost)

	// media URLs are durable links and do not require a session
	if rt.Blobs != nil {
		r.Handle(storage.BlobURLPrefix+"{key:.+}", rt.Blobs).Methods(http.MethodGet, http.MethodHead)
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rt.AuthMW)
	if rt.RateLimit != nil {
		apiRouter.Use(rt.RateLimit)
	}

	apiRouter.HandleFunc("/auth/logout", rt.Auth.LogoutHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/me", rt.Auth.Me).Methods(http.MethodGet)

	apiRouter.HandleFunc("/messages", rt.Messages.List).Methods(http.MethodGet)
	apiRouter.HandleFunc("/messages", rt.Messages.Append).Methods(http.MethodPost)
	apiRouter.HandleFunc("/messages/{id}", rt.Messages.Delete).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/uploads", rt.Uploads.UploadFileHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/uploads/{key:.+}", rt.Uploads.DeleteFileHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/push-token", rt.PushToken.Put).Methods(http.MethodPut)

	return r
}
