package apiserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/storage"
)

// localBlobs is implemented by the disk backend.
type localBlobs interface {
	BasePath() string
}

// NewBlobHandler serves published media URLs: straight from disk for the
// local backend, by redirect to a signed URL for object stores.
func NewBlobHandler(svc imtypes.StorageService, log *zap.SugaredLogger) http.Handler {
	switch s := svc.(type) {
	case storage.BlobLocator:
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := mux.Vars(r)["key"]
			url, err := s.Locate(r.Context(), key)
			if err != nil {
				log.Warnw("locate blob", "key", key, "error", err)
				writeJSONError(w, "blob not found", http.StatusNotFound)
				return
			}
			http.Redirect(w, r, url, http.StatusFound)
		})
	case localBlobs:
		files := http.StripPrefix(storage.BlobURLPrefix, http.FileServer(http.Dir(s.BasePath())))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// no directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			files.ServeHTTP(w, r)
		})
	default:
		return http.NotFoundHandler()
	}
}
