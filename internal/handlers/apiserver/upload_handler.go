package apiserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/metrics"
	"lapor-chat/internal/middleware"
	imredis "lapor-chat/internal/redis"
	"lapor-chat/internal/storage"
)

const (
	defaultMaxMemory = 32 << 20 // 32 MB default max memory for multipart forms
)

// UploadHandler stores chat media in the blob backend.
type UploadHandler struct {
	storageService imtypes.StorageService
	ownership      imredis.UploadOwnership
	cfg            config.StorageConfig
	log            *zap.SugaredLogger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(storageService imtypes.StorageService, ownership imredis.UploadOwnership, cfg config.StorageConfig, log *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
		ownership:      ownership,
		cfg:            cfg,
		log:            log,
	}
}

// UploadFileHandler accepts one image or video in the "file" form field.
func (h *UploadHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, fmt.Sprintf("file too large, limit is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, fmt.Sprintf("cannot parse form: %v", err), http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONError(w, "missing 'file' field", http.StatusBadRequest)
		} else {
			writeJSONError(w, fmt.Sprintf("cannot read file: %v", err), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	// the client's Content-Type is not trusted
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		writeJSONError(w, "cannot inspect file", http.StatusBadRequest)
		return
	}
	mimeType := mt.String()
	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
		metrics.UploadsStored.WithLabelValues("rejected").Inc()
		writeJSONError(w, fmt.Sprintf("unsupported media type %s", mimeType), http.StatusUnsupportedMediaType)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeJSONError(w, "cannot read file", http.StatusInternalServerError)
		return
	}

	fileInfo, err := h.storageService.UploadFile(r.Context(), file, header.Size, header.Filename, mimeType)
	if err != nil {
		h.log.Errorw("store upload", "file", header.Filename, "error", err)
		metrics.UploadsStored.WithLabelValues("error").Inc()
		writeJSONError(w, "cannot store file", http.StatusInternalServerError)
		return
	}
	metrics.UploadsStored.WithLabelValues("stored").Inc()

	if err := h.ownership.Record(r.Context(), fileInfo.Key, userID); err != nil {
		h.log.Warnw("record upload owner", "key", fileInfo.Key, "error", err)
	}

	h.log.Infow("upload stored", "key", fileInfo.Key, "size", fileInfo.Size, "mimeType", mimeType, "userId", userID)
	writeJSONResponse(w, http.StatusOK, fileInfo)
}

// DeleteFileHandler removes a blob the caller uploaded. It exists so a client
// can clean up after a failed message append.
func (h *UploadHandler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	key := mux.Vars(r)["key"]

	if err := h.ownership.Release(r.Context(), key, userID); err != nil {
		if errors.Is(err, imredis.ErrUploadNotOwned) {
			writeJSONError(w, err.Error(), http.StatusForbidden)
			return
		}
		h.log.Errorw("check upload owner", "key", key, "error", err)
		writeJSONError(w, "cannot delete file", http.StatusInternalServerError)
		return
	}

	err := h.storageService.DeleteFile(r.Context(), key)
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrBlobNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case err != nil:
		h.log.Errorw("delete upload", "key", key, "error", err)
		writeJSONError(w, "cannot delete file", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
