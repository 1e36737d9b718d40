package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// MediaHandler serves uploads from stores that keep the bytes themselves
// (memory and filesystem backends).
type MediaHandler struct {
	reader linkbio.MediaReader
	logger *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(reader linkbio.MediaReader, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{reader: reader, logger: logger}
}

// Routes returns the media routes
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.Serve)
	return r
}

// Serve streams the object named by the wildcard path
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		renderError(w, r, h.logger, linkbio.ErrMediaNotFound)
		return
	}
	body, contentType, err := h.reader.Open(r.Context(), key)
	if err != nil {
		if !errors.Is(err, linkbio.ErrNotFound) {
			h.logger.Error("Failed to open media", "key", key, "error", err)
		}
		renderError(w, r, h.logger, err)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("Failed to stream media", "key", key, "error", err)
	}
}
