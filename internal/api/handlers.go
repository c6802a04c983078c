package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mediagate/internal/engine"
	"mediagate/internal/job"
	"mediagate/internal/keystore"
	"mediagate/internal/models"
	"mediagate/internal/version"
)

// Retriever runs retrieval operations for the download and info endpoints.
// Implemented by job.Runner.
type Retriever interface {
	Lookup(ctx context.Context, url string) (*engine.Metadata, error)
	Download(ctx context.Context, url string, sel engine.Selector) (*job.Artifact, error)
}

// Handlers contains the HTTP handlers for the mediagate API.
type Handlers struct {
	retriever Retriever
	store     keystore.Store
}

// NewHandlers creates a new handlers instance.
func NewHandlers(retriever Retriever, store keystore.Store) *Handlers {
	return &Handlers{
		retriever: retriever,
		store:     store,
	}
}

// Root handles GET /. It is the only unauthenticated endpoint besides /health
// and returns a static capability summary.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, models.RootResponse{
		Message: "Welcome to the mediagate API",
		Features: map[string]string{
			"video_download":     "/download/video",
			"audio_download":     "/download/audio",
			"video_info":         "/info",
			"api_key_management": "/admin/keys",
		},
	})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.List(r.Context()); err != nil {
		h.writeErrorResponse(w, http.StatusServiceUnavailable, models.ErrorCodeInternalError, "key store unavailable")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   version.GetInfo().Version,
		Timestamp: time.Now().UTC(),
	})
}

// Info handles POST /info: metadata and the format list for a source URL.
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	var req models.VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	meta, err := h.retriever.Lookup(r.Context(), req.URL)
	if err != nil {
		h.writeRetrievalError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, infoToResponse(meta))
}

// DownloadVideo handles POST /download/video. On success the artifact is
// streamed back and deleted afterwards.
func (h *Handlers) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	var req models.VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	h.deliver(w, r, req.URL, engine.Selector{Kind: engine.KindVideo, Quality: req.Quality})
}

// DownloadAudio handles POST /download/audio.
func (h *Handlers) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	var req models.AudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	h.deliver(w, r, req.URL, engine.Selector{Kind: engine.KindAudio, Bitrate: req.Bitrate})
}

// deliver runs a retrieval job and streams the produced artifact. The
// artifact is removed once delivery finishes; if the caller disconnected
// mid-stream the file still goes, and anything missed is the reaper's job.
func (h *Handlers) deliver(w http.ResponseWriter, r *http.Request, url string, sel engine.Selector) {
	artifact, err := h.retriever.Download(r.Context(), url, sel)
	if err != nil {
		h.writeRetrievalError(w, err)
		return
	}
	defer func() {
		if err := artifact.Remove(); err != nil {
			slog.Warn("failed to remove delivered artifact", "path", artifact.Path, "error", err)
		}
	}()

	w.Header().Set("Content-Type", artifact.MediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Name+`"`)
	http.ServeFile(w, r, artifact.Path)
}

// writeRetrievalError maps retrieval failures onto the error taxonomy:
// source faults are the caller's problem, a missing output file is ours.
func (h *Handlers) writeRetrievalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSourceUnavailable):
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeSourceUnavailable,
			"source is unavailable; it may be private, region-locked or removed")
	case errors.Is(err, job.ErrNoOutput):
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError,
			"retrieval completed but the output file was not found")
	default:
		slog.Error("retrieval failed", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError,
			"an unexpected error occurred during retrieval")
	}
}

func infoToResponse(meta *engine.Metadata) models.InfoResponse {
	formats := make([]models.FormatInfo, len(meta.Formats))
	for i, f := range meta.Formats {
		formats[i] = models.FormatInfo{
			FormatID:       f.FormatID,
			Ext:            f.Ext,
			Resolution:     f.Resolution,
			FPS:            f.FPS,
			Filesize:       f.Filesize,
			FilesizeApprox: f.FilesizeApprox,
			VCodec:         f.VCodec,
			ACodec:         f.ACodec,
			URL:            f.URL,
		}
	}
	return models.InfoResponse{
		ID:          meta.ID,
		Title:       meta.Title,
		Description: meta.Description,
		Duration:    meta.Duration,
		Thumbnail:   meta.Thumbnail,
		Uploader:    meta.Uploader,
		ViewCount:   meta.ViewCount,
		Formats:     formats,
	}
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing more can be sent.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}
