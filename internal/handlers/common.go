package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/skncr-ai/scanner/internal/session"
	"github.com/skncr-ai/scanner/internal/storage"
)

// Builder creates a pipeline of the given kind reading from the given camera source
type Builder func(kind, camera string) (session.Controller, error)

type Handler struct {
	pipelineStore  *storage.PipelineStore
	build          Builder
	defaultCamera  string
	allowedCameras map[string]bool
}

// New creates a handler whose pipelines read from defaultCamera. Clients may only
// name defaultCamera or one of the allowed sources.
func New(build Builder, defaultCamera string, allowed ...string) *Handler {
	allowedCameras := map[string]bool{defaultCamera: true}
	for _, source := range allowed {
		allowedCameras[strings.TrimSpace(source)] = true
	}
	return &Handler{
		pipelineStore:  storage.New(),
		build:          build,
		defaultCamera:  defaultCamera,
		allowedCameras: allowedCameras,
	}
}

// Register mounts the pipeline API on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/pipelines", h.HandlePipelines)
	mux.HandleFunc("/api/pipelines/", h.HandlePipelineDetail)
}

// Close shuts every pipeline down
func (h *Handler) Close() {
	h.pipelineStore.CloseAll()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

// writeJSONStatus encodes before writing the header so an encode failure can still become a 500
func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeCommandError maps machine errors onto status codes
func (h *Handler) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrClosed):
		h.writeError(w, err.Error(), http.StatusGone)
	case errors.Is(err, session.ErrInvalidState):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Pipeline helpers
func (h *Handler) getPipelineOrError(w http.ResponseWriter, id string) (*storage.Entry, bool) {
	entry, exists := h.pipelineStore.Get(id)
	if !exists {
		h.writeError(w, "Pipeline not found", http.StatusNotFound)
		return nil, false
	}
	return entry, true
}
