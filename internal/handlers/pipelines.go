package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skncr-ai/scanner/internal/metrics"
	"github.com/skncr-ai/scanner/internal/storage"
)

type createRequest struct {
	Kind   string `json:"kind"`
	Camera string `json:"camera,omitempty"`
}

type pipelineView struct {
	*storage.Entry
	Snapshot any `json:"snapshot"`
}

func (h *Handler) HandlePipelines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		entries := h.pipelineStore.GetAll()
		pipelineList := make([]pipelineView, 0, len(entries))
		for _, entry := range entries {
			pipelineList = append(pipelineList, pipelineView{Entry: entry, Snapshot: entry.Pipeline.View()})
		}
		h.writeJSON(w, pipelineList)
	case "POST":
		h.createPipeline(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createPipeline(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Camera = strings.TrimSpace(req.Camera)
	if req.Camera == "" {
		req.Camera = h.defaultCamera
	}
	if !h.allowedCameras[req.Camera] {
		h.writeError(w, "Camera source not allowed: "+req.Camera, http.StatusBadRequest)
		return
	}

	pipeline, err := h.build(req.Kind, req.Camera)
	if err != nil {
		h.writeError(w, "Unable to create pipeline: "+err.Error(), http.StatusBadRequest)
		return
	}

	entry := &storage.Entry{
		ID:        uuid.NewString(),
		Kind:      pipeline.Kind(),
		Camera:    req.Camera,
		CreatedAt: time.Now(),
		Pipeline:  pipeline,
	}
	h.pipelineStore.Set(entry.ID, entry)
	metrics.PipelinesActive.Set(float64(h.pipelineStore.Len()))
	slog.Info("Pipeline created", "pipeline_id", entry.ID, "kind", entry.Kind, "camera", entry.Camera)

	h.writeJSONStatus(w, http.StatusCreated, pipelineView{Entry: entry, Snapshot: pipeline.View()})
}

// HandlePipelineDetail serves /api/pipelines/{id} and its command and event subpaths
func (h *Handler) HandlePipelineDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/pipelines/"), "/")
	id, action, _ := strings.Cut(rest, "/")

	if action == "" && r.Method == "DELETE" {
		h.closePipeline(w, id)
		return
	}

	entry, ok := h.getPipelineOrError(w, id)
	if !ok {
		return
	}

	switch action {
	case "":
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.writeJSON(w, pipelineView{Entry: entry, Snapshot: entry.Pipeline.View()})
	case "start", "capture", "reset":
		if r.Method != "POST" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.runCommand(w, r, entry, action)
	case "events":
		h.handleEvents(w, r, entry)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) runCommand(w http.ResponseWriter, r *http.Request, entry *storage.Entry, action string) {
	var command func(context.Context) error
	switch action {
	case "start":
		command = entry.Pipeline.Start
	case "capture":
		command = entry.Pipeline.Capture
	case "reset":
		command = entry.Pipeline.Reset
	}

	if err := command(r.Context()); err != nil {
		h.writeCommandError(w, err)
		return
	}
	slog.Debug("Pipeline command", "pipeline_id", entry.ID, "command", action)
	h.writeJSON(w, entry.Pipeline.View())
}

func (h *Handler) closePipeline(w http.ResponseWriter, id string) {
	entry, exists := h.pipelineStore.Delete(id)
	if !exists {
		h.writeError(w, "Pipeline not found", http.StatusNotFound)
		return
	}
	metrics.PipelinesActive.Set(float64(h.pipelineStore.Len()))

	if err := entry.Pipeline.Close(); err != nil {
		h.writeCommandError(w, err)
		return
	}
	slog.Info("Pipeline deleted", "pipeline_id", id)
	w.WriteHeader(http.StatusNoContent)
}
