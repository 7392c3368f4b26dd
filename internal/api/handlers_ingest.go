package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/papergest/internal/pipeline"
	"github.com/dgallion1/papergest/internal/store"
)

type ingestRequest struct {
	DocID      string `json:"doc_id"`
	Collection string `json:"collection"`
	Force      bool   `json:"force"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "ingestion unavailable", http.StatusServiceUnavailable)
		return
	}
	var req ingestRequest
	if !decodeJSON(w, r, 64<<10, &req) {
		return
	}
	if err := store.ValidateID(req.DocID); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		collection = s.cfg.DefaultCollection
	}
	if _, err := s.deps.Papers.Get(r.Context(), req.DocID); err != nil {
		s.fail(w, r, err)
		return
	}

	job := pipeline.NewJob(req.DocID, collection, req.Force)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"doc_id":     job.DocID,
		"collection": collection,
		"status":     pipeline.StatusQueued,
		"poll_url":   fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "ingestion unavailable", http.StatusServiceUnavailable)
		return
	}
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
