package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/recexport/internal/export"
	"github.com/dgallion1/recexport/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.Submit(format, req.Request)
	if err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"format":   job.Format,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", job.ID),
		"file_url": fmt.Sprintf("/api/jobs/%s/file", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleJobFile(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	res := job.Result()
	if res == nil {
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusFailed {
			jsonError(w, "job failed: "+snap.ErrorKind, http.StatusConflict)
			return
		}
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}
	writeFile(w, res)
}
