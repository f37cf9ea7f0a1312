package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleExportStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"formats":      s.exports.Stats().Snapshot(),
		"queue_depth":  s.orchestrator.QueueDepth(),
		"tracked_jobs": s.orchestrator.TrackedJobs(),
	})
}
