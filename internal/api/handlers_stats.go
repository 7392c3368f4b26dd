package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	snap := s.deps.Stats.Snapshot()
	snap.Model = s.deps.AnswerModel
	writeJSON(w, http.StatusOK, snap)
}
