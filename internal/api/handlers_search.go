package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/papergest/internal/vectorstore"
)

type searchRequest struct {
	Collection string `json:"collection"`
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
}

func (s *Server) searchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if s.deps.Retrieval == nil {
		jsonError(w, "search unavailable", http.StatusServiceUnavailable)
		return req, false
	}
	if !decodeJSON(w, r, 64<<10, &req) {
		return req, false
	}
	if strings.TrimSpace(req.Collection) == "" {
		req.Collection = s.cfg.DefaultCollection
	}
	return req, true
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequest(w, r)
	if !ok {
		return
	}
	hits, err := s.deps.Retrieval.Search(r.Context(), req.Collection, req.Query, req.Limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if hits == nil {
		hits = []vectorstore.Hit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": req.Collection, "hits": hits})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequest(w, r)
	if !ok {
		return
	}
	ans, err := s.deps.Retrieval.Ask(r.Context(), req.Collection, req.Query, req.Limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}
