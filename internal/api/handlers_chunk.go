package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/paper"
)

const (
	maxJSONBody  = 10 << 20
	maxBatchDocs = 500
)

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	var doc paper.RawDocument
	if !decodeJSON(w, r, maxJSONBody, &doc) {
		return
	}
	chunks, err := s.deps.Chunker.Chunk(doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

type chunkBatchRequest struct {
	Documents []paper.RawDocument `json:"documents"`
}

func (s *Server) handleChunkBatch(w http.ResponseWriter, r *http.Request) {
	var req chunkBatchRequest
	if !decodeJSON(w, r, 10*maxJSONBody, &req) {
		return
	}
	if len(req.Documents) > maxBatchDocs {
		jsonError(w, fmt.Sprintf("at most %d documents per batch", maxBatchDocs), http.StatusBadRequest)
		return
	}
	results := s.deps.Chunker.ChunkMany(req.Documents)
	if results == nil {
		results = []chunker.BatchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
