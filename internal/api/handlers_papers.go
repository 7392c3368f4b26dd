package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/parser"
	"github.com/dgallion1/papergest/internal/store"
)

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.deps.Papers.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_ids": ids})
}

func (s *Server) handlePaperChunks(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := store.ValidateID(docID); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.deps.Papers.Get(r.Context(), docID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	chunks, err := s.deps.Chunker.Chunk(doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "chunks": chunks})
}

type papersBatchRequest struct {
	DocIDs []string `json:"doc_ids"`
}

// handlePapersBatch chunks stored papers. A paper that cannot be loaded gets
// an error entry; the rest are still chunked.
func (s *Server) handlePapersBatch(w http.ResponseWriter, r *http.Request) {
	var req papersBatchRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if len(req.DocIDs) > maxBatchDocs {
		jsonError(w, fmt.Sprintf("at most %d doc ids per batch", maxBatchDocs), http.StatusBadRequest)
		return
	}

	results := make([]chunker.BatchResult, len(req.DocIDs))
	var docs []paper.RawDocument
	var slots []int
	for i, id := range req.DocIDs {
		err := store.ValidateID(id)
		var doc paper.RawDocument
		if err == nil {
			doc, err = s.deps.Papers.Get(r.Context(), id)
		}
		if err != nil {
			results[i] = chunker.BatchResult{DocumentID: id, Err: err}
			continue
		}
		docs = append(docs, doc)
		slots = append(slots, i)
	}
	for j, res := range s.deps.Chunker.ChunkMany(docs) {
		results[slots[j]] = res
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleUpload parses an uploaded file into a paper and saves it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	docID := strings.TrimSpace(r.FormValue("doc_id"))
	if docID == "" {
		docID = uuid.NewString()
	}
	if err := store.ValidateID(docID); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := parser.ForFile(filename, parser.Options{PDFFallback: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(file, filename)
	if err != nil {
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if len(doc.Segments) == 0 {
		jsonError(w, "no extractable content", http.StatusUnprocessableEntity)
		return
	}
	doc.ID = docID
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		doc.Title = title
	}

	if err := s.deps.Papers.Save(r.Context(), *doc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("paper uploaded", "doc_id", docID, "filename", filename, "sections", len(doc.Segments))
	writeJSON(w, http.StatusCreated, map[string]any{
		"doc_id":   doc.ID,
		"title":    doc.Title,
		"sections": len(doc.Segments),
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
