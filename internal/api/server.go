package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/papergest/internal/answer"
	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/pipeline"
	"github.com/dgallion1/papergest/internal/retrieval"
	"github.com/dgallion1/papergest/internal/store"
)

// Deps are the services the API serves. Retrieval, Orchestrator and Stats
// may be nil; their routes then answer 503.
type Deps struct {
	Chunker      *chunker.Chunker
	Papers       store.Repository
	Orchestrator *pipeline.Orchestrator
	Retrieval    *retrieval.Service
	Stats        *answer.LLMStats
	AnswerModel  string
}

// Server is the HTTP API server for papergest.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(EchoRequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/chunk", s.handleChunk)
		r.Post("/chunk/batch", s.handleChunkBatch)

		r.Get("/papers", s.handleListPapers)
		r.Get("/papers/{docID}/chunks", s.handlePaperChunks)
		r.Post("/papers/batch", s.handlePapersBatch)
		r.Post("/upload", s.handleUpload)

		r.Post("/ingest", s.handleIngest)
		r.Get("/ingest/{jobID}/status", s.handleIngestStatus)

		r.Post("/search", s.handleSearch)
		r.Post("/query", s.handleQuery)

		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps an error to the HTTP status that best describes its cause.
func statusFor(err error) int {
	var chunkErr *paper.ChunkingError
	var embedErr *paper.EmbeddingError
	var storeErr *paper.StorageError
	var retryErr *answer.RetryableError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, answer.ErrNoContext):
		return http.StatusNotFound
	case errors.Is(err, answer.ErrInvalidQuestion), errors.Is(err, retrieval.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, paper.ErrEmptyDocument), errors.As(err, &chunkErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, retrieval.ErrNoGenerator),
		errors.Is(err, pipeline.ErrQueueFull),
		errors.Is(err, pipeline.ErrStopped),
		errors.As(err, &embedErr),
		errors.As(err, &storeErr),
		errors.As(err, &retryErr):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	jsonError(w, err.Error(), code)
}
