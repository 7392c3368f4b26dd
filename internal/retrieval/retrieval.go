// Package retrieval answers searches and questions against ingested papers.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/papergest/internal/answer"
	"github.com/dgallion1/papergest/internal/embed"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/vectorstore"
)

const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// ErrEmptyQuery is returned when there is nothing to search for.
var ErrEmptyQuery = errors.New("query is required")

// ErrNoGenerator is returned by Ask when no answer model is configured.
var ErrNoGenerator = errors.New("answer generation is not configured")

// Service embeds queries with the same model used at ingest time and looks
// them up in the vector store.
type Service struct {
	embedder  embed.Embedder
	vectors   vectorstore.Store
	generator answer.Generator // nil disables Ask
	log       *slog.Logger

	// MinScore drops hits below this similarity. Zero keeps everything.
	MinScore float32
}

func NewService(emb embed.Embedder, vs vectorstore.Store, gen answer.Generator, log *slog.Logger) *Service {
	return &Service{embedder: emb, vectors: vs, generator: gen, log: log}
}

// Answer is a generated answer and the chunks it was written from.
type Answer struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Sources  []vectorstore.Hit `json:"sources"`
}

// CanAnswer reports whether Ask is available.
func (s *Service) CanAnswer() bool { return s.generator != nil }

// Search returns up to limit chunks of collection most similar to query.
func (s *Service) Search(ctx context.Context, collection, query string, limit int) ([]vectorstore.Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit = clampLimit(limit)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectors.Search(ctx, collection, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	if s.MinScore > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Score >= s.MinScore {
				kept = append(kept, h)
			}
		}
		hits = kept
	}
	s.log.Debug("search", "collection", collection, "limit", limit, "hits", len(hits))
	return hits, nil
}

// Ask validates question, retrieves supporting chunks and has the generator
// answer from them. With no matching chunks it returns answer.ErrNoContext.
func (s *Service) Ask(ctx context.Context, collection, question string, limit int) (Answer, error) {
	if s.generator == nil {
		return Answer{}, ErrNoGenerator
	}
	q, err := answer.ValidateQuestion(question)
	if err != nil {
		return Answer{}, err
	}
	hits, err := s.Search(ctx, collection, q, limit)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{}, answer.ErrNoContext
	}

	chunks := make([]paper.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}
	text, err := s.generator.Answer(ctx, q, chunks)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	s.log.Info("answered question", "collection", collection, "sources", len(hits))
	return Answer{Question: q, Answer: text, Sources: hits}, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
