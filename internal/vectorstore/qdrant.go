package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/papergest/internal/paper"
)

const (
	qdrantBatchSize   = 64
	qdrantConcurrency = 4
)

var errCollectionMissing = errors.New("collection does not exist")

// QdrantConfig configures the Qdrant REST client.
type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Qdrant is a minimal REST client to Qdrant. Collections use cosine distance
// and are created on first upsert.
type Qdrant struct {
	url    string
	apiKey string
	client *http.Client

	mu    sync.Mutex
	ready map[string]int // collection -> vector size
}

var _ Store = (*Qdrant)(nil)

func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		ready:  make(map[string]int),
	}
}

type qdrantPayload struct {
	Text     string         `json:"text"`
	Metadata paper.Metadata `json:"metadata"`
	DocID    string         `json:"doc_id"`
}

type qdrantPoint struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload qdrantPayload `json:"payload"`
}

func (q *Qdrant) collectionURL(name string) string {
	return q.url + "/collections/" + url.PathEscape(name)
}

// ensureCollection creates the collection unless it already exists.
func (q *Qdrant) ensureCollection(ctx context.Context, name string, dim int) error {
	q.mu.Lock()
	known, ok := q.ready[name]
	q.mu.Unlock()
	if ok {
		if known != dim {
			return fmt.Errorf("collection %s: %w: got %d, want %d", name, ErrDimensionMismatch, dim, known)
		}
		return nil
	}

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodGet, q.collectionURL(name), nil, &info)
	switch {
	case errors.Is(err, errCollectionMissing):
		body := map[string]any{
			"vectors": map[string]any{"size": dim, "distance": "Cosine"},
		}
		if err := q.do(ctx, http.MethodPut, q.collectionURL(name), body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("get collection %s: %w", name, err)
	default:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dim {
			return fmt.Errorf("collection %s: %w: got %d, want %d", name, ErrDimensionMismatch, dim, size)
		}
	}

	q.mu.Lock()
	q.ready[name] = dim
	q.mu.Unlock()
	return nil
}

// Upsert writes points in batches, a few batches at a time.
func (q *Qdrant) Upsert(ctx context.Context, collection string, points []Point) error {
	dim, err := dimension(points)
	if err != nil || dim == 0 {
		return storageErr("upsert", err)
	}
	if err := q.ensureCollection(ctx, collection, dim); err != nil {
		return storageErr("upsert", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(qdrantConcurrency)
	for start := 0; start < len(points); start += qdrantBatchSize {
		batch := points[start:min(start+qdrantBatchSize, len(points))]
		g.Go(func() error {
			body := make([]qdrantPoint, len(batch))
			for i, p := range batch {
				body[i] = qdrantPoint{
					ID:      p.ID,
					Vector:  p.Vector,
					Payload: qdrantPayload{Text: p.Chunk.Text, Metadata: p.Chunk.Metadata, DocID: p.DocID},
				}
			}
			return q.do(gctx, http.MethodPut, q.collectionURL(collection)+"/points?wait=true",
				map[string]any{"points": body}, nil)
		})
	}
	return storageErr("upsert", g.Wait())
}

func (q *Qdrant) Search(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any           `json:"id"`
			Score   float32       `json:"score"`
			Payload qdrantPayload `json:"payload"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodPost, q.collectionURL(collection)+"/points/search", req, &resp)
	if errors.Is(err, errCollectionMissing) {
		return []Hit{}, nil
	}
	if err != nil {
		return nil, storageErr("search", err)
	}
	hits := make([]Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, Hit{
			ID:    fmt.Sprint(r.ID),
			Score: r.Score,
			DocID: r.Payload.DocID,
			Chunk: paper.Chunk{Text: r.Payload.Text, Metadata: r.Payload.Metadata},
		})
	}
	return hits, nil
}

func (q *Qdrant) do(ctx context.Context, method, endpoint string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, req.URL.Path, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
