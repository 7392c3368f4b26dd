package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/embed"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/vectorstore"
)

// Worker processes a single ingestion job.
type Worker struct {
	source   store.Source
	chunker  *chunker.Chunker
	embedder embed.Embedder
	vectors  vectorstore.Store
	seen     *HashIndex
	log      *slog.Logger

	maxConcurrentEmbed int
	backoff            func(attempt int) time.Duration
}

func NewWorker(src store.Source, ch *chunker.Chunker, emb embed.Embedder, vs vectorstore.Store, seen *HashIndex, log *slog.Logger, maxEmbed int) *Worker {
	if maxEmbed <= 0 {
		maxEmbed = 1
	}
	if seen == nil {
		seen = NewHashIndex()
	}
	return &Worker{
		source:             src,
		chunker:            ch,
		embedder:           emb,
		vectors:            vs,
		seen:               seen,
		log:                log,
		maxConcurrentEmbed: maxEmbed,
		backoff:            Backoff,
	}
}

// Process runs load -> chunk -> embed -> upsert for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "collection", job.Collection)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	raw, err := w.source.Get(ctx, job.DocID)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}
	hash := DocumentHash(raw)
	job.SetLoaded(raw.Title, hash)

	// Phase 1.5: Dedup check
	if !job.Force {
		if existing, ok := w.seen.Lookup(job.Collection, hash); ok {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks, err := w.chunker.Chunk(raw)
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.AddError(fmt.Sprintf("chunk: %s", err))
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks))

	// Phase 3: Embed chunks with bounded concurrency.
	job.SetStatus(StatusEmbedding, "embedding")
	vectors := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentEmbed)
	var wg sync.WaitGroup

	for i, ch := range chunks {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			defer func() { <-sem }()
			vec, err := retry(ctx, w.backoff, func(attempt int, err error) {
				log.Warn("retryable embedding error", "chunk", i, "attempt", attempt, "error", err)
			}, func() ([]float32, error) {
				return w.embedder.Embed(ctx, text)
			})
			if err != nil {
				errs[i] = err
				return
			}
			vectors[i] = vec
			job.IncrChunksEmbedded()
		}(i, ch.Text)
	}
	wg.Wait()

	points := make([]vectorstore.Point, 0, len(chunks))
	hadErrors := false
	for i, ch := range chunks {
		if errs[i] != nil {
			log.Error("embedding failed", "chunk", i, "error", errs[i])
			job.AddError(fmt.Sprintf("chunk %d: %s", i, errs[i]))
			hadErrors = true
			continue
		}
		points = append(points, vectorstore.Point{
			ID:     vectorstore.PointID(job.DocID, i),
			Vector: vectors[i],
			DocID:  job.DocID,
			Chunk:  ch,
		})
	}
	log.Info("embedding complete", "embedded", len(points), "errors", hadErrors)

	if len(points) == 0 {
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	// Phase 4: Upsert into the vector store.
	job.SetStatus(StatusStoring, "storing")
	_, err = retry(ctx, w.backoff, func(attempt int, err error) {
		log.Warn("retryable upsert error", "attempt", attempt, "error", err)
	}, func() (struct{}, error) {
		return struct{}{}, w.vectors.Upsert(ctx, job.Collection, points)
	})
	if err != nil {
		log.Error("upsert failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.AddStored(len(points))
	log.Info("storage complete", "stored", len(points), "total", len(chunks))

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
		return
	}
	w.seen.Mark(job.Collection, hash, job.DocID)
	job.SetStatus(StatusCompleted, "done")
}

// DocumentHash fingerprints a paper's title and segments.
func DocumentHash(raw paper.RawDocument) string {
	var sb strings.Builder
	sb.WriteString(raw.Title)
	for _, seg := range raw.Segments {
		sb.WriteString("\x00")
		sb.WriteString(seg.Title)
		sb.WriteString("\x00")
		sb.WriteString(seg.Text)
	}
	return ContentHashHex([]byte(sb.String()))
}

// HashIndex remembers which content has been fully ingested into each
// collection, so an identical paper is not embedded twice.
type HashIndex struct {
	mu   sync.Mutex
	docs map[string]string // collection + "\x00" + hash -> doc id
}

func NewHashIndex() *HashIndex {
	return &HashIndex{docs: make(map[string]string)}
}

func (h *HashIndex) Lookup(collection, hash string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.docs[collection+"\x00"+hash]
	return id, ok
}

func (h *HashIndex) Mark(collection, hash, docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs[collection+"\x00"+hash] = docID
}
