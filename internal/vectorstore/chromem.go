package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/dgallion1/papergest/internal/paper"
)

// Chromem stores points in an embedded chromem-go database, in memory or
// persisted under a directory.
type Chromem struct {
	db *chromem.DB
	ef chromem.EmbeddingFunc
}

var _ Store = (*Chromem)(nil)

// NewChromem opens a database in dir, or an in-memory one when dir is empty.
// ef is only used if chromem has to embed text itself; points always carry vectors.
func NewChromem(dir string, ef chromem.EmbeddingFunc) (*Chromem, error) {
	if dir == "" {
		return &Chromem{db: chromem.NewDB(), ef: ef}, nil
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, storageErr("open", err)
	}
	return &Chromem{db: db, ef: ef}, nil
}

func (c *Chromem) collection(name string) (*chromem.Collection, error) {
	coll, err := c.db.GetOrCreateCollection(name, nil, c.ef)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return coll, nil
}

func (c *Chromem) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if _, err := dimension(points); err != nil {
		return storageErr("upsert", err)
	}
	coll, err := c.collection(collection)
	if err != nil {
		return storageErr("upsert", err)
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Metadata:  chromemMetadata(p),
			Embedding: p.Vector,
			Content:   p.Chunk.Text,
		}
	}
	return storageErr("upsert", coll.AddDocuments(ctx, docs, runtime.NumCPU()))
}

func (c *Chromem) Search(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error) {
	// Searching never creates a collection; an unknown name has no hits.
	coll := c.db.GetCollection(collection, c.ef)
	if coll == nil {
		return []Hit{}, nil
	}
	// chromem rejects nResults above the collection size.
	n := min(limit, coll.Count())
	if n <= 0 {
		return []Hit{}, nil
	}
	results, err := coll.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, storageErr("search", err)
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:    r.ID,
			Score: r.Similarity,
			DocID: r.Metadata["doc_id"],
			Chunk: paper.Chunk{Text: r.Content, Metadata: metadataFromChromem(r.Metadata)},
		}
	}
	return hits, nil
}

// chromem metadata is string-valued only.
func chromemMetadata(p Point) map[string]string {
	m := p.Chunk.Metadata
	return map[string]string{
		"doc_id":         p.DocID,
		"title":          m.Title,
		"section":        m.Section,
		"part":           strconv.Itoa(m.Part),
		"chunk_strategy": m.ChunkStrategy,
		"has_overlap":    strconv.FormatBool(m.HasOverlap),
	}
}

func metadataFromChromem(m map[string]string) paper.Metadata {
	part, _ := strconv.Atoi(m["part"])
	overlap, _ := strconv.ParseBool(m["has_overlap"])
	return paper.Metadata{
		Title:         m["title"],
		Section:       m["section"],
		Part:          part,
		ChunkStrategy: m["chunk_strategy"],
		HasOverlap:    overlap,
	}
}
