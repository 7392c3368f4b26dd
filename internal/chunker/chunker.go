// Package chunker turns classified scientific papers into retrieval chunks.
// Results and Conclusion sections stay whole; long Discussion sections are
// split on paragraph and sentence boundaries with a small overlap between parts.
package chunker

import (
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/papergest/internal/paper"
)

// Chunker applies one validated Config. It holds no other state and is safe
// for concurrent use.
type Chunker struct {
	cfg Config
}

// New validates cfg and returns a Chunker for it.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chunker config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the configuration in use.
func (c *Chunker) Config() Config { return c.cfg }

// Chunk classifies raw and chunks every section in source order.
func (c *Chunker) Chunk(raw paper.RawDocument) ([]paper.Chunk, error) {
	doc, err := Classify(raw)
	if err != nil {
		return nil, err
	}
	return c.ChunkDocument(doc)
}

// ChunkText parses a separator-delimited plain-text paper and chunks it.
func (c *Chunker) ChunkText(id, title, text string) ([]paper.Chunk, error) {
	return c.Chunk(paper.RawDocument{
		ID:       id,
		Title:    title,
		Segments: ParseSegments(text, c.cfg.separator()),
	})
}

// ChunkDocument chunks an already classified document. Either every section
// succeeds or no chunks are returned.
func (c *Chunker) ChunkDocument(doc paper.Document) ([]paper.Chunk, error) {
	if len(doc.Sections) == 0 {
		return nil, paper.ErrEmptyDocument
	}
	var chunks []paper.Chunk
	for _, sec := range doc.Sections {
		out, err := c.chunkSection(doc.Title, sec)
		if err != nil {
			return nil, &paper.ChunkingError{SectionIndex: sec.Index, Heading: sec.Heading, Err: err}
		}
		chunks = append(chunks, out...)
	}
	return chunks, nil
}

func (c *Chunker) chunkSection(title string, sec paper.Section) ([]paper.Chunk, error) {
	switch sec.Kind {
	case paper.KindResults, paper.KindConclusion, paper.KindOther:
		return []paper.Chunk{AssembleAtomic(title, sec)}, nil
	case paper.KindDiscussion:
		if EstimateTokens(sec.Text) <= c.cfg.TargetMax {
			return []paper.Chunk{AssembleAtomic(title, sec)}, nil
		}
		segs, err := Split(sec, c.cfg)
		if err != nil {
			return nil, err
		}
		if len(segs) == 1 {
			return []paper.Chunk{AssembleAtomic(title, sec)}, nil
		}
		segs, err = ApplyOverlap(segs, c.cfg)
		if err != nil {
			return nil, err
		}
		return AssembleSplit(title, sec, segs)
	default:
		return nil, fmt.Errorf("unknown section kind %s", sec.Kind)
	}
}

// BatchResult is the outcome for one document of ChunkMany.
type BatchResult struct {
	DocumentID string
	Chunks     []paper.Chunk
	Err        error
}

// MarshalJSON renders {document_id, chunks} or {document_id, error}.
func (r BatchResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			DocumentID string `json:"document_id"`
			Error      string `json:"error"`
		}{r.DocumentID, r.Err.Error()})
	}
	chunks := r.Chunks
	if chunks == nil {
		chunks = []paper.Chunk{}
	}
	return json.Marshal(struct {
		DocumentID string        `json:"document_id"`
		Chunks     []paper.Chunk `json:"chunks"`
	}{r.DocumentID, chunks})
}

// ChunkMany chunks each document independently. Results are in input order and
// a failing document never affects the others.
func (c *Chunker) ChunkMany(docs []paper.RawDocument) []BatchResult {
	results := make([]BatchResult, len(docs))
	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)
	for i, doc := range docs {
		g.Go(func() error {
			chunks, err := c.chunkSafely(doc)
			results[i] = BatchResult{DocumentID: doc.ID, Chunks: chunks, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// chunkSafely turns a panic in one document into that document's error.
func (c *Chunker) chunkSafely(doc paper.RawDocument) (chunks []paper.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, fmt.Errorf("chunk %s: panic: %v", doc.ID, r)
		}
	}()
	return c.Chunk(doc)
}
