package chunker

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/papergest/internal/paper"
)

func newTestChunker(t *testing.T) *Chunker {
	t.Helper()
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	return c
}

// studyX is a paper with a ~400 token Results, ~1400 token Discussion and
// ~200 token Conclusion section.
func studyX() paper.RawDocument {
	g := &textGen{}
	return paper.RawDocument{
		ID:    "study-x",
		Title: "Study X",
		Segments: []paper.Segment{
			{Title: "Results", Order: 0, Text: g.paragraphs(1, 25, 12)},
			{Title: "Discussion", Order: 1, Text: g.paragraphs(11, 8, 12)},
			{Title: "Conclusion", Order: 2, Text: g.paragraphs(1, 12, 12) + " " + g.sentence(6)},
		},
	}
}

// splitHeader separates the two header lines from the chunk body.
func splitHeader(t *testing.T, text string) (title, section, body string) {
	t.Helper()
	head, body, ok := strings.Cut(text, "\n\n")
	require.True(t, ok, "chunk has no header: %q", text)
	lines := strings.Split(head, "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "Title: "))
	require.True(t, strings.HasPrefix(lines[1], "Section: "))
	return strings.TrimPrefix(lines[0], "Title: "), strings.TrimPrefix(lines[1], "Section: "), body
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero target min", func(c *Config) { c.TargetMin = 0 }},
		{"max below min", func(c *Config) { c.TargetMax = 100 }},
		{"ceiling below max", func(c *Config) { c.HardCeiling = 500 }},
		{"overlap min above max", func(c *Config) { c.OverlapMin = 150 }},
		{"negative overlap", func(c *Config) { c.OverlapMin = -1 }},
		{"no room for overlap", func(c *Config) { c.HardCeiling = 650 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestChunkStudyX(t *testing.T) {
	c := newTestChunker(t)
	chunks, err := c.Chunk(studyX())
	require.NoError(t, err)

	var sections []string
	var parts []int
	for _, ch := range chunks {
		sections = append(sections, ch.Metadata.Section)
		parts = append(parts, ch.Metadata.Part)
	}
	assert.Equal(t, []string{"Results", "Discussion", "Discussion", "Discussion", "Conclusion"}, sections)
	assert.Equal(t, []int{1, 1, 2, 3, 1}, parts)

	results := chunks[0]
	assert.Equal(t, paper.StrategyAtomic, results.Metadata.ChunkStrategy)
	assert.False(t, results.Metadata.HasOverlap)
	assert.True(t, strings.HasPrefix(results.Text, "Title: Study X\nSection: Results\n\n"))

	for _, ch := range chunks[1:4] {
		assert.Equal(t, paper.StrategySemanticOverlap, ch.Metadata.ChunkStrategy)
		assert.True(t, ch.Metadata.HasOverlap)
	}
	assert.True(t, strings.HasPrefix(chunks[2].Text, "Title: Study X\nSection: Discussion (Part 2)\n\n"))

	conclusion := chunks[4]
	assert.Equal(t, paper.StrategyAtomic, conclusion.Metadata.ChunkStrategy)
	assert.Equal(t, "Study X", conclusion.Metadata.Title)
}

func TestChunkDiscussionWithinWindowIsAtomic(t *testing.T) {
	g := &textGen{}
	c := newTestChunker(t)
	chunks, err := c.Chunk(paper.RawDocument{ID: "d", Title: "Short", Segments: []paper.Segment{
		{Title: "Discussion", Text: g.paragraphs(3, 10, 12)}, // 360 words, 478 tokens
	}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, paper.Metadata{
		Title:         "Short",
		Section:       "Discussion",
		Part:          1,
		ChunkStrategy: paper.StrategyAtomic,
	}, chunks[0].Metadata)
}

func TestChunkResultsAndConclusionNeverSplit(t *testing.T) {
	g := &textGen{}
	c := newTestChunker(t)
	// Both far above the hard ceiling.
	chunks, err := c.Chunk(paper.RawDocument{ID: "d", Title: "Long", Segments: []paper.Segment{
		{Title: "Results", Text: g.paragraphs(10, 10, 12)},
		{Title: "Conclusions", Text: g.paragraphs(10, 10, 12)},
	}})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Results", chunks[0].Metadata.Section)
	assert.Equal(t, "Conclusion", chunks[1].Metadata.Section)
	for _, ch := range chunks {
		assert.Equal(t, 1, ch.Metadata.Part)
		assert.Equal(t, paper.StrategyAtomic, ch.Metadata.ChunkStrategy)
	}
}

func TestChunkOtherSectionKeepsHeading(t *testing.T) {
	c := newTestChunker(t)
	chunks, err := c.Chunk(paper.RawDocument{ID: "d", Title: "T", Segments: []paper.Segment{
		{Title: "Methods", Text: "We measured things."},
		{Title: "", Text: "Untitled text."},
	}})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Title: T\nSection: Methods\n\nWe measured things.", chunks[0].Text)
	assert.Equal(t, "Other", chunks[1].Metadata.Section)
}

func TestChunkNoCrossSectionText(t *testing.T) {
	c := newTestChunker(t)
	raw := studyX()
	chunks, err := c.Chunk(raw)
	require.NoError(t, err)

	owner := map[string]string{}
	for _, seg := range raw.Segments {
		for _, w := range strings.Fields(seg.Text) {
			if strings.HasPrefix(w, "w") {
				owner[w] = ClassifyHeading(seg.Title).String()
			}
		}
	}
	for _, ch := range chunks {
		_, _, body := splitHeader(t, ch.Text)
		for _, w := range strings.Fields(body) {
			if strings.HasPrefix(w, "w") {
				assert.Equal(t, ch.Metadata.Section, owner[w], "word %s leaked into %s", w, ch.Metadata.Section)
			}
		}
	}
}

func TestChunkHeaderMatchesMetadata(t *testing.T) {
	c := newTestChunker(t)
	chunks, err := c.Chunk(studyX())
	require.NoError(t, err)
	for _, ch := range chunks {
		title, section, _ := splitHeader(t, ch.Text)
		assert.Equal(t, ch.Metadata.Title, title)
		want := ch.Metadata.Section
		if ch.Metadata.ChunkStrategy == paper.StrategySemanticOverlap {
			want = fmt.Sprintf("%s (Part %d)", want, ch.Metadata.Part)
		}
		assert.Equal(t, want, section)
	}
}

func TestChunkPartsContiguousAndWithinCeiling(t *testing.T) {
	c := newTestChunker(t)
	chunks, err := c.Chunk(studyX())
	require.NoError(t, err)

	var split []paper.Chunk
	for _, ch := range chunks {
		if ch.Metadata.ChunkStrategy == paper.StrategySemanticOverlap {
			split = append(split, ch)
		}
	}
	require.NotEmpty(t, split)
	for i, ch := range split {
		assert.Equal(t, i+1, ch.Metadata.Part)
		_, _, body := splitHeader(t, ch.Text)
		assert.LessOrEqual(t, EstimateTokens(body), c.Config().HardCeiling)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	raw := studyX()
	disc := raw.Segments[1].Text
	cfg := DefaultConfig()

	segs, err := Split(discussion(disc), cfg)
	require.NoError(t, err)
	withOverlap, err := ApplyOverlap(segs, cfg)
	require.NoError(t, err)

	// Dropping each part's overlap prefix and joining gives the section back.
	var words []string
	for _, s := range withOverlap {
		body := strings.TrimPrefix(s.Text, s.Overlap)
		words = append(words, strings.Fields(body)...)
	}
	assert.Equal(t, strings.Fields(disc), words)
}

func TestChunkDeterministic(t *testing.T) {
	c := newTestChunker(t)
	a, err := c.Chunk(studyX())
	require.NoError(t, err)
	b, err := c.Chunk(studyX())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChunkEmptyDocument(t *testing.T) {
	c := newTestChunker(t)
	chunks, err := c.Chunk(paper.RawDocument{ID: "empty", Title: "Nothing"})
	assert.ErrorIs(t, err, paper.ErrEmptyDocument)
	assert.Nil(t, chunks)

	_, err = c.ChunkDocument(paper.Document{ID: "empty"})
	assert.ErrorIs(t, err, paper.ErrEmptyDocument)
}

func TestChunkUnknownKind(t *testing.T) {
	c := newTestChunker(t)
	_, err := c.ChunkDocument(paper.Document{Title: "T", Sections: []paper.Section{
		{Index: 0, Kind: paper.KindResults, Heading: "Results", Text: "ok"},
		{Index: 3, Kind: paper.SectionKind(42), Heading: "Weird", Text: "text"},
	}})
	var ce *paper.ChunkingError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.SectionIndex)
	assert.Equal(t, "Weird", ce.Heading)
}

func TestChunkText(t *testing.T) {
	c := newTestChunker(t)
	chunks, err := c.ChunkText("p", "Plain", "Results\nIt worked.\n=== SECTION ===\nConclusion\nGood.")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Title: Plain\nSection: Conclusion\n\nGood.", chunks[1].Text)
}

func TestChunkManyIsolatesFailures(t *testing.T) {
	c := newTestChunker(t)
	docs := []paper.RawDocument{
		studyX(),
		{ID: "empty", Title: "Empty"},
		{ID: "short", Title: "Short", Segments: []paper.Segment{{Title: "Results", Text: "Tiny."}}},
	}
	results := c.ChunkMany(docs)
	require.Len(t, results, 3)

	assert.Equal(t, "study-x", results[0].DocumentID)
	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Chunks, 5)

	assert.Equal(t, "empty", results[1].DocumentID)
	assert.ErrorIs(t, results[1].Err, paper.ErrEmptyDocument)
	assert.Empty(t, results[1].Chunks)

	assert.Equal(t, "short", results[2].DocumentID)
	assert.NoError(t, results[2].Err)
	assert.Len(t, results[2].Chunks, 1)
}

func TestChunkManyEmptyInput(t *testing.T) {
	assert.Empty(t, newTestChunker(t).ChunkMany(nil))
}

func TestBatchResultJSON(t *testing.T) {
	ok, err := json.Marshal(BatchResult{DocumentID: "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_id":"a","chunks":[]}`, string(ok))

	failed, err := json.Marshal(BatchResult{DocumentID: "b", Err: paper.ErrEmptyDocument})
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_id":"b","error":"document has no sections"}`, string(failed))
}
