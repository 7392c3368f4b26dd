package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/papergest/internal/paper"
)

func TestApplyOverlapSentenceAligned(t *testing.T) {
	g := &textGen{}
	cfg := DefaultConfig()
	segs, err := Split(discussion(g.paragraphs(11, 8, 12)), cfg)
	require.NoError(t, err)

	out, err := ApplyOverlap(segs, cfg)
	require.NoError(t, err)
	require.Len(t, out, len(segs))

	assert.False(t, out[0].HasLeadingOverlap)
	assert.True(t, out[0].HasTrailingOverlap)
	assert.Empty(t, out[0].Overlap)
	assert.Equal(t, out[0].Body, out[0].Text)
	assert.False(t, out[len(out)-1].HasTrailingOverlap)

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		assert.True(t, cur.HasLeadingOverlap)
		assert.True(t, strings.HasSuffix(prev.Body, cur.Overlap), "overlap must be a suffix of part %d", prev.Index)
		assert.NotEqual(t, prev.Body, cur.Overlap)
		assert.True(t, strings.HasPrefix(cur.Overlap, "The "), "overlap should start on a sentence")
		// Six 12-word sentences is the longest run within 100 tokens.
		assert.Len(t, strings.Fields(cur.Overlap), 72)
		assert.Equal(t, cur.Overlap+overlapJoint+cur.Body, cur.Text)
		assert.LessOrEqual(t, EstimateTokens(cur.Text), cfg.HardCeiling)
	}
	// Bodies are untouched.
	assert.Equal(t, joinedWords(segs), joinedWords(out))
}

func TestOverlapWindowFallsBackToWords(t *testing.T) {
	body := strings.Repeat("word ", 200)
	w := overlapWindow(body, 50, 100)
	assert.Len(t, strings.Fields(w), 75)
	assert.True(t, strings.HasSuffix(body, w))
}

func TestOverlapWindowShortSentenceTail(t *testing.T) {
	// The last sentence alone is too short and the one before it is too long,
	// so the window is cut at a word boundary instead.
	body := "The " + strings.Repeat("long ", 120) + "done. Tiny end."
	w := overlapWindow(body, 50, 100)
	assert.Len(t, strings.Fields(w), 75)
	assert.True(t, strings.HasSuffix(body, w))
}

func TestOverlapWindowTooShort(t *testing.T) {
	assert.Empty(t, overlapWindow("single", 50, 100))
	assert.Empty(t, overlapWindow("", 50, 100))
}

func TestApplyOverlapDisabled(t *testing.T) {
	g := &textGen{}
	cfg := DefaultConfig()
	cfg.OverlapMin, cfg.OverlapMax = 0, 0
	segs, err := Split(discussion(g.paragraphs(11, 8, 12)), cfg)
	require.NoError(t, err)

	out, err := ApplyOverlap(segs, cfg)
	require.NoError(t, err)
	for _, s := range out {
		assert.Equal(t, s.Body, s.Text)
		assert.False(t, s.HasLeadingOverlap || s.HasTrailingOverlap)
	}
}

func TestApplyOverlapDoesNotCompound(t *testing.T) {
	g := &textGen{}
	cfg := DefaultConfig()
	segs, err := Split(discussion(g.paragraphs(11, 8, 12)), cfg)
	require.NoError(t, err)

	once, err := ApplyOverlap(segs, cfg)
	require.NoError(t, err)
	twice, err := ApplyOverlap(once, cfg)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestApplyOverlapRejectsMixedKinds(t *testing.T) {
	segs := []paper.SubSegment{
		{Body: "a b c", Kind: paper.KindDiscussion, Index: 1},
		{Body: "d e f", Kind: paper.KindResults, Index: 2},
	}
	_, err := ApplyOverlap(segs, DefaultConfig())
	assert.Error(t, err)
}
