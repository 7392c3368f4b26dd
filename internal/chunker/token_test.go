package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 1},
		{"one", 1},
		{"one two three", 3},
		{strings.Repeat("word ", 100), 133},
		{strings.Repeat("word ", 300), 399},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "words=%d", len(strings.Fields(tt.text)))
	}
}

func TestEstimateTokensMonotonic(t *testing.T) {
	a := strings.Repeat("alpha ", 77)
	b := strings.Repeat("beta ", 41)
	joined := a + b
	assert.GreaterOrEqual(t, EstimateTokens(joined), EstimateTokens(a))
	assert.GreaterOrEqual(t, EstimateTokens(joined), EstimateTokens(b))
	assert.LessOrEqual(t, EstimateTokens(joined), EstimateTokens(a)+EstimateTokens(b)+1)
}

func TestMaxWordsFor(t *testing.T) {
	for _, budget := range []int{1, 2, 100, 699, 800} {
		n := maxWordsFor(budget)
		assert.LessOrEqual(t, TokensForWords(n), budget)
		assert.Greater(t, TokensForWords(n+1), budget)
	}
}
