package chunker

import "strings"

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not required; the estimate only has to be stable and monotonic.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := TokensForWords(len(strings.Fields(text)))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TokensForWords is the estimate for n words, roughly 1.33 tokens per English word.
// Integer arithmetic keeps it deterministic across platforms.
func TokensForWords(n int) int {
	return n * 133 / 100
}
