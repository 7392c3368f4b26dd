package chunker

import (
	"fmt"
	"sort"

	"github.com/dgallion1/papergest/internal/paper"
)

// overlapJoint separates an injected overlap window from the body it precedes.
const overlapJoint = "\n\n"

// ApplyOverlap prefixes every sub-segment after the first with a window copied
// from the end of its predecessor's body. Windows are taken from bodies, never
// from already-prefixed text. segs must all come from one section.
func ApplyOverlap(segs []paper.SubSegment, cfg Config) ([]paper.SubSegment, error) {
	out := make([]paper.SubSegment, len(segs))
	copy(out, segs)
	for i := range out {
		if out[i].Kind != out[0].Kind {
			return nil, fmt.Errorf("sub-segment %d is %s, expected %s", out[i].Index, out[i].Kind, out[0].Kind)
		}
		out[i].Text = out[i].Body
		out[i].Overlap = ""
		out[i].HasLeadingOverlap = false
		out[i].HasTrailingOverlap = false
	}
	if !cfg.overlapEnabled() {
		return out, nil
	}
	for i := 1; i < len(out); i++ {
		window := overlapWindow(out[i-1].Body, cfg.OverlapMin, cfg.OverlapMax)
		if window == "" {
			continue
		}
		out[i].Overlap = window
		out[i].Text = window + overlapJoint + out[i].Body
		out[i].HasLeadingOverlap = true
		out[i-1].HasTrailingOverlap = true
	}
	return out, nil
}

// overlapWindow picks the longest sentence-aligned proper suffix of body within
// maxTokens. If that falls short of minTokens it takes the longest word-aligned
// proper suffix within maxTokens instead.
func overlapWindow(body string, minTokens, maxTokens int) string {
	words := wordStarts(body)
	if len(words) < 2 {
		return ""
	}
	// Words from offset to the end of body.
	tokensFrom := func(offset int) int {
		return TokensForWords(len(words) - sort.SearchInts(words, offset))
	}

	for _, s := range sentenceStarts(body) {
		if s == 0 || tokensFrom(s) > maxTokens {
			continue
		}
		if tokensFrom(s) >= minTokens {
			return body[s:]
		}
		break
	}
	for _, s := range words[1:] {
		if tokensFrom(s) <= maxTokens {
			return body[s:]
		}
	}
	return ""
}
