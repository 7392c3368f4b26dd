package chunker

import (
	"fmt"
	"strings"

	"github.com/dgallion1/papergest/internal/paper"
)

func header(title, section string) string {
	return "Title: " + title + "\nSection: " + section + "\n\n"
}

// AssembleAtomic wraps a whole section into a single part-1 chunk.
func AssembleAtomic(title string, sec paper.Section) paper.Chunk {
	name := sec.Name()
	return paper.Chunk{
		Text: header(title, name) + strings.TrimSpace(sec.Text),
		Metadata: paper.Metadata{
			Title:         title,
			Section:       name,
			Part:          1,
			ChunkStrategy: paper.StrategyAtomic,
		},
	}
}

// AssembleSplit turns the sub-segments of one section into numbered chunks.
func AssembleSplit(title string, sec paper.Section, segs []paper.SubSegment) ([]paper.Chunk, error) {
	name := sec.Name()
	chunks := make([]paper.Chunk, 0, len(segs))
	for i, seg := range segs {
		if seg.Index != i+1 {
			return nil, fmt.Errorf("sub-segment at position %d has index %d", i+1, seg.Index)
		}
		if seg.Kind != sec.Kind {
			return nil, fmt.Errorf("sub-segment %d is %s, section is %s", seg.Index, seg.Kind, sec.Kind)
		}
		chunks = append(chunks, paper.Chunk{
			Text: header(title, fmt.Sprintf("%s (Part %d)", name, seg.Index)) + seg.Text,
			Metadata: paper.Metadata{
				Title:         title,
				Section:       name,
				Part:          seg.Index,
				ChunkStrategy: paper.StrategySemanticOverlap,
				HasOverlap:    seg.HasLeadingOverlap || seg.HasTrailingOverlap,
			},
		})
	}
	return chunks, nil
}
