package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/papergest/internal/paper"
)

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

	errNoSubSegments = errors.New("splitter produced no sub-segments")
)

// unit is the smallest piece the splitter moves between sub-segments.
type unit struct {
	text  string
	words int
	joint string // Placed before this unit when it follows another in the same piece.
}

type piece struct {
	b     strings.Builder
	words int
	lead  string // Joint of the first unit, used when merging into a predecessor.
}

func (p *piece) add(u unit) {
	if p.words > 0 {
		p.b.WriteString(u.joint)
	} else {
		p.lead = u.joint
	}
	p.b.WriteString(u.text)
	p.words += u.words
}

// Split cuts one Discussion section into ordered sub-segments at paragraph,
// then sentence, then word boundaries. It only partitions: joining the bodies
// gives back the section's word sequence. Overlap is not applied here.
func Split(sec paper.Section, cfg Config) ([]paper.SubSegment, error) {
	if !sec.Kind.Splittable() {
		return nil, fmt.Errorf("section kind %s is not splittable", sec.Kind)
	}
	budget := cfg.bodyBudget()
	units := splitUnits(sec.Text, budget)

	var pieces []*piece
	cur := &piece{}
	for _, u := range units {
		if cur.words > 0 {
			next := TokensForWords(cur.words + u.words)
			if next > budget || (next > cfg.TargetMax && TokensForWords(cur.words) >= cfg.TargetMin) {
				pieces = append(pieces, cur)
				cur = &piece{}
			}
		}
		cur.add(u)
	}
	if cur.words > 0 {
		pieces = append(pieces, cur)
	}

	// A short tail folds back into its predecessor when there is room.
	if n := len(pieces); n > 1 {
		last, prev := pieces[n-1], pieces[n-2]
		if TokensForWords(last.words) < cfg.TargetMin && TokensForWords(prev.words+last.words) <= budget {
			prev.b.WriteString(last.lead)
			prev.b.WriteString(last.b.String())
			prev.words += last.words
			pieces = pieces[:n-1]
		}
	}

	if len(pieces) == 0 {
		return nil, errNoSubSegments
	}
	segs := make([]paper.SubSegment, len(pieces))
	for i, p := range pieces {
		body := p.b.String()
		segs[i] = paper.SubSegment{Text: body, Body: body, Kind: sec.Kind, Index: i + 1}
	}
	return segs, nil
}

// splitUnits breaks text into paragraphs, and any paragraph over budget into
// sentences, and any sentence over budget into word runs.
func splitUnits(text string, budget int) []unit {
	var units []unit
	for _, para := range splitByParagraphs(text) {
		words := len(strings.Fields(para))
		if TokensForWords(words) <= budget {
			units = append(units, unit{text: para, words: words, joint: "\n\n"})
			continue
		}
		joint := "\n\n"
		for _, sent := range splitSentences(para) {
			sw := len(strings.Fields(sent))
			if TokensForWords(sw) <= budget {
				units = append(units, unit{text: sent, words: sw, joint: joint})
				joint = " "
				continue
			}
			for _, run := range splitWords(sent, maxWordsFor(budget)) {
				units = append(units, unit{text: run, words: len(strings.Fields(run)), joint: joint})
				joint = " "
			}
		}
	}
	return units
}

// splitByParagraphs splits on blank lines and drops empty paragraphs.
func splitByParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// maxWordsFor is the largest word count whose estimate fits within budget.
func maxWordsFor(budget int) int {
	n := budget * 100 / 133
	for TokensForWords(n+1) <= budget {
		n++
	}
	for n > 1 && TokensForWords(n) > budget {
		n--
	}
	return max(n, 1)
}
