package parser

import (
	"strings"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/paper"
)

// sectionNames are normalised headings that start a new top-level section
// wherever they appear, whatever their heading level.
var sectionNames = map[string]bool{
	"abstract":                   true,
	"introduction":               true,
	"background":                 true,
	"related work":               true,
	"methods":                    true,
	"method":                     true,
	"methodology":                true,
	"materials and methods":      true,
	"experimental":               true,
	"experiments":                true,
	"results":                    true,
	"result":                     true,
	"findings":                   true,
	"results and discussion":     true,
	"discussion":                 true,
	"general discussion":         true,
	"discussion and conclusions": true,
	"discussion and conclusion":  true,
	"conclusion":                 true,
	"conclusions":                true,
	"concluding remarks":         true,
	"summary and conclusions":    true,
	"acknowledgements":           true,
	"acknowledgments":            true,
	"references":                 true,
	"bibliography":               true,
	"appendix":                   true,
	"supplementary material":     true,
}

func isSectionName(heading string) bool {
	return sectionNames[chunker.NormalizeHeading(heading)]
}

// sectionBuilder collects headings and paragraphs into paper segments.
// Headings nested below the current section fold into its text.
type sectionBuilder struct {
	title   string
	segs    []paper.Segment
	current string // Heading of the open section
	level   int
	open    bool
	paras   []string
}

// heading handles a heading of the given level (1 is outermost). A leading
// h1 that is not a section name becomes the title.
func (b *sectionBuilder) heading(text string, level int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if level == 1 && b.empty() && !isSectionName(text) {
		b.title = text
		return
	}
	if b.open && level > b.level && !isSectionName(text) {
		b.add(text)
		return
	}
	b.flush()
	b.current, b.level, b.open = text, level, true
}

func (b *sectionBuilder) add(text string) {
	if t := strings.TrimSpace(text); t != "" {
		b.paras = append(b.paras, t)
	}
}

func (b *sectionBuilder) empty() bool {
	return len(b.segs) == 0 && !b.open && len(b.paras) == 0
}

func (b *sectionBuilder) flush() {
	if b.open || len(b.paras) > 0 {
		b.segs = append(b.segs, paper.Segment{
			Title: b.current,
			Order: len(b.segs),
			Text:  strings.Join(b.paras, "\n\n"),
		})
	}
	b.current, b.level, b.open, b.paras = "", 0, false, nil
}

// document finishes the build. fallbackTitle is used when no title heading was seen.
func (b *sectionBuilder) document(fallbackTitle string) *paper.RawDocument {
	b.flush()
	title := b.title
	if title == "" {
		title = fallbackTitle
	}
	return &paper.RawDocument{Title: title, Segments: b.segs}
}
