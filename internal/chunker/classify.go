package chunker

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/papergest/internal/paper"
)

// DefaultSeparator delimits sections in a single plain-text paper.
const DefaultSeparator = "=== SECTION ==="

var leadingNumbering = regexp.MustCompile(`^(?:\d+(?:\.\d+)*[.)]?\s*|[ivxlc]+[.)]\s*)`)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// ParseSegments splits text on lines equal to separator. The first non-empty
// line of each segment becomes its heading; the rest is its text.
func ParseSegments(text, separator string) []paper.Segment {
	if separator == "" {
		separator = DefaultSeparator
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks [][]string
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == separator {
			blocks = append(blocks, cur)
			cur = nil
			continue
		}
		cur = append(cur, line)
	}
	blocks = append(blocks, cur)

	var segs []paper.Segment
	for _, lines := range blocks {
		heading, body := splitHeading(lines)
		if heading == "" && body == "" {
			continue
		}
		segs = append(segs, paper.Segment{Title: heading, Order: len(segs), Text: body})
	}
	return segs
}

func splitHeading(lines []string) (string, string) {
	for i, line := range lines {
		if h := strings.TrimSpace(line); h != "" {
			return h, strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	return "", ""
}

// ClassifyHeading maps a section heading onto a kind. Unknown headings are KindOther.
func ClassifyHeading(heading string) paper.SectionKind {
	words := strings.Fields(NormalizeHeading(heading))
	if len(words) == 0 {
		return paper.KindOther
	}
	for _, w := range words {
		if strings.HasPrefix(w, "discussion") {
			return paper.KindDiscussion
		}
	}
	for _, w := range words {
		if strings.HasPrefix(w, "conclusion") || strings.HasPrefix(w, "concluding") {
			return paper.KindConclusion
		}
	}
	if words[0] == "result" || words[0] == "results" {
		return paper.KindResults
	}
	return paper.KindOther
}

// NormalizeHeading lowercases, drops leading numbering like "4." or "IV." and
// trims surrounding punctuation.
func NormalizeHeading(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = leadingNumbering.ReplaceAllString(h, "")
	h = strings.Trim(h, " \t:.-–—#*")
	return strings.Join(strings.Fields(h), " ")
}

// Classify tags every non-blank segment of raw with its kind. Blank segments
// are dropped; a document with nothing left is paper.ErrEmptyDocument.
func Classify(raw paper.RawDocument) (paper.Document, error) {
	doc := paper.Document{ID: raw.ID, Title: raw.Title}
	for i, seg := range raw.Segments {
		if !utf8.ValidString(seg.Text) || !utf8.ValidString(seg.Title) {
			return paper.Document{}, &paper.ChunkingError{SectionIndex: i, Heading: seg.Title, Err: errInvalidUTF8}
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		heading := strings.TrimSpace(seg.Title)
		doc.Sections = append(doc.Sections, paper.Section{
			Index:   i,
			Kind:    ClassifyHeading(heading),
			Heading: heading,
			Text:    text,
		})
	}
	if len(doc.Sections) == 0 {
		return paper.Document{}, paper.ErrEmptyDocument
	}
	return doc, nil
}
