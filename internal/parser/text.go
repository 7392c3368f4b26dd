package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/paper"
)

// TextParser handles plain text papers. Sections are delimited either by
// separator lines or by known section headings standing on their own line.
type TextParser struct {
	Separator string
}

func (p *TextParser) Parse(r io.Reader, filename string) (*paper.RawDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return segmentLines(lines, p.separator(), stem(filename)), nil
}

func (p *TextParser) separator() string {
	if p.Separator == "" {
		return chunker.DefaultSeparator
	}
	return p.Separator
}

// segmentLines builds a document from text lines. When any line is the
// separator the separator wins; otherwise headings are detected.
func segmentLines(lines []string, separator, title string) *paper.RawDocument {
	for _, line := range lines {
		if strings.TrimSpace(line) == separator {
			return &paper.RawDocument{
				Title:    title,
				Segments: chunker.ParseSegments(strings.Join(lines, "\n"), separator),
			}
		}
	}

	b := &sectionBuilder{}
	var current strings.Builder
	flushPara := func() {
		b.add(current.String())
		current.Reset()
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flushPara()
		case current.Len() == 0 && isHeadingLine(trimmed):
			b.heading(trimmed, 1)
		default:
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flushPara()
	return b.document(title)
}

// isHeadingLine reports whether a line on its own looks like a section heading.
func isHeadingLine(line string) bool {
	if len(strings.Fields(line)) > 6 {
		return false
	}
	return isSectionName(line)
}
