package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/papergest/internal/paper"
)

// MarkdownParser handles Markdown papers using goldmark. A leading H1 is the
// paper title; other headings open sections unless nested under one.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*paper.RawDocument, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	b := &sectionBuilder{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(extractText(node, src), node.Level)
		default:
			b.add(extractText(n, src))
		}
	}
	return b.document(stem(filename)), nil
}

// extractText gets the text content of a goldmark AST node. Blocks with
// inline children are rendered from those; raw blocks such as code use their lines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !hasInlineChildren(n) {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		s := extractText(c, src)
		if s == "" {
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(s)
	}
	return strings.TrimSpace(buf.String())
}

func hasInlineChildren(n ast.Node) bool {
	c := n.FirstChild()
	return c != nil && c.Type() == ast.TypeInline
}
