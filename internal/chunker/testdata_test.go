package chunker

import (
	"fmt"
	"strings"
)

// textGen produces prose with unique words so tests can trace where every word went.
type textGen struct{ n int }

// sentence returns a sentence of exactly words words (minimum 2).
func (g *textGen) sentence(words int) string {
	parts := []string{"The"}
	for i := 0; i < words-2; i++ {
		g.n++
		parts = append(parts, fmt.Sprintf("w%d", g.n))
	}
	return strings.Join(append(parts, "done."), " ")
}

// paragraph returns count sentences of wordsEach words.
func (g *textGen) paragraph(count, wordsEach int) string {
	s := make([]string, count)
	for i := range s {
		s[i] = g.sentence(wordsEach)
	}
	return strings.Join(s, " ")
}

// paragraphs returns count paragraphs separated by blank lines.
func (g *textGen) paragraphs(count, sentences, wordsEach int) string {
	p := make([]string, count)
	for i := range p {
		p[i] = g.paragraph(sentences, wordsEach)
	}
	return strings.Join(p, "\n\n")
}
