package answer

import (
	"fmt"
	"strings"

	"github.com/dgallion1/papergest/internal/paper"
)

const SystemPrompt = `You answer questions about scientific papers using only the numbered excerpts you are given.

Rules:
- Base every statement on the excerpts. If they do not contain the answer, say so plainly.
- Cite excerpts inline by number, like [1] or [2][3].
- Keep the paper's own hedging; do not turn "suggests" into "proves".
- Be concise: a short paragraph, or a few bullet points for multi-part questions.`

// BuildAnswerPrompt numbers the chunks, labels each with its paper and
// section, and appends the question.
func BuildAnswerPrompt(question string, chunks []paper.Chunk) string {
	var sb strings.Builder
	sb.WriteString("Excerpts:\n")
	for i, ch := range chunks {
		m := ch.Metadata
		label := m.Section
		if m.ChunkStrategy == paper.StrategySemanticOverlap {
			label = fmt.Sprintf("%s, part %d", m.Section, m.Part)
		}
		fmt.Fprintf(&sb, "\n[%d] %q (%s)\n", i+1, m.Title, label)
		sb.WriteString(ch.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("\n---\nQuestion: ")
	sb.WriteString(strings.TrimSpace(question))
	return sb.String()
}
