package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Abbreviations whose trailing period never ends a sentence.
var abbreviations = map[string]bool{
	"fig": true, "figs": true, "al": true, "dr": true, "mr": true, "mrs": true,
	"ms": true, "e.g": true, "i.e": true, "vs": true, "no": true, "eq": true,
	"ref": true, "refs": true, "approx": true, "ca": true,
}

// sentenceStarts returns the byte offsets at which sentences begin, always
// starting with 0 for non-empty text. A sentence ends after '.', '!' or '?'
// followed by whitespace and an upper-case letter, or at a blank line.
func sentenceStarts(text string) []int {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '.' || c == '!' || c == '?':
			if c == '.' && isAbbreviation(text, i) {
				continue
			}
			j := skipSpace(text, i+1)
			if j == i+1 || j >= len(text) {
				continue
			}
			r, _ := utf8.DecodeRuneInString(text[j:])
			if unicode.IsUpper(r) {
				starts = append(starts, j)
				i = j - 1
			}
		case c == '\n':
			j := skipSpace(text, i+1)
			if j < len(text) && strings.Contains(text[i+1:j], "\n") {
				if starts[len(starts)-1] < j {
					starts = append(starts, j)
				}
				i = j - 1
			}
		}
	}
	return starts
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

// isAbbreviation reports whether the period at dot closes a known abbreviation.
func isAbbreviation(text string, dot int) bool {
	start := dot
	for start > 0 {
		c := text[start-1]
		if c == '.' || (c < utf8.RuneSelf && unicode.IsLetter(rune(c))) {
			start--
			continue
		}
		break
	}
	word := strings.ToLower(strings.TrimLeft(text[start:dot], "."))
	return abbreviations[word]
}

// splitSentences cuts text into trimmed sentences.
func splitSentences(text string) []string {
	starts := sentenceStarts(text)
	out := make([]string, 0, len(starts))
	for i, s := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if sent := strings.TrimSpace(text[s:end]); sent != "" {
			out = append(out, sent)
		}
	}
	return out
}

// splitWords groups the words of text into runs of at most maxWords words.
func splitWords(text string, maxWords int) []string {
	if maxWords < 1 {
		maxWords = 1
	}
	words := strings.Fields(text)
	var out []string
	for len(words) > 0 {
		n := min(maxWords, len(words))
		out = append(out, strings.Join(words[:n], " "))
		words = words[n:]
	}
	return out
}

// wordStarts returns the byte offset of every word in text.
func wordStarts(text string) []int {
	var starts []int
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}
	return starts
}
