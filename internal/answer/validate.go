package answer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidQuestion is returned for questions that are empty, too long, or
// look like prompt injection.
var ErrInvalidQuestion = errors.New("invalid question")

const (
	minQuestionLen = 3
	maxQuestionLen = 2000
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// ValidateQuestion trims q and checks it is fit to send to the model.
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	n := utf8.RuneCountInString(q)
	switch {
	case !utf8.ValidString(q):
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidQuestion)
	case n < minQuestionLen:
		return "", fmt.Errorf("%w: too short", ErrInvalidQuestion)
	case n > maxQuestionLen:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidQuestion, maxQuestionLen)
	case injectionPattern.MatchString(q):
		return "", fmt.Errorf("%w: contains instructions to the model", ErrInvalidQuestion)
	}
	return q, nil
}
