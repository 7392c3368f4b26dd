// Package store defines where raw papers are read from and saved to.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/papergest/internal/paper"
)

// ErrNotFound is returned when no paper has the requested id.
var ErrNotFound = errors.New("paper not found")

// Source reads stored papers.
type Source interface {
	Get(ctx context.Context, docID string) (paper.RawDocument, error)
	List(ctx context.Context) ([]string, error)
}

// Repository is a Source that can also save papers.
type Repository interface {
	Source
	Save(ctx context.Context, doc paper.RawDocument) error
}

// ValidateID rejects ids that cannot be used as a storage key.
func ValidateID(docID string) error {
	if strings.TrimSpace(docID) == "" {
		return errors.New("doc id is required")
	}
	if strings.ContainsAny(docID, `/\`) || docID == "." || docID == ".." {
		return fmt.Errorf("invalid doc id %q", docID)
	}
	return nil
}
