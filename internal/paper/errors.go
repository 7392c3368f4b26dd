package paper

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when a document has no usable sections.
var ErrEmptyDocument = errors.New("document has no sections")

// ChunkingError reports a section that could not be classified, split or assembled.
type ChunkingError struct {
	SectionIndex int
	Heading      string
	Err          error
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("chunk section %d (%q): %v", e.SectionIndex, e.Heading, e.Err)
}

func (e *ChunkingError) Unwrap() error { return e.Err }

// EmbeddingError wraps a failure from an embedding provider.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StorageError wraps a failure from a vector store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
