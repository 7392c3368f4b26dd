// Package vectorstore persists embedded chunks and searches them by vector.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dgallion1/papergest/internal/paper"
)

// ErrDimensionMismatch is returned when a vector does not fit its collection.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Point is one embedded chunk ready for storage.
type Point struct {
	ID     string
	Vector []float32
	DocID  string
	Chunk  paper.Chunk
}

// Hit is a search result, most similar first.
type Hit struct {
	ID    string      `json:"id"`
	Score float32     `json:"score"`
	DocID string      `json:"doc_id"`
	Chunk paper.Chunk `json:"chunk"`
}

// Store is a named-collection vector database. Failures are *paper.StorageError.
type Store interface {
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error)
}

var pointNamespace = uuid.MustParse("6f1f1b7e-3c1a-4a55-9a47-0f5d2c9b8e21")

// PointID derives a stable UUID for the index-th chunk of a paper, so
// re-ingesting a paper overwrites its points instead of duplicating them.
func PointID(docID string, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(docID+"#"+strconv.Itoa(index))).String()
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &paper.StorageError{Op: op, Err: err}
}

// dimension returns the shared vector size of points.
func dimension(points []Point) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	dim := len(points[0].Vector)
	if dim == 0 {
		return 0, fmt.Errorf("point %s: %w: empty vector", points[0].ID, ErrDimensionMismatch)
	}
	for _, p := range points[1:] {
		if len(p.Vector) != dim {
			return 0, fmt.Errorf("point %s: %w: got %d, want %d", p.ID, ErrDimensionMismatch, len(p.Vector), dim)
		}
	}
	return dim, nil
}
