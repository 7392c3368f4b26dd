package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/dgallion1/papergest/internal/paper"
)

// DefaultHashDimension is the vector size used when none is configured.
const DefaultHashDimension = 384

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+(?:\.\p{N}+)?`)

// Hash is a deterministic feature-hashing embedder. It needs no model or
// network, so it serves offline use and tests. Texts sharing words get
// similar vectors; it has no notion of meaning beyond that.
type Hash struct {
	dim int
}

// NewHash returns a hash embedder producing dim-sized vectors.
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &Hash{dim: dim}
}

func (h *Hash) Name() string { return "hash" }

// Dimension returns the vector size.
func (h *Hash) Dimension() int { return h.dim }

// Embed hashes each token into a bucket with a hash-derived sign and
// L2-normalises the result.
func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &paper.EmbeddingError{Provider: h.Name(), Err: err}
	}
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil, &paper.EmbeddingError{Provider: h.Name(), Err: ErrEmptyText}
	}

	vec := make([]float32, h.dim)
	for _, tok := range tokens {
		f := fnv.New64a()
		f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dim))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Every token cancelled out; fall back to a fixed unit vector.
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
