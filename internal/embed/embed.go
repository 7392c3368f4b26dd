// Package embed produces vectors for chunk text.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/dgallion1/papergest/internal/paper"
)

// ErrEmptyText is returned for text with nothing to embed.
var ErrEmptyText = errors.New("text cannot be empty")

// Embedder turns text into a vector. Failures are *paper.EmbeddingError.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// Func adapts a chromem-go embedding function.
type Func struct {
	name string
	fn   chromem.EmbeddingFunc
}

// NewFunc wraps fn under the given provider name.
func NewFunc(name string, fn chromem.EmbeddingFunc) *Func {
	return &Func{name: name, fn: fn}
}

// Ollama embeds with a local Ollama server. baseURL is the API root,
// e.g. http://localhost:11434/api; empty uses chromem's default.
func Ollama(model, baseURL string) *Func {
	return NewFunc("ollama/"+model, chromem.NewEmbeddingFuncOllama(model, baseURL))
}

// OpenAI embeds with the hosted OpenAI API.
func OpenAI(apiKey, model string) *Func {
	return NewFunc("openai/"+model, chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model)))
}

func (f *Func) Name() string { return f.name }

func (f *Func) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &paper.EmbeddingError{Provider: f.name, Err: ErrEmptyText}
	}
	vec, err := f.fn(ctx, text)
	if err != nil {
		return nil, &paper.EmbeddingError{Provider: f.name, Err: err}
	}
	if len(vec) == 0 {
		return nil, &paper.EmbeddingError{Provider: f.name, Err: errors.New("empty vector")}
	}
	return vec, nil
}

// EmbeddingFunc exposes e as a chromem-go embedding function, so collections
// can embed query text with the same model as the stored chunks.
func EmbeddingFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}

// Options selects and configures a provider.
type Options struct {
	Provider  string // hash, ollama or openai
	Model     string
	URL       string
	APIKey    string
	Dimension int // hash only
	CacheSize int // 0 disables caching
}

// New builds the configured embedder, wrapped in a cache when CacheSize > 0.
func New(opts Options) (Embedder, error) {
	var e Embedder
	switch strings.ToLower(opts.Provider) {
	case "", "hash":
		e = NewHash(opts.Dimension)
	case "ollama":
		if opts.Model == "" {
			return nil, errors.New("ollama embedder needs a model")
		}
		e = Ollama(opts.Model, opts.URL)
	case "openai":
		if opts.APIKey == "" {
			return nil, errors.New("openai embedder needs an api key")
		}
		model := opts.Model
		if model == "" {
			model = string(chromem.EmbeddingModelOpenAI3Small)
		}
		if opts.URL != "" {
			e = NewOpenAICompat(opts.URL, opts.APIKey, model)
		} else {
			e = OpenAI(opts.APIKey, model)
		}
	default:
		return nil, fmt.Errorf("unknown embed provider %q", opts.Provider)
	}
	if opts.CacheSize > 0 {
		e = NewCached(e, opts.CacheSize)
	}
	return e, nil
}
