// Package jsonstore keeps one <doc_id>.json file per paper in a directory.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/store"
)

const ext = ".json"

// Store is a folder of paper JSON files.
type Store struct {
	dir string
}

var _ store.Repository = (*Store)(nil)

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create paper dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(docID string) string {
	return filepath.Join(s.dir, docID+ext)
}

func (s *Store) Get(ctx context.Context, docID string) (paper.RawDocument, error) {
	if err := store.ValidateID(docID); err != nil {
		return paper.RawDocument{}, err
	}
	if err := ctx.Err(); err != nil {
		return paper.RawDocument{}, err
	}
	data, err := os.ReadFile(s.path(docID))
	if errors.Is(err, fs.ErrNotExist) {
		return paper.RawDocument{}, fmt.Errorf("%s: %w", docID, store.ErrNotFound)
	}
	if err != nil {
		return paper.RawDocument{}, fmt.Errorf("read paper %s: %w", docID, err)
	}
	var doc paper.RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return paper.RawDocument{}, fmt.Errorf("decode paper %s: %w", docID, err)
	}
	if doc.ID == "" {
		doc.ID = docID
	}
	return doc, nil
}

// List returns the ids of all stored papers, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(ids)
	return ids, ctx.Err()
}

// Save writes doc atomically, replacing any paper with the same id.
func (s *Store) Save(ctx context.Context, doc paper.RawDocument) error {
	if err := store.ValidateID(doc.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode paper %s: %w", doc.ID, err)
	}
	tmp, err := os.CreateTemp(s.dir, ".paper-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write paper %s: %w", doc.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write paper %s: %w", doc.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(doc.ID)); err != nil {
		return fmt.Errorf("save paper %s: %w", doc.ID, err)
	}
	return nil
}
