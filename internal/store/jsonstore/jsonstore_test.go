package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/store"
)

func TestSaveGetList(t *testing.T) {
	ctx := context.Background()
	s, err := New(filepath.Join(t.TempDir(), "papers"))
	require.NoError(t, err)

	doc := paper.RawDocument{
		ID:        "pmc-1",
		Title:     "Study X",
		CreatedAt: "2024-05-01",
		Segments:  []paper.Segment{{Title: "Results", Order: 0, Text: "Cells grew."}},
	}
	require.NoError(t, s.Save(ctx, doc))
	require.NoError(t, s.Save(ctx, paper.RawDocument{ID: "a-0", Title: "Other"}))

	got, err := s.Get(ctx, "pmc-1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-0", "pmc-1"}, ids)
}

func TestGetReadsExternalFiles(t *testing.T) {
	dir := t.TempDir()
	raw := `{"doc_title":"Hand written","sections":[{"title":"Discussion","order":0,"text":"Talk."}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.json"), []byte(raw), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	s, err := New(dir)
	require.NoError(t, err)
	doc, err := s.Get(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, "manual", doc.ID)
	assert.Equal(t, "Hand written", doc.Title)

	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"manual"}, ids)
}

func TestGetNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRejectsBadIDs(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Save(context.Background(), paper.RawDocument{ID: "../escape"}))
	assert.Error(t, s.Save(context.Background(), paper.RawDocument{}))
	_, err = s.Get(context.Background(), "a/b")
	assert.Error(t, err)
}

func TestListEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
