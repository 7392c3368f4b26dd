package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/store/jsonstore"
	"github.com/dgallion1/papergest/internal/store/sqlitestore"
)

const studyText = `Results
Treated cells grew twice as fast.

=== SECTION ===
Discussion
Growth suggests the pathway is active.
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	chunkTitle, separator, pdfFallback = "", chunker.DefaultSeparator, true
	storeDir, storeSQLite = "./pmc_articles", ""
	fetchSearch, fetchMax, fetchDelay, fetchSections = "", 50, 0, "Results,Discussion"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestChunkCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "PMC1.txt", studyText)

	out, err := run(t, "chunk", path, "--title", "Renamed")
	require.NoError(t, err)

	var got struct {
		DocumentID string        `json:"document_id"`
		Chunks     []paper.Chunk `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "PMC1", got.DocumentID)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "Renamed", got.Chunks[0].Metadata.Title)
	assert.Equal(t, "Results", got.Chunks[0].Metadata.Section)
	assert.Equal(t, "Discussion", got.Chunks[1].Metadata.Section)
}

func TestChunkCommandUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "a,b\n")
	_, err := run(t, "chunk", path)
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "A.txt", studyText)
	b := writeFile(t, dir, "B.txt", "")
	c := writeFile(t, dir, "C.md", "# Study C\n\n## Conclusion\n\nIt works.\n")

	out, err := run(t, "batch", a, b, filepath.Join(dir, "missing.txt"), c)
	require.NoError(t, err)

	var got struct {
		Results []map[string]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got.Results, 4)
	assert.Contains(t, got.Results[0], "chunks")
	assert.Contains(t, got.Results[1], "error", "an empty file has no sections")
	assert.Contains(t, got.Results[2], "error")
	assert.Contains(t, got.Results[3], "chunks")
	assert.JSONEq(t, `"C"`, string(got.Results[3]["document_id"]))
}

func TestImportJSONStore(t *testing.T) {
	src := t.TempDir()
	papersDir := filepath.Join(t.TempDir(), "papers")
	path := writeFile(t, src, "PMC7.txt", studyText)

	out, err := run(t, "import", path, "--store-dir", papersDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"doc_id": "PMC7"`)

	s, err := jsonstore.New(papersDir)
	require.NoError(t, err)
	doc, err := s.Get(context.Background(), "PMC7")
	require.NoError(t, err)
	assert.Equal(t, "PMC7", doc.Title, "plain text papers are titled after the file")
	assert.Len(t, doc.Segments, 2)
}

func TestImportSQLiteReportsFailures(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "papers.db")
	good := writeFile(t, src, "PMC8.txt", studyText)
	empty := writeFile(t, src, "blank.txt", "")

	out, err := run(t, "import", good, empty, "--sqlite", dbPath)
	assert.Error(t, err)
	assert.Contains(t, out, "no extractable content")

	s, err := sqlitestore.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"PMC8"}, ids)
}

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/":
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprint(w, `<div class="docsum-wrap"><a class="docsum-link" href="/articles/PMC11/">a</a></div>
<div class="docsum-wrap"><a class="docsum-link" href="/articles/PMC12/">b</a></div>`)
			}
		case "/articles/PMC11/":
			fmt.Fprint(w, `<h1>Sleep</h1><section><h2 class="pmc_sec_title">Results</h2><p>Better mood.</p></section>`)
		case "/articles/PMC12/":
			fmt.Fprint(w, `<h1>Protocol</h1><section><h2 class="pmc_sec_title">Methods</h2><p>Steps.</p></section>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCommandSearch(t *testing.T) {
	srv := articleServer(t)
	papersDir := filepath.Join(t.TempDir(), "papers")

	out, err := run(t, "fetch", "--search", srv.URL+"/search/?term=sleep", "--store-dir", papersDir)
	require.NoError(t, err, out)
	assert.JSONEq(t, `{"collected_urls":2,"successful":1,"skipped_no_target_sections":1,"failed":0}`, out)

	s, err := jsonstore.New(papersDir)
	require.NoError(t, err)
	doc, err := s.Get(context.Background(), "PMC11")
	require.NoError(t, err)
	assert.Equal(t, "Sleep", doc.Title)
	assert.Equal(t, srv.URL+"/articles/PMC11/", doc.SourceURL)
	require.Len(t, doc.Segments, 1)
	assert.Equal(t, "Better mood.", doc.Segments[0].Text)
}

func TestFetchCommandReportsFailures(t *testing.T) {
	srv := articleServer(t)
	dbPath := filepath.Join(t.TempDir(), "papers.db")

	out, err := run(t, "fetch", srv.URL+"/articles/PMC11/", srv.URL+"/articles/gone/", "--sqlite", dbPath)
	assert.Error(t, err)
	assert.Contains(t, out, `"failed": 1`)

	s, err := sqlitestore.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"PMC11"}, ids)
}

func TestFetchCommandNeedsURLs(t *testing.T) {
	_, err := run(t, "fetch")
	assert.Error(t, err)
}
