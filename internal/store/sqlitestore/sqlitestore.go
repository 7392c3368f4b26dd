// Package sqlitestore keeps papers in a single SQLite table.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	doc_id     TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT '',
	sections   TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store is a SQLite-backed paper repository.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Repository = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating papers table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, docID string) (paper.RawDocument, error) {
	if err := store.ValidateID(docID); err != nil {
		return paper.RawDocument{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT doc_id, title, source_url, created_at, sections FROM papers WHERE doc_id = ?`, docID)

	var doc paper.RawDocument
	var sections string
	err := row.Scan(&doc.ID, &doc.Title, &doc.SourceURL, &doc.CreatedAt, &sections)
	if errors.Is(err, sql.ErrNoRows) {
		return paper.RawDocument{}, fmt.Errorf("%s: %w", docID, store.ErrNotFound)
	}
	if err != nil {
		return paper.RawDocument{}, fmt.Errorf("query paper %s: %w", docID, err)
	}
	if err := json.Unmarshal([]byte(sections), &doc.Segments); err != nil {
		return paper.RawDocument{}, fmt.Errorf("decode sections of %s: %w", docID, err)
	}
	return doc, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id FROM papers ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan doc id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Save inserts doc or replaces the paper with the same id.
func (s *Store) Save(ctx context.Context, doc paper.RawDocument) error {
	if err := store.ValidateID(doc.ID); err != nil {
		return err
	}
	segs := doc.Segments
	if segs == nil {
		segs = []paper.Segment{}
	}
	sections, err := json.Marshal(segs)
	if err != nil {
		return fmt.Errorf("encode sections of %s: %w", doc.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO papers (doc_id, title, source_url, created_at, sections, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			title = excluded.title,
			source_url = excluded.source_url,
			created_at = excluded.created_at,
			sections = excluded.sections,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Title, doc.SourceURL, doc.CreatedAt, string(sections),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save paper %s: %w", doc.ID, err)
	}
	return nil
}
