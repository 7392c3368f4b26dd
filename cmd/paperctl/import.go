package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/store/jsonstore"
	"github.com/dgallion1/papergest/internal/store/sqlitestore"
)

var (
	storeDir    string
	storeSQLite string
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Parse paper files and save them into a paper store",
	Long: `Parses each file into sections and saves it under its file name
(without extension) as the doc id. Existing papers with the same id are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&storeDir, "store-dir", "./pmc_articles", "JSON paper folder")
	importCmd.Flags().StringVar(&storeSQLite, "sqlite", "", "SQLite paper database (overrides --store-dir)")
	rootCmd.AddCommand(importCmd)
}

type importResult struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title,omitempty"`
	Sections int    `json:"sections"`
	Error    string `json:"error,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	repo, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	ctx := context.Background()
	results := make([]importResult, 0, len(args))
	failed := 0
	for _, path := range args {
		doc, err := parseFile(path)
		if err == nil {
			err = store.ValidateID(doc.ID)
		}
		if err == nil && len(doc.Segments) == 0 {
			err = errors.New("no extractable content")
		}
		if err == nil {
			err = repo.Save(ctx, doc)
		}
		if err != nil {
			failed++
			results = append(results, importResult{DocID: doc.ID, Error: fmt.Sprintf("%s: %s", path, err)})
			continue
		}
		results = append(results, importResult{DocID: doc.ID, Title: doc.Title, Sections: len(doc.Segments)})
	}
	if err := printJSON(cmd, map[string]any{"imported": results}); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func openRepository() (store.Repository, func(), error) {
	if storeSQLite != "" {
		s, err := sqlitestore.Open(storeSQLite)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	s, err := jsonstore.New(storeDir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}
