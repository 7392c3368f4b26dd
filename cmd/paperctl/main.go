// Command paperctl chunks paper files locally, and imports files or PMC
// articles into a paper store.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/parser"
)

var (
	separator   string
	pdfFallback bool
)

var rootCmd = &cobra.Command{
	Use:           "paperctl",
	Short:         "Section-aware chunking for scientific papers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&separator, "separator", chunker.DefaultSeparator, "section separator line for .txt files")
	rootCmd.PersistentFlags().BoolVar(&pdfFallback, "pdftotext", true, "fall back to pdftotext when a PDF cannot be read")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newChunker builds a chunker from the CHUNK_* environment and profile file.
func newChunker() (*chunker.Chunker, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cc := cfg.ChunkerConfig()
	cc.Separator = separator
	return chunker.New(cc)
}

// parseFile reads path into a raw paper whose id is the file name without extension.
func parseFile(path string) (paper.RawDocument, error) {
	p, err := parser.ForFile(path, parser.Options{Separator: separator, PDFFallback: pdfFallback})
	if err != nil {
		return paper.RawDocument{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return paper.RawDocument{}, err
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return paper.RawDocument{}, fmt.Errorf("parse %s: %w", path, err)
	}
	base := filepath.Base(path)
	doc.ID = strings.TrimSuffix(base, filepath.Ext(base))
	return *doc, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
