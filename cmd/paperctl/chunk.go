package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/paper"
)

var chunkTitle string

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Chunk one paper file and print the chunks as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Chunk several paper files; a failing file does not stop the others",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	chunkCmd.Flags().StringVar(&chunkTitle, "title", "", "override the paper title")
	rootCmd.AddCommand(chunkCmd, batchCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	ch, err := newChunker()
	if err != nil {
		return err
	}
	doc, err := parseFile(args[0])
	if err != nil {
		return err
	}
	if chunkTitle != "" {
		doc.Title = chunkTitle
	}
	chunks, err := ch.Chunk(doc)
	if err != nil {
		return err
	}
	return printJSON(cmd, chunker.BatchResult{DocumentID: doc.ID, Chunks: chunks})
}

func runBatch(cmd *cobra.Command, args []string) error {
	ch, err := newChunker()
	if err != nil {
		return err
	}

	results := make([]chunker.BatchResult, len(args))
	var docs []paper.RawDocument
	var slots []int
	for i, path := range args {
		doc, err := parseFile(path)
		if err != nil {
			results[i] = chunker.BatchResult{DocumentID: path, Err: err}
			continue
		}
		docs = append(docs, doc)
		slots = append(slots, i)
	}
	for j, res := range ch.ChunkMany(docs) {
		results[slots[j]] = res
	}
	return printJSON(cmd, map[string]any{"results": results})
}
