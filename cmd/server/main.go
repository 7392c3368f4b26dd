package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/papergest/internal/answer"
	"github.com/dgallion1/papergest/internal/api"
	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/embed"
	"github.com/dgallion1/papergest/internal/pipeline"
	"github.com/dgallion1/papergest/internal/retrieval"
	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/store/jsonstore"
	"github.com/dgallion1/papergest/internal/store/sqlitestore"
	"github.com/dgallion1/papergest/internal/vectorstore"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize collaborators.
	papers, closePapers, err := openPapers(cfg)
	if err != nil {
		log.Error("open paper store", "error", err)
		os.Exit(1)
	}
	defer closePapers()

	ch, err := chunker.New(cfg.ChunkerConfig())
	if err != nil {
		log.Error("invalid chunk profile", "error", err)
		os.Exit(1)
	}

	emb, err := embed.New(embed.Options{
		Provider:  cfg.EmbedProvider,
		Model:     cfg.EmbedModel,
		URL:       cfg.EmbedURL,
		APIKey:    cfg.EmbedAPIKey,
		Dimension: cfg.HashDimension,
		CacheSize: cfg.EmbedCacheSize,
	})
	if err != nil {
		log.Error("create embedder", "error", err)
		os.Exit(1)
	}

	vectors, err := openVectors(cfg, emb)
	if err != nil {
		log.Error("open vector store", "error", err)
		os.Exit(1)
	}

	stats := answer.NewLLMStats(time.Hour)
	var gen answer.Generator
	var claude *answer.ClaudeClient
	if cfg.AnthropicAPIKey != "" {
		claude = answer.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, stats)
		gen = claude
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, /api/query is disabled")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, papers, ch, emb, vectors, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Chunker:      ch,
		Papers:       papers,
		Orchestrator: orch,
		Retrieval:    retrieval.NewService(emb, vectors, gen, log),
		Stats:        stats,
		AnswerModel:  cfg.AnthropicModel,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if claude != nil {
			claude.Close()
		}
	}()

	log.Info("starting papergest",
		"port", cfg.Port,
		"paper_store", cfg.PaperStore,
		"embedder", emb.Name(),
		"vector_store", cfg.VectorStore,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func openPapers(cfg config.Config) (store.Repository, func(), error) {
	switch cfg.PaperStore {
	case "sqlite":
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "json":
		s, err := jsonstore.New(cfg.PaperDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown paper store %q", cfg.PaperStore)
}

func openVectors(cfg config.Config, emb embed.Embedder) (vectorstore.Store, error) {
	switch cfg.VectorStore {
	case "qdrant":
		return vectorstore.NewQdrant(vectorstore.QdrantConfig{
			URL:    cfg.QdrantURL,
			APIKey: cfg.QdrantAPIKey,
		}), nil
	case "chromem":
		return vectorstore.NewChromem(cfg.ChromemDir, embed.EmbeddingFunc(emb))
	}
	return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
}
