package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papergest/internal/pmc"
)

var (
	fetchSearch   string
	fetchMax      int
	fetchDelay    time.Duration
	fetchSections string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [article-url]...",
	Short: "Download PubMed Central articles into a paper store",
	Long: `Downloads each article, keeps its target sections (Results and Discussion
by default) and saves it under its PMC id. Articles with none of the target
sections are skipped. With --search the article URLs are collected from the
numbered pages of a PMC search first.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSearch, "search", "", "PMC search URL to crawl, e.g. https://pmc.ncbi.nlm.nih.gov/search/?term=mental+health")
	fetchCmd.Flags().IntVar(&fetchMax, "max", 50, "maximum articles to collect from --search")
	fetchCmd.Flags().DurationVar(&fetchDelay, "delay", 1500*time.Millisecond, "pause between requests")
	fetchCmd.Flags().StringVar(&fetchSections, "sections", strings.Join(pmc.DefaultTargets, ","), "comma-separated target sections")
	fetchCmd.Flags().StringVar(&storeDir, "store-dir", "./pmc_articles", "JSON paper folder")
	fetchCmd.Flags().StringVar(&storeSQLite, "sqlite", "", "SQLite paper database (overrides --store-dir)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchSearch == "" && len(args) == 0 {
		return errors.New("give article urls or --search")
	}
	targets := splitSections(fetchSections)
	if len(targets) == 0 {
		return errors.New("--sections is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	s := pmc.NewScraper(nil, log)
	s.Delay = fetchDelay
	s.Targets = targets

	urls := args
	if fetchSearch != "" {
		found, err := s.CrawlArticleURLs(ctx, fetchSearch, fetchMax)
		if err != nil {
			return fmt.Errorf("crawl search: %w", err)
		}
		urls = append(urls, found...)
	}

	repo, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	sum, err := s.ScrapeAndStore(ctx, repo, urls)
	if perr := printJSON(cmd, sum); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d articles failed", sum.Failed, sum.CollectedURLs)
	}
	return nil
}

func splitSections(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
