// Package pmc downloads PubMed Central articles and keeps only their target
// sections, in the stored paper layout.
package pmc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/store"
)

// DefaultTargets are the sections an article must have at least one of.
var DefaultTargets = []string{"Results", "Discussion"}

// ErrNoTargetSections means the article had none of the target sections with text.
var ErrNoTargetSections = errors.New("no target sections found")

const (
	unknownTitle = "Unknown Article Title"
	maxPageBytes = 16 << 20
	userAgent    = "papergest/1.0 (+https://github.com/dgallion1/papergest)"
)

var pmcID = regexp.MustCompile(`PMC\d+`)

// Scraper crawls PMC search pages and scrapes articles one at a time,
// pausing Delay between requests.
type Scraper struct {
	client  *http.Client
	log     *slog.Logger
	Delay   time.Duration
	Targets []string
	now     func() time.Time
}

func NewScraper(client *http.Client, log *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scraper{
		client:  client,
		log:     log,
		Delay:   1500 * time.Millisecond,
		Targets: DefaultTargets,
		now:     time.Now,
	}
}

// Summary counts the outcome of a ScrapeAndStore run.
type Summary struct {
	CollectedURLs int `json:"collected_urls"`
	Successful    int `json:"successful"`
	Skipped       int `json:"skipped_no_target_sections"`
	Failed        int `json:"failed"`
}

// CrawlArticleURLs walks the numbered result pages of searchURL and returns
// up to limit unique article links. It stops at the first page with no new links.
func (s *Scraper) CrawlArticleURLs(ctx context.Context, searchURL string, limit int) ([]string, error) {
	base, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}

	seen := make(map[string]bool)
	var urls []string
	for page := 1; len(urls) < limit; page++ {
		if page > 1 {
			if err := s.pause(ctx); err != nil {
				return urls, err
			}
		}
		pageURL := *base
		q := pageURL.Query()
		q.Set("page", strconv.Itoa(page))
		pageURL.RawQuery = q.Encode()

		doc, err := s.fetch(ctx, pageURL.String())
		if err != nil {
			return urls, fmt.Errorf("search page %d: %w", page, err)
		}

		added := 0
		for _, result := range findAll(doc, classed("div", "docsum-wrap")) {
			link := find(result, classed("a", "docsum-link"))
			if link == nil {
				continue
			}
			href := attr(link, "href")
			ref, err := url.Parse(href)
			if href == "" || err != nil {
				continue
			}
			full := base.ResolveReference(ref).String()
			if seen[full] {
				continue
			}
			seen[full] = true
			urls = append(urls, full)
			added++
			if len(urls) >= limit {
				break
			}
		}
		s.log.Info("crawled search page", "page", page, "new_urls", added, "total", len(urls))
		if added == 0 {
			break
		}
	}
	return urls, nil
}

// Scrape downloads one article and returns it with the target sections that
// have paragraph text, in target order. The doc id is the PMC id in the URL,
// or a random UUID when the URL carries none.
func (s *Scraper) Scrape(ctx context.Context, articleURL string) (paper.RawDocument, error) {
	doc, err := s.fetch(ctx, articleURL)
	if err != nil {
		return paper.RawDocument{}, err
	}

	title := unknownTitle
	if h1 := find(doc, tagged("h1")); h1 != nil {
		if t := textContent(h1); t != "" {
			title = t
		}
	}

	var segments []paper.Segment
	for _, target := range s.Targets {
		text := sectionText(doc, target)
		if text == "" {
			s.log.Debug("target section not found", "url", articleURL, "section", target)
			continue
		}
		segments = append(segments, paper.Segment{Title: target, Order: len(segments), Text: text})
	}
	if len(segments) == 0 {
		return paper.RawDocument{}, ErrNoTargetSections
	}

	id := pmcID.FindString(articleURL)
	if id == "" {
		id = uuid.NewString()
	}
	return paper.RawDocument{
		ID:        id,
		Title:     title,
		SourceURL: articleURL,
		CreatedAt: s.now().Format("2006-01-02"),
		Segments:  segments,
	}, nil
}

// ScrapeAndStore scrapes each URL and saves the articles that keep at least
// one target section. Per-article failures are counted, not returned.
func (s *Scraper) ScrapeAndStore(ctx context.Context, repo store.Repository, urls []string) (Summary, error) {
	sum := Summary{CollectedURLs: len(urls)}
	for i, u := range urls {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return sum, err
			}
		}
		log := s.log.With("url", u, "n", i+1, "of", len(urls))

		doc, err := s.Scrape(ctx, u)
		if err == nil {
			err = repo.Save(ctx, doc)
		}
		switch {
		case errors.Is(err, ErrNoTargetSections):
			sum.Skipped++
			log.Info("skipped article", "reason", err)
		case err != nil:
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
			log.Warn("article failed", "error", err)
		default:
			sum.Successful++
			log.Info("stored article", "doc_id", doc.ID, "sections", len(doc.Segments))
		}
	}
	return sum, nil
}

func (s *Scraper) fetch(ctx context.Context, u string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: %s", u, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u, err)
	}
	return doc, nil
}

func (s *Scraper) pause(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sectionText joins the paragraphs under the first section heading that
// mentions target, case-insensitively.
func sectionText(doc *html.Node, target string) string {
	want := strings.ToLower(target)
	h2 := find(doc, func(n *html.Node) bool {
		return classed("h2", "pmc_sec_title")(n) && strings.Contains(strings.ToLower(textContent(n)), want)
	})
	if h2 == nil || h2.Parent == nil {
		return ""
	}
	var parts []string
	for _, p := range findAll(h2.Parent, tagged("p")) {
		if t := textContent(p); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func tagged(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func classed(tag, class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != tag {
			return false
		}
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c, match); m != nil {
			return m
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
