package parser

import (
	"strings"
	"testing"
)

func TestSegmentPDFText_PageBreaks(t *testing.T) {
	text := "Results\nCells grew.\fDiscussion\nGrowth was fast.\fIt was steady."
	doc := segmentPDFText(text, "paper")

	if doc.Title != "paper" {
		t.Errorf("expected title %q, got %q", "paper", doc.Title)
	}
	want := []struct{ title, text string }{
		{"Results", "Cells grew."},
		{"Discussion", "Growth was fast.\n\nIt was steady."},
	}
	if len(doc.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(doc.Segments), doc.Segments)
	}
	for i, w := range want {
		seg := doc.Segments[i]
		if seg.Title != w.title || seg.Text != w.text {
			t.Errorf("segment[%d]: expected %q/%q, got %q/%q", i, w.title, w.text, seg.Title, seg.Text)
		}
	}
}

func TestSegmentPDFText_NoFormFeedLeaks(t *testing.T) {
	doc := segmentPDFText("Abstract\nOne.\f\fTwo.", "paper")
	for _, seg := range doc.Segments {
		if strings.Contains(seg.Text, "\f") {
			t.Errorf("segment %q still contains a form feed: %q", seg.Title, seg.Text)
		}
	}
	if len(doc.Segments) != 1 || doc.Segments[0].Text != "One.\n\nTwo." {
		t.Errorf("unexpected segments: %+v", doc.Segments)
	}
}

func TestPDFParser_InvalidFile(t *testing.T) {
	p := &PDFParser{FallbackPdftotext: false}
	if _, err := p.Parse(strings.NewReader("not a pdf"), "broken.pdf"); err == nil {
		t.Fatal("expected an error for a file that is not a PDF")
	}
}
