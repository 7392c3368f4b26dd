package parser

import (
	"bytes"
	"testing"

	"github.com/fumiama/go-docx"
)

func buildDocx(t *testing.T, build func(w *docx.Docx)) *bytes.Buffer {
	t.Helper()
	w := docx.New().WithDefaultTheme()
	build(w)
	buf := new(bytes.Buffer)
	if _, err := w.WriteTo(buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf
}

func TestDOCXParser_HeadingStyles(t *testing.T) {
	buf := buildDocx(t, func(w *docx.Docx) {
		w.AddParagraph().Style("Title").AddText("Sleep study")
		w.AddParagraph().Style("Heading1").AddText("Results")
		w.AddParagraph().AddText("Mood improved.")
		w.AddParagraph().Style("Heading2").AddText("Subgroups")
		w.AddParagraph().AddText("Older adults improved.")
		w.AddParagraph().Style("Heading1").AddText("Discussion")
		w.AddParagraph().AddText("Sleep matters.")
	})

	p := &DOCXParser{}
	doc, err := p.Parse(buf, "sleep.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Sleep study" {
		t.Errorf("expected title %q, got %q", "Sleep study", doc.Title)
	}

	want := []struct{ title, text string }{
		{"Results", "Mood improved.\n\nSubgroups\n\nOlder adults improved."},
		{"Discussion", "Sleep matters."},
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

func TestDOCXParser_NoTitleUsesFilename(t *testing.T) {
	buf := buildDocx(t, func(w *docx.Docx) {
		w.AddParagraph().Style("Heading1").AddText("Discussion")
		w.AddParagraph().AddText("Walking helps.")
	})

	doc, err := (&DOCXParser{}).Parse(buf, "PMC42.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "PMC42" {
		t.Errorf("expected title %q, got %q", "PMC42", doc.Title)
	}
	if len(doc.Segments) != 1 || doc.Segments[0].Title != "Discussion" {
		t.Errorf("unexpected segments: %+v", doc.Segments)
	}
}

func TestDOCXHeadingLevel(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	tests := []struct {
		style string
		want  int
	}{
		{"", 0},
		{"Title", 1},
		{"Heading1", 1},
		{"heading 3", 3},
		{"Heading7", 0},
		{"Normal", 0},
	}
	for _, tt := range tests {
		para := w.AddParagraph()
		if tt.style != "" {
			para.Style(tt.style)
		}
		if got := docxHeadingLevel(para); got != tt.want {
			t.Errorf("style %q: expected level %d, got %d", tt.style, tt.want, got)
		}
	}
}

func TestDOCXParser_InvalidFile(t *testing.T) {
	if _, err := (&DOCXParser{}).Parse(bytes.NewBufferString("not a zip"), "broken.docx"); err == nil {
		t.Fatal("expected an error for a file that is not a docx")
	}
}
