package parser

import (
	"testing"

	"github.com/dgallion1/themeindex/internal/document"
)

func TestParseMarkdown_OutlineAndPages(t *testing.T) {
	input := `# Chapter One

Intro text.

## Part A

Body A.

# Chapter Two

Body two.
`
	doc, err := OpenBytes([]byte(input), "book.md", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()

	// Each level-1 heading opens a page.
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}

	outline, err := doc.Outline()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []document.OutlineEntry{
		{Level: 1, Title: "Chapter One", Page: 1},
		{Level: 2, Title: "Part A", Page: 1},
		{Level: 1, Title: "Chapter Two", Page: 2},
	}
	if len(outline) != len(want) {
		t.Fatalf("expected %d outline entries, got %d: %+v", len(want), len(outline), outline)
	}
	for i, w := range want {
		if outline[i] != w {
			t.Errorf("outline[%d]: expected %+v, got %+v", i, w, outline[i])
		}
	}

	lines, _ := doc.PageLines(0)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines on page 0, got %d", len(lines))
	}
	if lines[0].Text != "Chapter One" {
		t.Errorf("expected heading line first, got %q", lines[0].Text)
	}
	if lines[0].FontSize <= lines[1].FontSize {
		t.Errorf("expected heading font %v to exceed body font %v", lines[0].FontSize, lines[1].FontSize)
	}
	if lines[1].Text != "Intro text." {
		t.Errorf("expected %q, got %q", "Intro text.", lines[1].Text)
	}
}

func TestParseMarkdown_NoHeadings(t *testing.T) {
	doc, err := OpenBytes([]byte("Just a paragraph.\n\nAnd another one."), "plain.md", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()

	outline, _ := doc.Outline()
	if len(outline) != 0 {
		t.Errorf("expected empty outline, got %d entries", len(outline))
	}
	text, _ := doc.PageText(0)
	if text != "Just a paragraph.\nAnd another one." {
		t.Errorf("unexpected page text %q", text)
	}
}

func TestParseHTML_Headings(t *testing.T) {
	input := `<html><head><title>Book</title><style>p{}</style></head>
<body><h1>1-bob. Sonlar</h1><p>Hello world</p><h2>Sub topic</h2><p>More text</p>
<script>var x = 1;</script></body></html>`
	doc, err := OpenBytes([]byte(input), "book.html", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer doc.Close()

	outline, _ := doc.Outline()
	if len(outline) != 2 {
		t.Fatalf("expected 2 outline entries, got %d", len(outline))
	}
	if outline[0].Title != "1-bob. Sonlar" || outline[0].Level != 1 {
		t.Errorf("unexpected first entry %+v", outline[0])
	}
	if outline[1].Level != 2 {
		t.Errorf("expected level 2, got %d", outline[1].Level)
	}
	text, _ := doc.PageText(0)
	if text != "1-bob. Sonlar\nHello world\nSub topic\nMore text" {
		t.Errorf("unexpected page text %q", text)
	}
}

func TestPaginate_SplitsLongBody(t *testing.T) {
	opts := document.PaginateOptions{PageRunes: 20, BodyFontSize: 10}
	doc := document.Paginate([]document.Block{
		{Text: "0123456789abcdef"},
		{Text: "0123456789abcdef"},
		{Text: "short"},
	}, opts)
	if doc.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.PageCount())
	}
}
