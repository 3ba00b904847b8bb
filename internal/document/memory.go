package document

import "strings"

// Page is the in-memory representation of one page.
type Page struct {
	Lines []Line
}

// Text joins the page's lines with newlines.
func (p Page) Text() string {
	parts := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}

// Memory is a Document held entirely in memory. Text, Markdown, HTML and
// DOCX sources are materialized into it; tests build it directly.
type Memory struct {
	Pages   []Page
	Entries []OutlineEntry
	closed  bool
}

// NewMemory returns a Memory document over the given pages.
func NewMemory(pages []Page, outline []OutlineEntry) *Memory {
	return &Memory{Pages: pages, Entries: outline}
}

// FromTexts builds a Memory document with one page per string. Lines carry
// no font information.
func FromTexts(texts ...string) *Memory {
	pages := make([]Page, 0, len(texts))
	for _, t := range texts {
		pages = append(pages, Page{Lines: SplitLines(t, 0)})
	}
	return &Memory{Pages: pages}
}

// SplitLines turns raw page text into lines at a uniform font size.
func SplitLines(text string, fontSize float64) []Line {
	var lines []Line
	for i, raw := range strings.Split(text, "\n") {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		lines = append(lines, Line{Text: t, FontSize: fontSize, Y: float64(i)})
	}
	return lines
}

func (m *Memory) PageCount() int { return len(m.Pages) }

func (m *Memory) PageText(page int) (string, error) {
	if err := checkRange(page, len(m.Pages)); err != nil {
		return "", err
	}
	return m.Pages[page].Text(), nil
}

func (m *Memory) PageLines(page int) ([]Line, error) {
	if err := checkRange(page, len(m.Pages)); err != nil {
		return nil, err
	}
	return m.Pages[page].Lines, nil
}

func (m *Memory) Outline() ([]OutlineEntry, error) {
	return m.Entries, nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool { return m.closed }
