package content

import (
	"fmt"
	"unicode/utf8"

	"github.com/dgallion1/themeindex/internal/document"
	"github.com/dgallion1/themeindex/internal/segment"
)

// Section is a candidate with its final page range and body.
type Section struct {
	Title     string         `json:"title"`
	StartPage int            `json:"start_page"`
	EndPage   int            `json:"end_page"`
	Body      string         `json:"body"`
	Source    segment.Source `json:"source"`
}

// Report is the outcome of gating one document's candidates.
type Report struct {
	Sections []Section `json:"sections"`
	Dropped  int       `json:"dropped"`
}

// Gate extracts bodies for candidates and drops degenerate ones.
type Gate struct {
	MaxChars int // Body budget in runes
	MinChars int // Minimum viable body length in runes
}

// DefaultGate returns the document-extraction defaults.
func DefaultGate() Gate {
	return Gate{MaxChars: 8000, MinChars: 50}
}

// Sections builds bodies for contiguous candidates. A candidate whose body
// is shorter than MinChars or unreadable is dropped and its pages fold into
// the previous kept section, or into the next one when nothing is kept
// yet, so the surviving sections still cover the document.
func (g Gate) Sections(doc document.Document, cands []segment.Candidate) (Report, error) {
	var (
		rep          Report
		pendingStart = -1
	)
	for _, c := range cands {
		start := c.StartPage
		if len(rep.Sections) == 0 && pendingStart >= 0 {
			start = pendingStart
		}

		body, err := g.Body(doc, start, c.EndPage)
		if err != nil {
			return Report{}, err
		}
		if g.viable(body) {
			rep.Sections = append(rep.Sections, Section{
				Title:     c.Title,
				StartPage: start,
				EndPage:   c.EndPage,
				Body:      body,
				Source:    c.Source,
			})
			continue
		}

		rep.Dropped++
		if len(rep.Sections) == 0 {
			if pendingStart < 0 {
				pendingStart = start
			}
			continue
		}
		last := &rep.Sections[len(rep.Sections)-1]
		last.EndPage = c.EndPage
		if last.Body, err = g.Body(doc, last.StartPage, last.EndPage); err != nil {
			return Report{}, err
		}
	}
	return rep, nil
}

// Body returns the normalized text of pages [start, end].
func (g Gate) Body(doc document.Document, start, end int) (string, error) {
	pages := make([]string, 0, end-start+1)
	for p := start; p <= end; p++ {
		text, err := doc.PageText(p)
		if err != nil {
			return "", fmt.Errorf("extract pages %d-%d: %w", start, end, err)
		}
		pages = append(pages, text)
	}
	return Normalize(pages, g.MaxChars), nil
}

func (g Gate) viable(body string) bool {
	return utf8.RuneCountInString(body) >= g.MinChars && Readable(body)
}
