package segment

import (
	"fmt"
	"unicode/utf8"

	"github.com/dgallion1/themeindex/internal/document"
)

const (
	minLabelRunes = 10
	maxLabelRunes = 80
	labelRatio    = 0.5
)

// Interval is the fallback chapter length in pages for a document size.
func Interval(pageCount int) int {
	switch {
	case pageCount < 30:
		return max(5, pageCount/4)
	case pageCount < 80:
		return 12
	case pageCount < 150:
		return 15
	default:
		return 20
	}
}

// fallback cuts the document into equal intervals and labels each from its
// first page.
func (s *Segmenter) fallback(doc document.Document) ([]Candidate, error) {
	n := doc.PageCount()
	step := Interval(n)

	var out []Candidate
	for i, start := 0, 0; start < n; i, start = i+1, start+step {
		label, size, err := boundaryLabel(doc, start)
		if err != nil {
			return nil, fmt.Errorf("label section: %w", err)
		}
		if label == "" {
			label = fmt.Sprintf("Section %d", i+1)
		}
		out = append(out, Candidate{
			Title:     label,
			StartPage: start,
			Source:    SourceFallback,
			FontSize:  size,
		})
	}
	return out, nil
}

// boundaryLabel picks the largest-font short line on a page. Earlier lines
// win ties.
func boundaryLabel(doc document.Document, page int) (string, float64, error) {
	lines, err := doc.PageLines(page)
	if err != nil {
		return "", 0, err
	}
	var (
		best     string
		bestSize = -1.0
	)
	for _, l := range lines {
		title := cleanTitle(l.Text)
		n := utf8.RuneCountInString(title)
		if n < minLabelRunes || n > maxLabelRunes {
			continue
		}
		if letterRatio(title, false) <= labelRatio {
			continue
		}
		if l.FontSize > bestSize {
			best, bestSize = title, l.FontSize
		}
	}
	if best == "" {
		return "", 0, nil
	}
	return best, bestSize, nil
}
