package segment

import (
	"fmt"
	"unicode/utf8"

	"github.com/dgallion1/themeindex/internal/document"
)

// DefaultBodySize is assumed when a sample has no measurable text.
const DefaultBodySize = 12.0

// minSampleRunes excludes page numbers, labels and other short runs.
const minSampleRunes = 10

// Profile is a document's body font size and the derived heading threshold.
type Profile struct {
	BodySize  float64 `json:"body_size"`
	Threshold float64 `json:"threshold"`
	Samples   int     `json:"samples"`
}

// IsHeadingSize reports whether size reaches the heading threshold. Lines
// without font metrics never do.
func (p Profile) IsHeadingSize(size float64) bool {
	return size > 0 && p.Threshold > 0 && size >= p.Threshold
}

// SampleProfile averages the font size of lines longer than ten runes over
// the first sampleSize pages.
func SampleProfile(doc document.Document, sampleSize int, factor float64) (Profile, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultConfig().SampleSize
	}
	if factor <= 0 {
		factor = DefaultConfig().HeadingFactor
	}

	pages := min(sampleSize, doc.PageCount())
	var (
		sum   float64
		count int
	)
	for p := range pages {
		lines, err := doc.PageLines(p)
		if err != nil {
			return Profile{}, fmt.Errorf("sample fonts: %w", err)
		}
		for _, l := range lines {
			if l.FontSize > 0 && utf8.RuneCountInString(l.Text) > minSampleRunes {
				sum += l.FontSize
				count++
			}
		}
	}

	body := DefaultBodySize
	if count > 0 {
		body = sum / float64(count)
	}
	return Profile{BodySize: body, Threshold: body * factor, Samples: count}, nil
}
