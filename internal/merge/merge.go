// Package merge turns gated sections into catalog themes, pairing two
// language editions of a book by position.
package merge

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/content"
)

// Result holds the unified themes for one book.
type Result struct {
	Themes []catalog.Theme
	// Mismatch is set when the editions produced different section counts.
	// Themes are still aligned by index and the shorter side is padded.
	Mismatch bool
	CountUz  int
	CountRu  int
}

// Single builds themes from one edition.
func Single(bookID string, lang catalog.Lang, sections []content.Section) Result {
	res := Result{Themes: make([]catalog.Theme, 0, len(sections))}
	for i, s := range sections {
		th := newTheme(bookID, i)
		fill(&th, lang, s, i)
		th.StartPage, th.EndPage = s.StartPage, s.EndPage
		res.Themes = append(res.Themes, th)
	}
	if lang == catalog.LangRu {
		res.CountRu = len(sections)
	} else {
		res.CountUz = len(sections)
	}
	return res
}

// Bilingual aligns the uz and ru editions by index up to the longer of the
// two. Each language's fields come from its own edition; the page range
// comes from the uz edition when it has a section at that index. A padded
// theme gets a "Section N" title for the language it has no section in.
func Bilingual(bookID string, uz, ru []content.Section) Result {
	n := max(len(uz), len(ru))
	res := Result{
		Themes:   make([]catalog.Theme, 0, n),
		Mismatch: len(uz) != len(ru),
		CountUz:  len(uz),
		CountRu:  len(ru),
	}
	for i := range n {
		th := newTheme(bookID, i)
		ranged := false
		if i < len(uz) {
			fill(&th, catalog.LangUz, uz[i], i)
			th.StartPage, th.EndPage = uz[i].StartPage, uz[i].EndPage
			ranged = true
		}
		if i < len(ru) {
			fill(&th, catalog.LangRu, ru[i], i)
			if !ranged {
				th.StartPage, th.EndPage = ru[i].StartPage, ru[i].EndPage
			}
		}
		for _, lang := range catalog.Langs {
			if !th.Title.Has(lang) {
				th.Title.Set(lang, sectionTitle(i))
			}
		}
		res.Themes = append(res.Themes, th)
	}
	return res
}

func newTheme(bookID string, i int) catalog.Theme {
	return catalog.Theme{
		BookID:       bookID,
		OrderIndex:   i + 1,
		ChapterLabel: strconv.Itoa(i + 1),
	}
}

func fill(th *catalog.Theme, lang catalog.Lang, s content.Section, i int) {
	title := s.Title
	if title == "" {
		title = sectionTitle(i)
	}
	th.Title.Set(lang, title)
	th.Body.Set(lang, s.Body)
}

func sectionTitle(i int) string {
	return fmt.Sprintf("Section %d", i+1)
}
