// Package search ranks catalog themes against free-text queries.
//
// Matching is a case-insensitive substring test over theme titles in both
// languages and, for themes with no title hit, over their bodies. Scores
// fall in fixed tiers with no partial credit inside a tier.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/dgallion1/themeindex/internal/catalog"
)

// Score tiers.
const (
	TierExact  = 10000
	TierPrefix = 5000
	TierTitle  = 1000
	TierBody   = 100
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// MatchType reports which field a result matched on.
type MatchType string

const (
	MatchTitle   MatchType = "title"
	MatchContent MatchType = "content"
)

// Catalog is the read side of the theme catalog the engine needs.
type Catalog interface {
	ListAllThemesWithBook(ctx context.Context) ([]catalog.ThemeWithBook, error)
}

// Query describes one search request. Zero Grade and empty Subject mean
// no filter.
type Query struct {
	Text    string `json:"q"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	Grade   int    `json:"grade,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Result is one ranked theme. Title is in the query's language when the
// theme has it; OtherTitle carries the other language.
type Result struct {
	ThemeID    string       `json:"theme_id"`
	BookID     string       `json:"book_id"`
	Title      string       `json:"title"`
	OtherTitle string       `json:"other_title,omitempty"`
	Score      int          `json:"score"`
	MatchType  MatchType    `json:"match_type"`
	Language   catalog.Lang `json:"language"`
	Subject    string       `json:"subject"`
	Grade      int          `json:"grade"`
	BookTitle  string       `json:"book_title"`
	StartPage  int          `json:"start_page"`
	EndPage    int          `json:"end_page"`
}

// Page is one window of results.
type Page struct {
	Results  []Result     `json:"results"`
	HasMore  bool         `json:"has_more"`
	Total    int          `json:"total"`
	Language catalog.Lang `json:"language"`
}

// Engine is stateless; it reads the catalog on every call.
type Engine struct {
	catalog Catalog
}

func NewEngine(c Catalog) *Engine {
	return &Engine{catalog: c}
}

// Search returns the requested window of matches. A query with no matches
// yields an empty page. Catalog errors are returned as is.
func (e *Engine) Search(ctx context.Context, q Query) (Page, error) {
	q = q.normalized()
	lang := DetectLanguage(q.Text)
	page := Page{Results: []Result{}, Language: lang}

	needle := fold(strings.TrimSpace(q.Text))
	if needle == "" {
		return page, nil
	}

	rows, err := e.catalog.ListAllThemesWithBook(ctx)
	if err != nil {
		return Page{}, err
	}

	subject := fold(strings.TrimSpace(q.Subject))
	var matched []Result
	for _, row := range rows {
		if q.Grade != 0 && row.Book.Grade != q.Grade {
			continue
		}
		if subject != "" && !strings.Contains(fold(row.Book.Subject), subject) {
			continue
		}
		score, mt := Score(needle, row.Theme)
		if score == 0 {
			continue
		}
		matched = append(matched, newResult(row, score, mt, lang))
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score > matched[j].Score })

	page.Total = len(matched)
	if q.Offset >= len(matched) {
		return page, nil
	}
	window := matched[q.Offset:min(q.Offset+q.Limit+1, len(matched))]
	if len(window) > q.Limit {
		page.HasMore = true
		window = window[:q.Limit]
	}
	page.Results = window
	return page, nil
}

// Score rates one theme against an already folded needle. Bodies are only
// consulted when no title matched.
func Score(needle string, th catalog.Theme) (int, MatchType) {
	best := 0
	for _, lang := range catalog.Langs {
		title := fold(th.Title.Get(lang))
		if title == "" {
			continue
		}
		switch {
		case title == needle:
			best = max(best, TierExact)
		case strings.HasPrefix(title, needle):
			best = max(best, TierPrefix)
		case strings.Contains(title, needle):
			best = max(best, TierTitle)
		}
	}
	if best > 0 {
		return best, MatchTitle
	}
	for _, lang := range catalog.Langs {
		if body := th.Body.Get(lang); body != "" && strings.Contains(fold(body), needle) {
			return TierBody, MatchContent
		}
	}
	return 0, ""
}

// Suggest returns up to limit distinct theme titles, in either language,
// that start with prefix.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	needle := fold(strings.TrimSpace(prefix))
	out := []string{}
	if needle == "" {
		return out, nil
	}

	rows, err := e.catalog.ListAllThemesWithBook(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, lang := range catalog.Langs {
			title := row.Theme.Title.Get(lang)
			key := fold(title)
			if title == "" || seen[key] || !strings.HasPrefix(key, needle) {
				continue
			}
			seen[key] = true
			out = append(out, title)
			if len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

func newResult(row catalog.ThemeWithBook, score int, mt MatchType, lang catalog.Lang) Result {
	th, b := row.Theme, row.Book
	r := Result{
		ThemeID:   th.ID,
		BookID:    th.BookID,
		Title:     th.Title.Preferred(lang),
		Score:     score,
		MatchType: mt,
		Language:  lang,
		Subject:   b.Subject,
		Grade:     b.Grade,
		BookTitle: b.Title.Preferred(lang),
		StartPage: th.StartPage,
		EndPage:   th.EndPage,
	}
	if other := th.Title.Get(lang.Other()); other != r.Title {
		r.OtherTitle = other
	}
	return r
}
