// Package catalog stores books and their themes.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a book or theme does not exist.
var ErrNotFound = errors.New("not found")

// Lang identifies one of the two supported editions.
type Lang string

const (
	LangUz Lang = "uz"
	LangRu Lang = "ru"
)

// Langs lists supported languages in their default display order.
var Langs = []Lang{LangUz, LangRu}

// ParseLang accepts "uz" or "ru" in any case.
func ParseLang(s string) (Lang, error) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case LangUz:
		return LangUz, nil
	case LangRu:
		return LangRu, nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Other returns the opposite language.
func (l Lang) Other() Lang {
	if l == LangRu {
		return LangUz
	}
	return LangRu
}

// Localized holds one optional value per language.
type Localized struct {
	Uz *string `json:"uz,omitempty" yaml:"uz,omitempty"`
	Ru *string `json:"ru,omitempty" yaml:"ru,omitempty"`
}

// Get returns the value for lang, or "".
func (l Localized) Get(lang Lang) string {
	var p *string
	switch lang {
	case LangUz:
		p = l.Uz
	case LangRu:
		p = l.Ru
	}
	if p == nil {
		return ""
	}
	return *p
}

// Set stores v for lang. An empty v clears the value.
func (l *Localized) Set(lang Lang, v string) {
	var p *string
	if v != "" {
		p = &v
	}
	switch lang {
	case LangUz:
		l.Uz = p
	case LangRu:
		l.Ru = p
	}
}

// Has reports whether lang has a value.
func (l Localized) Has(lang Lang) bool {
	return l.Get(lang) != ""
}

// Preferred returns the value for lang, falling back to the other language.
func (l Localized) Preferred(lang Lang) string {
	if v := l.Get(lang); v != "" {
		return v
	}
	return l.Get(lang.Other())
}

// Theme is a persisted chapter of a book.
type Theme struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	OrderIndex   int       `json:"order_index"`
	Title        Localized `json:"title"`
	Body         Localized `json:"body"`
	StartPage    int       `json:"start_page"`
	EndPage      int       `json:"end_page"`
	ChapterLabel string    `json:"chapter_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the invariants every stored theme satisfies.
func (t *Theme) Validate() error {
	switch {
	case t.BookID == "":
		return errors.New("theme: book id is required")
	case t.OrderIndex < 1:
		return fmt.Errorf("theme: order index %d must be >= 1", t.OrderIndex)
	case t.StartPage < 0 || t.EndPage < t.StartPage:
		return fmt.Errorf("theme: invalid page range %d-%d", t.StartPage, t.EndPage)
	case !t.Title.Has(LangUz) && !t.Title.Has(LangRu):
		return errors.New("theme: title is required in at least one language")
	}
	return nil
}

// Book is the parent of an ordered set of themes.
type Book struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Grade     int       `json:"grade"`
	Title     Localized `json:"title"`
	Source    Localized `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// ThemeWithBook pairs a theme with its owning book.
type ThemeWithBook struct {
	Theme Theme
	Book  Book
}
