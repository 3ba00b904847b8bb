// Package document defines the paginated text source consumed by the
// segmentation pipeline.
package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadable marks a document that cannot be opened or whose pages
	// cannot be read. Segmentation of that document aborts.
	ErrUnreadable = errors.New("unreadable document")

	// ErrEmptyDocument is returned for documents with no pages.
	ErrEmptyDocument = errors.New("document has no pages")
)

// Line is one visual line of a page.
type Line struct {
	Text     string  // Line text, trimmed
	FontSize float64 // Largest font size on the line, 0 when unknown
	Y        float64 // Vertical offset from the top of the page; smaller is higher
}

// OutlineEntry is one bookmark of an embedded outline.
type OutlineEntry struct {
	Level int    // Nesting depth, 1 for top level
	Title string // Bookmark text
	Page  int    // Target page, 1-indexed
}

// Document is an opaque paginated text source. Pages are 0-indexed.
// Implementations are owned by a single segmentation run and must be
// closed when the run ends.
type Document interface {
	PageCount() int
	PageText(page int) (string, error)
	// PageLines returns the page's lines ordered top to bottom.
	PageLines(page int) ([]Line, error)
	// Outline returns the embedded outline, or nil when the source has none.
	Outline() ([]OutlineEntry, error)
	Close() error
}

// PageError reports a failed page access.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() []error {
	return []error{ErrUnreadable, e.Err}
}

func checkRange(page, count int) error {
	if page < 0 || page >= count {
		return &PageError{Page: page, Err: fmt.Errorf("out of range [0,%d)", count)}
	}
	return nil
}
