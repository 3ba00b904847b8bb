package document

import (
	"strings"
	"unicode/utf8"
)

// Block is a paragraph or heading from a flow-layout source (Markdown,
// HTML, DOCX) that has no native pagination.
type Block struct {
	Text  string
	Level int // Heading level 1-6, 0 for body text
}

// PaginateOptions controls how flow-layout blocks are cut into pages.
type PaginateOptions struct {
	PageRunes    int     // Approximate page capacity in runes
	BodyFontSize float64 // Font size assigned to body lines
}

// DefaultPaginateOptions approximates a printed textbook page.
func DefaultPaginateOptions() PaginateOptions {
	return PaginateOptions{PageRunes: 2500, BodyFontSize: 11}
}

// headingFontSize maps a heading level to a synthetic font size.
func headingFontSize(level int, body float64) float64 {
	switch level {
	case 1:
		return body * 1.8
	case 2:
		return body * 1.5
	case 3:
		return body * 1.3
	default:
		return body * 1.2
	}
}

// Paginate lays blocks out on synthetic pages. A level-1 heading always
// opens a new page. Every heading becomes an outline entry.
func Paginate(blocks []Block, opts PaginateOptions) *Memory {
	if opts.PageRunes <= 0 {
		opts.PageRunes = 2500
	}
	if opts.BodyFontSize <= 0 {
		opts.BodyFontSize = 11
	}

	var (
		pages   []Page
		outline []OutlineEntry
		current Page
		used    int
	)
	flush := func() {
		if len(current.Lines) > 0 {
			pages = append(pages, current)
		}
		current = Page{}
		used = 0
	}

	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		n := utf8.RuneCountInString(text)
		if b.Level == 1 || (used > 0 && used+n > opts.PageRunes) {
			flush()
		}

		size := opts.BodyFontSize
		if b.Level > 0 {
			size = headingFontSize(b.Level, opts.BodyFontSize)
			outline = append(outline, OutlineEntry{
				Level: b.Level,
				Title: text,
				Page:  len(pages) + 1,
			})
		}
		for _, raw := range strings.Split(text, "\n") {
			t := strings.TrimSpace(raw)
			if t == "" {
				continue
			}
			current.Lines = append(current.Lines, Line{
				Text:     t,
				FontSize: size,
				Y:        float64(len(current.Lines)),
			})
		}
		used += n
	}
	flush()

	return &Memory{Pages: pages, Entries: outline}
}
