package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/dgallion1/themeindex/internal/document"
)

// linesPerPage paginates plain text that carries no form feeds.
const linesPerPage = 45

// parseText reads plain text. Form feeds separate pages; without them the
// text is cut every linesPerPage lines. Plain text has no font metrics.
func parseText(data []byte) (*document.Memory, error) {
	if bytes.ContainsRune(data, '\f') {
		return document.FromTexts(splitPages(string(data))...), nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		pages   []string
		current []string
	)
	for scanner.Scan() {
		current = append(current, scanner.Text())
		if len(current) == linesPerPage {
			pages = append(pages, strings.Join(current, "\n"))
			current = current[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 && strings.TrimSpace(strings.Join(current, "")) != "" {
		pages = append(pages, strings.Join(current, "\n"))
	}
	return document.FromTexts(pages...), nil
}
