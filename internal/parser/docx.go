package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/themeindex/internal/document"
	"github.com/fumiama/go-docx"
)

// parseDOCX reads paragraphs and their heading styles. Word pagination is
// not stored in the file, so pages are synthesized.
func parseDOCX(data []byte, opts document.PaginateOptions) (*document.Memory, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []document.Block
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		blocks = append(blocks, document.Block{Text: text, Level: docxHeadingLevel(para)})
	}
	return document.Paginate(blocks, opts), nil
}

// docxHeadingLevel recognizes "Heading1" style IDs as well as "heading 1"
// and "Title" display names.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
