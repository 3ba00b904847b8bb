package parser

import (
	"bytes"
	"strings"

	"github.com/dgallion1/themeindex/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// parseMarkdown turns top-level Markdown blocks into paginated lines.
// ATX and setext headings become outline entries.
func parseMarkdown(src []byte, opts document.PaginateOptions) (*document.Memory, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []document.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			blocks = append(blocks, document.Block{
				Text:  extractText(node, src),
				Level: node.Level,
			})
		case *ast.ThematicBreak:
			continue
		default:
			if t := extractText(n, src); t != "" {
				blocks = append(blocks, document.Block{Text: t})
			}
		}
	}
	return document.Paginate(blocks, opts), nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Kind() != ast.KindHeading {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		if lines.Len() > 0 {
			return strings.TrimSpace(buf.String())
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
