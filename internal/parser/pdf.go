package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/themeindex/internal/document"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// defaultPageTop is the A4 page height in points, used when a page has no
// resolvable MediaBox.
const defaultPageTop = 842.0

// rowTolerance is the vertical distance in points under which two text
// runs are treated as the same line.
const rowTolerance = 2.0

type pdfSource interface {
	io.ReaderAt
	io.ReadSeeker
}

// pdfDocument reads page text and font metrics with ledongthuc/pdf and the
// outline with pdfcpu. Page lines are cached per page.
type pdfDocument struct {
	src    pdfSource
	closer io.Closer
	reader *pdflib.Reader
	lines  map[int][]document.Line
}

func openPDF(src pdfSource, size int64, closer io.Closer, opts Options) (document.Document, error) {
	reader, err := newPDFReader(src, size)
	if err == nil {
		return &pdfDocument{
			src:    src,
			closer: closer,
			reader: reader,
			lines:  make(map[int][]document.Line),
		}, nil
	}
	if !opts.FallbackPdftotext {
		return nil, err
	}

	doc, ferr := pdftotextDocument(src)
	if ferr != nil {
		return nil, fmt.Errorf("%v (pdftotext fallback: %v)", err, ferr)
	}
	if closer != nil {
		closer.Close()
	}
	return doc, nil
}

func newPDFReader(src io.ReaderAt, size int64) (r *pdflib.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("open pdf: %v", p)
		}
	}()
	return pdflib.NewReader(src, size)
}

func (d *pdfDocument) PageCount() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(page int) (string, error) {
	lines, err := d.PageLines(page)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n"), nil
}

func (d *pdfDocument) PageLines(page int) ([]document.Line, error) {
	if page < 0 || page >= d.PageCount() {
		return nil, &document.PageError{Page: page, Err: fmt.Errorf("out of range [0,%d)", d.PageCount())}
	}
	if lines, ok := d.lines[page]; ok {
		return lines, nil
	}

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		d.lines[page] = nil
		return nil, nil
	}
	texts, err := pageTexts(p)
	if err != nil {
		return nil, &document.PageError{Page: page, Err: err}
	}
	lines := groupLines(texts, pageTop(p))
	d.lines[page] = lines
	return lines, nil
}

func (d *pdfDocument) Outline() (entries []document.OutlineEntry, err error) {
	defer func() {
		if p := recover(); p != nil {
			entries, err = nil, fmt.Errorf("read outline: %v", p)
		}
	}()
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	bookmarks, err := api.Bookmarks(d.src, conf)
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	return flattenBookmarks(bookmarks, 1, nil), nil
}

func (d *pdfDocument) Close() error {
	d.lines = nil
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

func flattenBookmarks(bms []pdfcpu.Bookmark, level int, out []document.OutlineEntry) []document.OutlineEntry {
	for _, bm := range bms {
		out = append(out, document.OutlineEntry{
			Level: level,
			Title: strings.TrimSpace(bm.Title),
			Page:  bm.PageFrom,
		})
		out = flattenBookmarks(bm.Kids, level+1, out)
	}
	return out
}

func pageTexts(p pdflib.Page) (texts []pdflib.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("decode content: %v", r)
		}
	}()
	return p.Content().Text, nil
}

// pageTop resolves the page height from its (possibly inherited) MediaBox.
func pageTop(p pdflib.Page) float64 {
	v := p.V
	for range 16 {
		if v.IsNull() {
			break
		}
		if box := v.Key("MediaBox"); box.Len() == 4 {
			if top := box.Index(3).Float64(); top > 0 {
				return top
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageTop
}

// groupLines clusters text runs into rows by baseline and orders them top
// to bottom. PDF y coordinates grow upward, so rows are flipped against
// the page top.
func groupLines(texts []pdflib.Text, top float64) []document.Line {
	if len(texts) == 0 {
		return nil
	}
	runs := make([]pdflib.Text, len(texts))
	copy(runs, texts)
	sort.SliceStable(runs, func(i, j int) bool {
		if math.Abs(runs[i].Y-runs[j].Y) > rowTolerance {
			return runs[i].Y > runs[j].Y
		}
		return runs[i].X < runs[j].X
	})

	var (
		lines []document.Line
		row   []pdflib.Text
		rowY  float64
	)
	emit := func() {
		if len(row) == 0 {
			return
		}
		text, size := joinRow(row)
		if text != "" {
			lines = append(lines, document.Line{Text: text, FontSize: size, Y: top - rowY})
		}
		row = row[:0]
	}
	for _, t := range runs {
		if len(row) > 0 && math.Abs(t.Y-rowY) > rowTolerance {
			emit()
		}
		if len(row) == 0 {
			rowY = t.Y
		}
		row = append(row, t)
	}
	emit()
	return lines
}

func joinRow(row []pdflib.Text) (string, float64) {
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

	var (
		sb      strings.Builder
		size    float64
		prevEnd float64
	)
	for i, t := range row {
		if i > 0 {
			gap := t.X - prevEnd
			if gap > math.Max(t.FontSize*0.2, 0.5) && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
		if t.FontSize > size {
			size = t.FontSize
		}
	}
	return strings.Join(strings.Fields(sb.String()), " "), size
}

// pdftotextDocument extracts text-only pages with the poppler binary.
func pdftotextDocument(src io.ReadSeeker) (*document.Memory, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	tmp, err := os.CreateTemp("", "themeindex-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := splitPages(string(out))
	return document.FromTexts(pages...), nil
}

// splitPages splits form-feed separated output, dropping the empty tail
// pdftotext leaves after the last page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
