package parser

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ExtractPages writes the inclusive, 0-indexed page range [start, end] of
// a PDF to w as a new PDF.
func ExtractPages(src io.ReadSeeker, w io.Writer, start, end int) error {
	if start < 0 || end < start {
		return fmt.Errorf("invalid page range %d-%d", start, end)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	selection := fmt.Sprintf("%d-%d", start+1, end+1)
	if err := api.Trim(src, w, []string{selection}, conf); err != nil {
		return fmt.Errorf("extract pages %s: %w", selection, err)
	}
	return nil
}
