package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/themeindex/internal/document"
)

// Options tunes source-specific behavior.
type Options struct {
	// FallbackPdftotext retries unreadable PDFs through the pdftotext binary.
	FallbackPdftotext bool
	// Paginate controls synthetic pagination of flow-layout sources.
	Paginate document.PaginateOptions
}

// DefaultOptions returns the options used by the server.
func DefaultOptions() Options {
	return Options{
		FallbackPdftotext: true,
		Paginate:          document.DefaultPaginateOptions(),
	}
}

// SupportedExtensions lists file extensions this service can segment.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Open reads a whole source into memory and returns it as a Document.
// The caller must Close the result.
func Open(r io.Reader, filename string, opts Options) (document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", document.ErrUnreadable, filename, err)
	}
	return OpenBytes(data, filename, opts)
}

// OpenBytes opens an in-memory source, choosing the reader by extension.
func OpenBytes(data []byte, filename string, opts Options) (document.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		doc document.Document
		err error
	)
	switch ext {
	case ".pdf":
		doc, err = openPDF(bytes.NewReader(data), int64(len(data)), nil, opts)
	case ".txt":
		doc, err = parseText(data)
	case ".md", ".markdown":
		doc, err = parseMarkdown(data, opts.Paginate)
	case ".html", ".htm":
		doc, err = parseHTML(data, opts.Paginate)
	case ".docx":
		doc, err = parseDOCX(data, opts.Paginate)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", document.ErrUnreadable, filename, err)
	}
	if doc.PageCount() == 0 {
		doc.Close()
		return nil, fmt.Errorf("%s: %w", filename, document.ErrEmptyDocument)
	}
	return doc, nil
}

// OpenFile opens a source from disk. PDFs keep the file handle open until
// the document is closed; other formats are read fully.
func OpenFile(path string, opts Options) (document.Document, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", document.ErrUnreadable, err)
		}
		return OpenBytes(data, filepath.Base(path), opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrUnreadable, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", document.ErrUnreadable, path, err)
	}
	doc, err := openPDF(f, info.Size(), f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", document.ErrUnreadable, path, err)
	}
	if doc.PageCount() == 0 {
		doc.Close()
		return nil, fmt.Errorf("%s: %w", path, document.ErrEmptyDocument)
	}
	return doc, nil
}
