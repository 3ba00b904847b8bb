package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/themeindex/internal/bookmeta"
	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/content"
	"github.com/dgallion1/themeindex/internal/document"
	"github.com/dgallion1/themeindex/internal/parser"
	"github.com/dgallion1/themeindex/internal/segment"
)

// Segmentation is the outcome of segmenting one edition.
type Segmentation struct {
	Lang       catalog.Lang        `json:"lang"`
	Filename   string              `json:"filename"`
	PageCount  int                 `json:"page_count"`
	Strategy   segment.Strategy    `json:"strategy"`
	Candidates []segment.Candidate `json:"candidates"`
	Sections   []content.Section   `json:"sections"`
	Dropped    int                 `json:"dropped"`
	Meta       bookmeta.Meta       `json:"meta"`
}

// Processor opens a source, runs the cascade and the content gate. It
// holds no per-document state.
type Processor struct {
	seg  *segment.Segmenter
	gate content.Gate
	opts parser.Options
	log  *slog.Logger
}

func NewProcessor(segCfg segment.Config, gate content.Gate, opts parser.Options, log *slog.Logger) *Processor {
	return &Processor{
		seg:  segment.New(segCfg, log),
		gate: gate,
		opts: opts,
		log:  log,
	}
}

// ProcessBytes segments an in-memory source.
func (p *Processor) ProcessBytes(data []byte, filename string, lang catalog.Lang) (*Segmentation, error) {
	doc, err := parser.OpenBytes(data, filename, p.opts)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return p.Process(doc, filename, lang)
}

// ProcessFile segments a source on disk.
func (p *Processor) ProcessFile(path string, lang catalog.Lang) (*Segmentation, error) {
	doc, err := parser.OpenFile(path, p.opts)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return p.Process(doc, path, lang)
}

// Process segments an open document. The caller keeps ownership of doc.
func (p *Processor) Process(doc document.Document, filename string, lang catalog.Lang) (*Segmentation, error) {
	res, err := p.seg.Candidates(doc)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", filepath.Base(filename), err)
	}
	rep, err := p.gate.Sections(doc, res.Candidates)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(filename), err)
	}
	p.log.Debug("edition segmented",
		"file", filepath.Base(filename),
		"lang", lang,
		"strategy", res.Strategy,
		"candidates", len(res.Candidates),
		"sections", len(rep.Sections),
		"dropped", rep.Dropped,
	)
	return &Segmentation{
		Lang:       lang,
		Filename:   filepath.Base(filename),
		PageCount:  doc.PageCount(),
		Strategy:   res.Strategy,
		Candidates: res.Candidates,
		Sections:   rep.Sections,
		Dropped:    rep.Dropped,
		Meta:       bookmeta.Infer(filename, doc),
	}, nil
}
