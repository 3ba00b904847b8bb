package segment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/themeindex/internal/document"
)

// Source records which strategy produced a candidate.
type Source string

const (
	SourceStructural Source = "structural"
	SourceHeuristic  Source = "heuristic"
	SourceFallback   Source = "fallback"
)

// Candidate is a detected chapter start. EndPage is filled in once the
// full candidate list is known.
type Candidate struct {
	Title     string  `json:"title"`
	StartPage int     `json:"start_page"`
	EndPage   int     `json:"end_page"`
	Source    Source  `json:"source"`
	FontSize  float64 `json:"font_size,omitempty"`
}

// Strategy enumerates the cascade stages in the order they are tried.
type Strategy int

const (
	Structural Strategy = iota + 1
	Heuristic
	Fallback
)

func (s Strategy) String() string {
	switch s {
	case Structural:
		return string(SourceStructural)
	case Heuristic:
		return string(SourceHeuristic)
	case Fallback:
		return string(SourceFallback)
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// MarshalText renders the strategy by name in JSON and YAML output.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the output of one strategy.
type Result struct {
	Strategy   Strategy    `json:"strategy"`
	Candidates []Candidate `json:"candidates"`
}

// Sufficient reports whether the cascade may stop at this result.
func (r Result) Sufficient(pageCount int) bool {
	switch r.Strategy {
	case Structural, Fallback:
		return len(r.Candidates) > 0
	case Heuristic:
		if pageCount < ShortDocumentPages {
			return len(r.Candidates) >= 1
		}
		return len(r.Candidates) >= 3
	}
	return false
}

// Segmenter runs the cascade. It holds no per-document state and may be
// shared across goroutines.
type Segmenter struct {
	cfg        Config
	classifier Classifier
	log        *slog.Logger
}

// New returns a Segmenter.
func New(cfg Config, log *slog.Logger) *Segmenter {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Segmenter{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Strict),
		log:        log,
	}
}

// Candidates segments doc. The returned candidates are sorted, contiguous
// and cover every page. Documents shorter than ShortDocumentPages yield a
// single candidate.
func (s *Segmenter) Candidates(doc document.Document) (Result, error) {
	n := doc.PageCount()
	if n <= 0 {
		return Result{}, document.ErrEmptyDocument
	}

	outline, err := doc.Outline()
	if err != nil {
		s.log.Debug("outline unavailable", "error", err)
		outline = nil
	}
	res := Result{Strategy: Structural, Candidates: StructuralCandidates(outline, n, s.cfg)}

	if !res.Sufficient(n) {
		profile, err := SampleProfile(doc, s.cfg.SampleSize, s.cfg.HeadingFactor)
		if err != nil {
			return Result{}, err
		}
		cands, err := s.scan(doc, profile)
		if err != nil {
			return Result{}, err
		}
		res = Result{Strategy: Heuristic, Candidates: cands}
		s.log.Debug("heuristic scan",
			"body_size", profile.BodySize,
			"threshold", profile.Threshold,
			"candidates", len(cands),
		)
	}

	if !res.Sufficient(n) {
		cands, err := s.fallback(doc)
		if err != nil {
			return Result{}, err
		}
		res = Result{Strategy: Fallback, Candidates: cands}
	}

	res.Candidates = normalizeStarts(res.Candidates)
	if n < ShortDocumentPages && len(res.Candidates) > 1 {
		res.Candidates = res.Candidates[:1]
	}
	AssignEndPages(res.Candidates, n)

	s.log.Info("segmented document",
		"pages", n,
		"strategy", res.Strategy.String(),
		"candidates", len(res.Candidates),
	)
	return res, nil
}

// scan walks pages in order looking for one heading per page.
func (s *Segmenter) scan(doc document.Document, profile Profile) ([]Candidate, error) {
	var (
		out      []Candidate
		lastPage int
	)
	for page := range doc.PageCount() {
		if len(out) > 0 && page-lastPage < s.cfg.MinGap {
			continue
		}
		lines, err := doc.PageLines(page)
		if err != nil {
			return nil, fmt.Errorf("scan headings: %w", err)
		}
		for _, l := range topLines(lines, s.cfg.TopLines) {
			title, ok := s.classifier.Classify(l.Text, l.FontSize, profile)
			if !ok {
				continue
			}
			if len(out) > 0 && strings.EqualFold(out[len(out)-1].Title, title) {
				continue
			}
			out = append(out, Candidate{
				Title:     title,
				StartPage: page,
				Source:    SourceHeuristic,
				FontSize:  l.FontSize,
			})
			lastPage = page
			break
		}
	}
	return out, nil
}

// topLines returns the n highest lines on the page.
func topLines(lines []document.Line, n int) []document.Line {
	sorted := make([]document.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// normalizeStarts orders candidates by start page, keeps the first of any
// candidates sharing a start page and pulls the first start to page 0 so
// front matter belongs to the first chapter.
func normalizeStarts(cands []Candidate) []Candidate {
	if len(cands) == 0 {
		return cands
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].StartPage < cands[j].StartPage })
	out := cands[:1]
	for _, c := range cands[1:] {
		if c.StartPage == out[len(out)-1].StartPage {
			continue
		}
		out = append(out, c)
	}
	out[0].StartPage = 0
	return out
}

// AssignEndPages sets each end page to the next start minus one and the
// last to the final page.
func AssignEndPages(cands []Candidate, pageCount int) {
	for i := range cands {
		if i+1 < len(cands) {
			cands[i].EndPage = cands[i+1].StartPage - 1
		} else {
			cands[i].EndPage = pageCount - 1
		}
	}
}
