package segment

import "github.com/dgallion1/themeindex/internal/document"

// StructuralCandidates maps an embedded outline to candidates. Outlines
// with fewer than cfg.MinOutlineEntries entries are ignored; entries deeper
// than cfg.MaxOutlineLevel are dropped. Target pages are 1-indexed.
func StructuralCandidates(entries []document.OutlineEntry, pageCount int, cfg Config) []Candidate {
	cfg = cfg.withDefaults()
	if len(entries) < cfg.MinOutlineEntries || pageCount <= 0 {
		return nil
	}

	var out []Candidate
	for _, e := range entries {
		if e.Level > cfg.MaxOutlineLevel {
			continue
		}
		title := cleanTitle(e.Title)
		if title == "" {
			continue
		}
		start := min(max(e.Page-1, 0), pageCount-1)
		out = append(out, Candidate{
			Title:     title,
			StartPage: start,
			Source:    SourceStructural,
		})
	}
	return out
}
