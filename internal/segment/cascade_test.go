package segment

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/themeindex/internal/document"
)

var bodyText = strings.TrimSpace(strings.Repeat("matn ", 18))

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bookDoc builds n body-only pages and puts heading lines on the given pages.
func bookDoc(n int, headings map[int]document.Line, outline []document.OutlineEntry) *document.Memory {
	pages := make([]document.Page, n)
	for i := range pages {
		var lines []document.Line
		if h, ok := headings[i]; ok {
			h.Y = 0
			lines = append(lines, h)
		}
		lines = append(lines,
			document.Line{Text: bodyText, FontSize: 10, Y: 1},
			document.Line{Text: bodyText, FontSize: 10, Y: 2},
		)
		pages[i] = document.Page{Lines: lines}
	}
	return document.NewMemory(pages, outline)
}

func assertCoverage(t *testing.T, cands []Candidate, pageCount int) {
	t.Helper()
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if cands[0].StartPage != 0 {
		t.Errorf("first candidate starts at %d, want 0", cands[0].StartPage)
	}
	for i, c := range cands {
		if c.EndPage < c.StartPage {
			t.Errorf("candidate %d: end %d before start %d", i, c.EndPage, c.StartPage)
		}
		if i > 0 && c.StartPage != cands[i-1].EndPage+1 {
			t.Errorf("candidate %d starts at %d, previous ends at %d", i, c.StartPage, cands[i-1].EndPage)
		}
	}
	if last := cands[len(cands)-1].EndPage; last != pageCount-1 {
		t.Errorf("last candidate ends at %d, want %d", last, pageCount-1)
	}
}

func TestCandidates_StructuralWins(t *testing.T) {
	outline := []document.OutlineEntry{
		{Level: 1, Title: "Kirish", Page: 3},
		{Level: 2, Title: "Sonlar", Page: 10},
		{Level: 3, Title: "Juft sonlar", Page: 12},
		{Level: 1, Title: "Kasrlar", Page: 25},
	}
	// Visual headings exist too; they must not leak into the result.
	headings := map[int]document.Line{
		5:  {Text: "Boshqa sarlavha", FontSize: 18},
		30: {Text: "Yana sarlavha", FontSize: 18},
	}
	doc := bookDoc(40, headings, outline)

	res, err := New(DefaultConfig(), testLogger()).Candidates(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != Structural {
		t.Fatalf("expected structural strategy, got %s", res.Strategy)
	}
	if len(res.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(res.Candidates), res.Candidates)
	}
	wantStarts := []int{0, 9, 24}
	for i, c := range res.Candidates {
		if c.Source != SourceStructural {
			t.Errorf("candidate %d has source %s", i, c.Source)
		}
		if c.StartPage != wantStarts[i] {
			t.Errorf("candidate %d: expected start %d, got %d", i, wantStarts[i], c.StartPage)
		}
	}
	assertCoverage(t, res.Candidates, 40)
}

func TestCandidates_HeuristicScan(t *testing.T) {
	headings := map[int]document.Line{
		0:  {Text: "Kirish qismi", FontSize: 16},
		10: {Text: "Natural sonlar", FontSize: 16},
		20: {Text: "Kasrlar haqida", FontSize: 16},
		30: {Text: "Tenglamalar", FontSize: 16},
	}
	doc := bookDoc(40, headings, nil)

	res, err := New(DefaultConfig(), testLogger()).Candidates(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != Heuristic {
		t.Fatalf("expected heuristic strategy, got %s", res.Strategy)
	}
	want := []Candidate{
		{Title: "Kirish qismi", StartPage: 0, EndPage: 9, Source: SourceHeuristic, FontSize: 16},
		{Title: "Natural sonlar", StartPage: 10, EndPage: 19, Source: SourceHeuristic, FontSize: 16},
		{Title: "Kasrlar haqida", StartPage: 20, EndPage: 29, Source: SourceHeuristic, FontSize: 16},
		{Title: "Tenglamalar", StartPage: 30, EndPage: 39, Source: SourceHeuristic, FontSize: 16},
	}
	if !reflect.DeepEqual(res.Candidates, want) {
		t.Errorf("unexpected candidates:\n got %+v\nwant %+v", res.Candidates, want)
	}
}

func TestCandidates_GapAndDuplicates(t *testing.T) {
	headings := map[int]document.Line{
		2:  {Text: "1. Kirish", FontSize: 10},
		3:  {Text: "2. Sonlar", FontSize: 10},  // within the gap of page 2
		6:  {Text: "1. KIRISH", FontSize: 10},  // repeats the previous title
		8:  {Text: "3. Kasrlar", FontSize: 10},
		12: {Text: "4. Tenglamalar", FontSize: 10},
	}
	doc := bookDoc(24, headings, nil)

	res, err := New(DefaultConfig(), testLogger()).Candidates(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != Heuristic {
		t.Fatalf("expected heuristic strategy, got %s", res.Strategy)
	}
	var titles []string
	for _, c := range res.Candidates {
		titles = append(titles, c.Title)
	}
	want := []string{"1. Kirish", "3. Kasrlar", "4. Tenglamalar"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	// Front matter before the first heading folds into it.
	assertCoverage(t, res.Candidates, 24)
}

func TestCandidates_UniformFallback(t *testing.T) {
	headings := map[int]document.Line{
		12: {Text: "Ikkinchi bo'lim nomi", FontSize: 14},
	}
	doc := bookDoc(60, headings, nil)

	res, err := New(DefaultConfig(), testLogger()).Candidates(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != Fallback {
		t.Fatalf("expected fallback strategy, got %s", res.Strategy)
	}
	if len(res.Candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(res.Candidates))
	}
	wantTitles := []string{"Section 1", "Ikkinchi bo'lim nomi", "Section 3", "Section 4", "Section 5"}
	for i, c := range res.Candidates {
		if c.StartPage != i*12 {
			t.Errorf("candidate %d: expected start %d, got %d", i, i*12, c.StartPage)
		}
		if c.Title != wantTitles[i] {
			t.Errorf("candidate %d: expected title %q, got %q", i, wantTitles[i], c.Title)
		}
		if c.Source != SourceFallback {
			t.Errorf("candidate %d: expected fallback source, got %s", i, c.Source)
		}
	}
	assertCoverage(t, res.Candidates, 60)
}

func TestCandidates_ShortDocumentIsOneChapter(t *testing.T) {
	outline := []document.OutlineEntry{
		{Level: 1, Title: "Birinchi", Page: 1},
		{Level: 1, Title: "Ikkinchi", Page: 4},
		{Level: 1, Title: "Uchinchi", Page: 8},
	}
	tests := []struct {
		name     string
		doc      *document.Memory
		strategy Strategy
		title    string
	}{
		{"with outline", bookDoc(12, nil, outline), Structural, "Birinchi"},
		{"plain", bookDoc(12, nil, nil), Fallback, "Section 1"},
		{"one heading", bookDoc(19, map[int]document.Line{4: {Text: "3-bob", FontSize: 10}}, nil), Heuristic, "3-bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(DefaultConfig(), testLogger()).Candidates(tt.doc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Strategy != tt.strategy {
				t.Errorf("expected %s, got %s", tt.strategy, res.Strategy)
			}
			if len(res.Candidates) != 1 {
				t.Fatalf("expected one candidate, got %d", len(res.Candidates))
			}
			c := res.Candidates[0]
			if c.Title != tt.title {
				t.Errorf("expected title %q, got %q", tt.title, c.Title)
			}
			if c.StartPage != 0 || c.EndPage != tt.doc.PageCount()-1 {
				t.Errorf("expected range 0-%d, got %d-%d", tt.doc.PageCount()-1, c.StartPage, c.EndPage)
			}
		})
	}
}

func TestCandidates_CoverageAcrossSizes(t *testing.T) {
	for _, n := range []int{1, 5, 19, 20, 29, 30, 79, 80, 149, 150, 333} {
		t.Run(fmt.Sprintf("pages=%d", n), func(t *testing.T) {
			res, err := New(DefaultConfig(), testLogger()).Candidates(bookDoc(n, nil, nil))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertCoverage(t, res.Candidates, n)
		})
	}
}

func TestCandidates_Deterministic(t *testing.T) {
	headings := map[int]document.Line{
		0:  {Text: "Kirish qismi", FontSize: 16},
		10: {Text: "Natural sonlar", FontSize: 16},
		20: {Text: "Kasrlar haqida", FontSize: 16},
	}
	seg := New(DefaultConfig(), testLogger())
	first, err := seg.Candidates(bookDoc(30, headings, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := seg.Candidates(bookDoc(30, headings, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

type brokenDoc struct {
	*document.Memory
	badPage int
}

func (d brokenDoc) PageLines(page int) ([]document.Line, error) {
	if page == d.badPage {
		return nil, &document.PageError{Page: page, Err: errors.New("corrupt content stream")}
	}
	return d.Memory.PageLines(page)
}

func TestCandidates_UnreadablePage(t *testing.T) {
	doc := brokenDoc{Memory: bookDoc(40, nil, nil), badPage: 7}
	_, err := New(DefaultConfig(), testLogger()).Candidates(doc)
	if !errors.Is(err, document.ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestCandidates_EmptyDocument(t *testing.T) {
	_, err := New(DefaultConfig(), testLogger()).Candidates(document.NewMemory(nil, nil))
	if !errors.Is(err, document.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestInterval(t *testing.T) {
	tests := []struct{ pages, want int }{
		{10, 5},
		{29, 7},
		{30, 12},
		{79, 12},
		{80, 15},
		{149, 15},
		{150, 20},
		{600, 20},
	}
	for _, tt := range tests {
		if got := Interval(tt.pages); got != tt.want {
			t.Errorf("Interval(%d) = %d, want %d", tt.pages, got, tt.want)
		}
	}
}

func TestStructuralCandidates(t *testing.T) {
	cfg := DefaultConfig()
	short := []document.OutlineEntry{{Level: 1, Title: "A", Page: 1}, {Level: 1, Title: "B", Page: 2}}
	if got := StructuralCandidates(short, 10, cfg); got != nil {
		t.Errorf("expected nil for short outline, got %+v", got)
	}

	entries := []document.OutlineEntry{
		{Level: 1, Title: "  Kirish  ", Page: 1},
		{Level: 3, Title: "Deep", Page: 2},
		{Level: 2, Title: "Sonlar", Page: 4},
		{Level: 1, Title: "Oxiri", Page: 99},
	}
	got := StructuralCandidates(entries, 10, cfg)
	want := []Candidate{
		{Title: "Kirish", StartPage: 0, Source: SourceStructural},
		{Title: "Sonlar", StartPage: 3, Source: SourceStructural},
		{Title: "Oxiri", StartPage: 9, Source: SourceStructural},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected candidates:\n got %+v\nwant %+v", got, want)
	}
}
