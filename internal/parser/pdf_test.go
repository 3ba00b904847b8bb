package parser

import (
	"testing"

	"github.com/dgallion1/themeindex/internal/document"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

func TestGroupLines(t *testing.T) {
	tests := []struct {
		name  string
		texts []pdflib.Text
		top   float64
		want  []document.Line
	}{
		{
			name: "empty page",
			top:  842,
		},
		{
			name: "runs within tolerance share a row",
			texts: []pdflib.Text{
				{S: "Ikkinchi", FontSize: 10, X: 40, Y: 600, W: 38},
				{S: "Kirish", FontSize: 18, X: 100, Y: 700, W: 60},
				{S: "lar", FontSize: 11, X: 65, Y: 650, W: 15},
				{S: " qator", FontSize: 10, X: 80, Y: 600, W: 30},
				{S: "1-bob", FontSize: 14, X: 50, Y: 701.5, W: 40},
				{S: "son", FontSize: 11, X: 50, Y: 650, W: 15},
				{S: "   ", FontSize: 10, X: 50, Y: 550, W: 5},
			},
			top: 800,
			want: []document.Line{
				{Text: "1-bob Kirish", FontSize: 18, Y: 98.5},
				{Text: "sonlar", FontSize: 11, Y: 150},
				{Text: "Ikkinchi qator", FontSize: 10, Y: 200},
			},
		},
		{
			name: "runs beyond tolerance split",
			texts: []pdflib.Text{
				{S: "A", FontSize: 12, X: 10, Y: 700, W: 10},
				{S: "B", FontSize: 12, X: 10, Y: 697, W: 10},
			},
			top: 800,
			want: []document.Line{
				{Text: "A", FontSize: 12, Y: 100},
				{Text: "B", FontSize: 12, Y: 103},
			},
		},
		{
			name: "rows ordered top to bottom",
			texts: []pdflib.Text{
				{S: "bottom", FontSize: 9, X: 10, Y: 100, W: 30},
				{S: "middle", FontSize: 11, X: 10, Y: 400, W: 30},
				{S: "top", FontSize: 16, X: 10, Y: 700, W: 20},
			},
			top: 842,
			want: []document.Line{
				{Text: "top", FontSize: 16, Y: 142},
				{Text: "middle", FontSize: 11, Y: 442},
				{Text: "bottom", FontSize: 9, Y: 742},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := groupLines(tt.texts, tt.top)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestGroupLines_DoesNotReorderInput(t *testing.T) {
	texts := []pdflib.Text{
		{S: "b", FontSize: 10, X: 10, Y: 100, W: 5},
		{S: "a", FontSize: 10, X: 10, Y: 700, W: 5},
	}
	groupLines(texts, 842)
	if texts[0].S != "b" || texts[1].S != "a" {
		t.Errorf("input runs were reordered: %+v", texts)
	}
}

func TestJoinRow(t *testing.T) {
	tests := []struct {
		name     string
		row      []pdflib.Text
		wantText string
		wantSize float64
	}{
		{
			name: "adjacent glyph runs join without space",
			row: []pdflib.Text{
				{S: "Natu", FontSize: 12, X: 10, W: 20},
				{S: "ral", FontSize: 12, X: 30.5, W: 15},
			},
			wantText: "Natural",
			wantSize: 12,
		},
		{
			name: "gap inserts a space",
			row: []pdflib.Text{
				{S: "sonlar", FontSize: 12, X: 50, W: 30},
				{S: "Natural", FontSize: 12, X: 10, W: 35},
			},
			wantText: "Natural sonlar",
			wantSize: 12,
		},
		{
			name: "largest font size wins",
			row: []pdflib.Text{
				{S: "§", FontSize: 11, X: 10, W: 6},
				{S: "3.", FontSize: 20, X: 22, W: 10},
				{S: "Kasrlar", FontSize: 16, X: 40, W: 50},
			},
			wantText: "§ 3. Kasrlar",
			wantSize: 20,
		},
		{
			name: "whitespace collapsed",
			row: []pdflib.Text{
				{S: "  Mavzu  ", FontSize: 10, X: 10, W: 40},
				{S: "  1 ", FontSize: 10, X: 70, W: 10},
			},
			wantText: "Mavzu 1",
			wantSize: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, size := joinRow(tt.row)
			if text != tt.wantText {
				t.Errorf("expected text %q, got %q", tt.wantText, text)
			}
			if size != tt.wantSize {
				t.Errorf("expected size %v, got %v", tt.wantSize, size)
			}
		})
	}
}

func TestFlattenBookmarks(t *testing.T) {
	bms := []pdfcpu.Bookmark{
		{Title: " Kirish ", PageFrom: 1},
		{Title: "1-bob", PageFrom: 3, Kids: []pdfcpu.Bookmark{
			{Title: "1.1 Sonlar", PageFrom: 4, Kids: []pdfcpu.Bookmark{
				{Title: "Mashqlar", PageFrom: 6},
			}},
			{Title: "1.2 Kasrlar", PageFrom: 7},
		}},
		{Title: "2-bob", PageFrom: 9},
	}
	want := []document.OutlineEntry{
		{Level: 1, Title: "Kirish", Page: 1},
		{Level: 1, Title: "1-bob", Page: 3},
		{Level: 2, Title: "1.1 Sonlar", Page: 4},
		{Level: 3, Title: "Mashqlar", Page: 6},
		{Level: 2, Title: "1.2 Kasrlar", Page: 7},
		{Level: 1, Title: "2-bob", Page: 9},
	}

	got := flattenBookmarks(bms, 1, nil)
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if out := flattenBookmarks(nil, 1, nil); len(out) != 0 {
		t.Errorf("expected no entries for an empty outline, got %+v", out)
	}
}
