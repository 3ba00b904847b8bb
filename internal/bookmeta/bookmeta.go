// Package bookmeta infers book metadata (subject, grade, title) from file
// paths and document typography, and pairs language editions on disk.
package bookmeta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/themeindex/internal/document"
)

const (
	UnknownSubject = "unknown"
	DefaultGrade   = 5

	titlePages      = 3
	titleMinFont    = 14
	titleMinRunes   = 10
	titleMaxRunes   = 100
	titleAlphaRatio = 0.6
)

// Meta is what can be inferred about a book before segmentation.
type Meta struct {
	Subject string `json:"subject"`
	Grade   int    `json:"grade"`
	Title   string `json:"title"`
}

// subjectKeywords maps folder or filename keywords to subject codes.
// Longer and more specific keywords come first.
var subjectKeywords = []struct{ keyword, subject string }{
	{"ona tili", "ona_tili"},
	{"rus tili", "rus_tili"},
	{"ingliz tili", "ingliz_tili"},
	{"русский язык", "rus_tili"},
	{"английский", "ingliz_tili"},
	{"родной язык", "ona_tili"},
	{"matematika", "matematika"},
	{"algebra", "matematika"},
	{"geometriya", "matematika"},
	{"math", "matematika"},
	{"математика", "matematika"},
	{"алгебра", "matematika"},
	{"геометрия", "matematika"},
	{"biologiya", "biologiya"},
	{"botanika", "biologiya"},
	{"zoologiya", "biologiya"},
	{"biology", "biologiya"},
	{"биология", "biologiya"},
	{"ботаника", "biologiya"},
	{"зоология", "biologiya"},
	{"fizika", "fizika"},
	{"physics", "fizika"},
	{"физика", "fizika"},
	{"kimyo", "kimyo"},
	{"chemistry", "kimyo"},
	{"химия", "kimyo"},
	{"geografiya", "geografiya"},
	{"geography", "geografiya"},
	{"география", "geografiya"},
	{"tarix", "tarix"},
	{"history", "tarix"},
	{"история", "tarix"},
	{"informatika", "informatika"},
	{"информатика", "informatika"},
	{"adabiyot", "adabiyot"},
	{"литература", "adabiyot"},
}

var gradePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*[-_]?\s*sinf`),
	regexp.MustCompile(`(\d+)\s*[-_]?\s*klass`),
	regexp.MustCompile(`(\d+)\s*[-_]?\s*класс`),
	regexp.MustCompile(`grade\s*[-_]?\s*(\d+)`),
	regexp.MustCompile(`(?:^|[_\s])(\d+)(?:[_\s]|$)`),
}

var sitePrefix = regexp.MustCompile(`^(?:www\.)?[a-z0-9-]+\.uz_+`)

// normalizeName lowercases s and turns separators into single spaces.
func normalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// DetectSubject looks for a subject keyword in the parent folder, then in
// the file name.
func DetectSubject(path string) string {
	parent := normalizeName(filepath.Base(filepath.Dir(path)))
	for _, kw := range subjectKeywords {
		if parent == kw.keyword {
			return kw.subject
		}
	}
	name := normalizeName(stem(path))
	for _, kw := range subjectKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.subject
		}
	}
	for _, kw := range subjectKeywords {
		if strings.Contains(parent, kw.keyword) {
			return kw.subject
		}
	}
	return UnknownSubject
}

// DetectGrade returns the first 1..11 grade number found in the file name,
// or DefaultGrade.
func DetectGrade(path string) int {
	name := strings.ToLower(stem(path))
	for _, re := range gradePatterns {
		for _, m := range re.FindAllStringSubmatch(name, -1) {
			if g, err := strconv.Atoi(m[1]); err == nil && g >= 1 && g <= 11 {
				return g
			}
		}
	}
	return DefaultGrade
}

// TitleFromFilename builds a display title from a file name.
func TitleFromFilename(path string) string {
	name := sitePrefix.ReplaceAllString(strings.ToLower(stem(path)), "")
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	return cases.Title(language.Und).String(name)
}

// InferTitle picks the largest heading-sized line on the first pages.
// It returns "" when no line qualifies.
func InferTitle(doc document.Document) string {
	var (
		best     string
		bestSize float64
	)
	for p := 0; p < min(titlePages, doc.PageCount()); p++ {
		lines, err := doc.PageLines(p)
		if err != nil {
			continue
		}
		for _, ln := range lines {
			text := strings.Join(strings.Fields(ln.Text), " ")
			n := utf8.RuneCountInString(text)
			if ln.FontSize <= titleMinFont || ln.FontSize <= bestSize || n < titleMinRunes || n > titleMaxRunes {
				continue
			}
			if alphaRatio(text) <= titleAlphaRatio {
				continue
			}
			best, bestSize = text, ln.FontSize
		}
	}
	return best
}

// Infer combines path heuristics with the document's own title.
func Infer(path string, doc document.Document) Meta {
	m := Meta{
		Subject: DetectSubject(path),
		Grade:   DetectGrade(path),
	}
	if doc != nil {
		m.Title = InferTitle(doc)
	}
	if m.Title == "" {
		m.Title = TitleFromFilename(path)
	}
	return m
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func alphaRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
