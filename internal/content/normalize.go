// Package content turns page ranges into stored theme bodies.
package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncationMarker is appended to bodies cut at the character budget.
const TruncationMarker = "..."

var (
	blankRunRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe = regexp.MustCompile(`[ \t\p{Zs}]+`)
)

// Clean strips control characters, unifies line endings and collapses runs
// of horizontal whitespace.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '\u00ad' || r == '\ufeff' {
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(l, " "))
	}
	return strings.Join(lines, "\n")
}

// Normalize joins pages in order, cleans the text, collapses three or more
// newlines to two and truncates to maxChars runes.
func Normalize(pages []string, maxChars int) string {
	text := Clean(strings.Join(pages, "\n"))
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return Truncate(strings.TrimSpace(text), maxChars)
}

// Truncate cuts s to maxChars runes and appends TruncationMarker when it
// cuts. A non-positive budget disables truncation.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxChars]) + TruncationMarker
}

// Readable reports whether text is mostly letters, digits, spaces and
// punctuation. Text extracted through a broken font encoding fails.
func Readable(text string) bool {
	total, good := 0, 0
	for _, r := range text {
		total++
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) {
			good++
		}
	}
	if total == 0 {
		return false
	}
	return float64(good)/float64(total) >= 0.3
}
