package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTitleRunes bounds candidate titles.
const MaxTitleRunes = 100

// cleanTitle collapses internal whitespace and truncates to MaxTitleRunes.
func cleanTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxTitleRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxTitleRunes]))
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// letterRatio is the share of runes that are letters, optionally counting
// spaces as well.
func letterRatio(s string, withSpaces bool) float64 {
	total, hits := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || (withSpaces && unicode.IsSpace(r)) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
