package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// "12. Title", "1.2) Title", "3-bob"
	numberedRe = regexp.MustCompile(`^\d+(?:\.\d+)*\s*[.)\-]\s*\p{L}`)
	// "IV. Title"
	romanRe = regexp.MustCompile(`^[IVXLC]+\s*[.)\-]\s*\p{L}`)
	// "§ 4 Title", "12-§"
	sectionRe = regexp.MustCompile(`^(?:§\s*\d+|\d+\s*-?\s*§)`)
	// "3-bob", "Глава 2", "Chapter 1"
	chapterRe = regexp.MustCompile(`(?i)^(?:\d+\s*-?\s*(?:bob|глава|chapter|qism|раздел)|(?:bob|глава|chapter|qism|раздел)\s*\d+)`)
	// "5-dars", "Урок 5", "3-mavzu", "Тема 7"
	lessonRe = regexp.MustCompile(`(?i)^(?:\d+\s*-?\s*(?:dars|урок|mavzu|тема)|(?:dars|урок|mavzu|тема)\s*\d+)`)
)

const (
	minHeadingRunes = 3
	maxHeadingRunes = 150
	minLetters      = 3
)

// Classifier judges whether a single line is a chapter heading.
type Classifier struct {
	// AlphaRatio is the letter-or-space share a line needs to pass on font
	// size alone.
	AlphaRatio float64
	// TrustNumbering accepts numbered and Roman-numbered lines at any font
	// size. Keyword and section-mark lines are always accepted.
	TrustNumbering bool
}

// NewClassifier returns the default classifier, or the stricter variant.
func NewClassifier(strict bool) Classifier {
	if strict {
		return Classifier{AlphaRatio: 0.7}
	}
	return Classifier{AlphaRatio: 0.6, TrustNumbering: true}
}

// Classify reports whether line is a heading and returns its cleaned title.
func (c Classifier) Classify(line string, fontSize float64, p Profile) (string, bool) {
	n := utf8.RuneCountInString(strings.TrimSpace(line))
	if n < minHeadingRunes || n > maxHeadingRunes {
		return "", false
	}
	title := cleanTitle(line)
	if countLetters(title) < minLetters {
		return "", false
	}

	large := p.IsHeadingSize(fontSize)

	switch {
	case chapterRe.MatchString(title), lessonRe.MatchString(title), sectionRe.MatchString(title):
		return title, true
	case numberedRe.MatchString(title), romanRe.MatchString(title):
		if c.TrustNumbering || large {
			return title, true
		}
		return "", false
	}

	if !large {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(title)
	if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
		return "", false
	}
	if letterRatio(title, true) <= c.AlphaRatio {
		return "", false
	}
	return title, true
}
