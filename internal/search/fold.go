package search

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/themeindex/internal/catalog"
)

// fold NFC-normalizes s and applies Unicode case folding. A Caser holds
// state, so each call builds its own.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

// DetectLanguage returns ru when the query has more Cyrillic letters than
// ASCII letters, and uz otherwise.
func DetectLanguage(q string) catalog.Lang {
	var cyr, latin int
	for _, r := range q {
		switch {
		case r >= 0x0400 && r <= 0x04FF:
			cyr++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}
	if cyr > latin {
		return catalog.LangRu
	}
	return catalog.LangUz
}
