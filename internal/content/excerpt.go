package content

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Excerpt shortens text to at most maxRunes, cutting at the last paragraph
// boundary that fits, else the last sentence boundary, else mid-text. It
// is used to bound prompts, so no marker is appended.
func Excerpt(text string, maxRunes int) string {
	text = strings.TrimSpace(text)
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	var out strings.Builder
	used := 0
	for _, para := range splitByParagraphs(text) {
		n := utf8.RuneCountInString(para)
		sep := 0
		if used > 0 {
			sep = 2
		}
		if used+sep+n > maxRunes {
			if used == 0 {
				return fitSentences(para, maxRunes)
			}
			break
		}
		if sep > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(para)
		used += sep + n
	}
	return out.String()
}

func fitSentences(para string, maxRunes int) string {
	var out strings.Builder
	used := 0
	for _, sent := range splitSentences(para) {
		n := utf8.RuneCountInString(sent)
		sep := 0
		if used > 0 {
			sep = 1
		}
		if used+sep+n > maxRunes {
			break
		}
		if sep > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(sent)
		used += sep + n
	}
	if used == 0 {
		return string([]rune(para)[:maxRunes])
	}
	return out.String()
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}
