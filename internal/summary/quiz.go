package summary

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Question is one multiple-choice quiz item.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions)`,
)

var optionPrefix = regexp.MustCompile(`^\s*[A-Da-d][\).:]\s+`)

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// parseQuiz decodes the model's JSON reply and keeps the valid questions.
func parseQuiz(raw string) ([]Question, error) {
	text := stripCodeBlock(raw)
	var qs []Question
	if err := json.Unmarshal([]byte(text), &qs); err != nil {
		return nil, fmt.Errorf("parse quiz json: %w (raw: %s)", err, truncate(text, 200))
	}
	out := qs[:0]
	for i := range qs {
		if ValidateQuestion(&qs[i]) {
			out = append(out, qs[i])
		}
	}
	return out, nil
}

// ValidateQuestion checks a question for validity and normalizes it in
// place. Returns true if valid.
func ValidateQuestion(q *Question) bool {
	if q == nil {
		return false
	}
	q.Question = strings.TrimSpace(q.Question)
	n := utf8.RuneCountInString(q.Question)
	if n < 3 || n > 500 {
		return false
	}
	if injectionPattern.MatchString(q.Question) {
		return false
	}
	if len(q.Options) != 4 {
		return false
	}
	for i, opt := range q.Options {
		opt = strings.TrimSpace(optionPrefix.ReplaceAllString(opt, ""))
		if opt == "" {
			return false
		}
		q.Options[i] = opt
	}
	q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
	if len(q.Answer) != 1 || q.Answer[0] < 'A' || q.Answer[0] > 'D' {
		return false
	}
	return true
}
