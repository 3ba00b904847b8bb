// Package summary generates chapter summaries and quizzes with an LLM.
package summary

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/content"
)

const (
	// MinInputRunes is the shortest body worth summarizing.
	MinInputRunes = 100
	// MaxInputRunes bounds the body sent to the model.
	MaxInputRunes = 10000

	DefaultQuestions = 10
	MaxQuestions     = 20
)

// ErrTooShort is returned for bodies under MinInputRunes.
var ErrTooShort = errors.New("text too short to summarize")

// Completer sends a prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Service builds prompts, calls the model and records latency and
// estimated prompt tokens.
type Service struct {
	llm   Completer
	stats *LLMStats
}

func NewService(llm Completer, stats *LLMStats) *Service {
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	return &Service{llm: llm, stats: stats}
}

// Stats returns the latency tracker.
func (s *Service) Stats() *LLMStats { return s.stats }

// Summarize returns a short summary of text in lang.
func (s *Service) Summarize(ctx context.Context, text, topic string, lang catalog.Lang) (string, error) {
	text, err := prepare(text)
	if err != nil {
		return "", err
	}
	out, err := s.complete(ctx, OpSummary, BuildSummaryPrompt(topic, text, lang), 1000)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Quiz returns up to n multiple-choice questions about text in lang.
// Malformed questions in the reply are dropped.
func (s *Service) Quiz(ctx context.Context, text, topic string, n int, lang catalog.Lang) ([]Question, error) {
	text, err := prepare(text)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultQuestions
	}
	n = min(n, MaxQuestions)

	out, err := s.complete(ctx, OpQuiz, BuildQuizPrompt(topic, text, n, lang), 4000)
	if err != nil {
		return nil, err
	}
	qs, err := parseQuiz(out)
	if err != nil {
		return nil, err
	}
	if len(qs) > n {
		qs = qs[:n]
	}
	return qs, nil
}

func (s *Service) complete(ctx context.Context, op, prompt string, maxTokens int) (string, error) {
	tokens := content.EstimateTokens(systemPrompt) + content.EstimateTokens(prompt)
	start := time.Now()
	out, err := s.llm.Complete(ctx, systemPrompt, prompt, maxTokens)
	s.stats.Record(op, time.Since(start), tokens, err)
	return out, err
}

func prepare(text string) (string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinInputRunes {
		return "", ErrTooShort
	}
	return content.Excerpt(text, MaxInputRunes), nil
}
