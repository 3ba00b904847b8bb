// Package analytics records search queries and reports aggregate counts.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/dgallion1/themeindex/internal/catalog"
)

// DefaultRecent is how many recent events a recorder keeps.
const DefaultRecent = 100

// Event is one executed search.
type Event struct {
	Query    string       `json:"query"`
	Language catalog.Lang `json:"language"`
	Results  int          `json:"results"`
	At       time.Time    `json:"at"`
}

// Summary aggregates recorded searches.
type Summary struct {
	Total       int64                  `json:"total"`
	ZeroResults int64                  `json:"zero_results"`
	ByLanguage  map[catalog.Lang]int64 `json:"by_language"`
	Recent      []Event                `json:"recent"`
}

// Recorder stores search events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	// Summary returns totals and up to recent most recent events, newest first.
	Summary(ctx context.Context, recent int) (Summary, error)
}

// Memory is a process-local Recorder.
type Memory struct {
	mu      sync.Mutex
	keep    int
	summary Summary
}

func NewMemory(keep int) *Memory {
	if keep <= 0 {
		keep = DefaultRecent
	}
	return &Memory{keep: keep, summary: Summary{ByLanguage: make(map[catalog.Lang]int64)}}
}

func (m *Memory) Record(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summary.Total++
	if ev.Results == 0 {
		m.summary.ZeroResults++
	}
	m.summary.ByLanguage[ev.Language]++
	m.summary.Recent = append([]Event{ev}, m.summary.Recent...)
	if len(m.summary.Recent) > m.keep {
		m.summary.Recent = m.summary.Recent[:m.keep]
	}
	return nil
}

func (m *Memory) Summary(_ context.Context, recent int) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Summary{
		Total:       m.summary.Total,
		ZeroResults: m.summary.ZeroResults,
		ByLanguage:  make(map[catalog.Lang]int64, len(m.summary.ByLanguage)),
	}
	for k, v := range m.summary.ByLanguage {
		out.ByLanguage[k] = v
	}
	n := min(max(recent, 0), len(m.summary.Recent))
	out.Recent = append([]Event{}, m.summary.Recent[:n]...)
	return out, nil
}
