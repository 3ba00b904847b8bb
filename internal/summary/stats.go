package summary

import (
	"sort"
	"sync"
	"time"
)

// Operations tracked by LLMStats.
const (
	OpSummary = "summary"
	OpQuiz    = "quiz"
)

type sample struct {
	at     time.Time
	op     string
	ms     int64
	tokens int
	failed bool
}

// StatsSnapshot aggregates latency samples. Token counts are estimates
// of the prompt size.
type StatsSnapshot struct {
	Count          int     `json:"count"`
	Failures       int     `json:"failures"`
	MinMs          int64   `json:"min_ms"`
	MaxMs          int64   `json:"max_ms"`
	AvgMs          float64 `json:"avg_ms"`
	P50Ms          float64 `json:"p50_ms"`
	P95Ms          float64 `json:"p95_ms"`
	P99Ms          float64 `json:"p99_ms"`
	InputTokens    int     `json:"input_tokens"`
	AvgInputTokens float64 `json:"avg_input_tokens"`
}

// StatsReport is the overall snapshot plus one per operation.
type StatsReport struct {
	WindowSeconds int                      `json:"window_seconds"`
	All           StatsSnapshot            `json:"all"`
	ByOp          map[string]StatsSnapshot `json:"by_op"`
}

// LLMStats tracks recent model call latencies within a rolling window.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLLMStats(maxAge time.Duration) *LLMStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LLMStats{samples: make([]sample, 0, 64), maxAge: maxAge}
}

// Record adds one call with its estimated input tokens. Negative
// durations and token counts count as zero.
func (s *LLMStats) Record(op string, d time.Duration, inputTokens int, err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		at:     now,
		op:     op,
		ms:     max(d.Milliseconds(), 0),
		tokens: max(inputTokens, 0),
		failed: err != nil,
	})
}

func (s *LLMStats) Snapshot() StatsReport {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	byOp := make(map[string][]sample)
	for _, sm := range s.samples {
		byOp[sm.op] = append(byOp[sm.op], sm)
	}
	rep := StatsReport{
		WindowSeconds: int(s.maxAge.Seconds()),
		All:           aggregate(s.samples),
		ByOp:          make(map[string]StatsSnapshot, len(byOp)),
	}
	for op, samples := range byOp {
		rep.ByOp[op] = aggregate(samples)
	}
	return rep
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	kept := s.samples[:0]
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	s.samples = kept
}

func aggregate(samples []sample) StatsSnapshot {
	if len(samples) == 0 {
		return StatsSnapshot{}
	}
	values := make([]int64, 0, len(samples))
	var sum int64
	var failures, tokens int
	for _, sm := range samples {
		values = append(values, sm.ms)
		sum += sm.ms
		tokens += sm.tokens
		if sm.failed {
			failures++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count:          len(values),
		Failures:       failures,
		MinMs:          values[0],
		MaxMs:          values[len(values)-1],
		AvgMs:          float64(sum) / float64(len(values)),
		P50Ms:          percentile(values, 50),
		P95Ms:          percentile(values, 95),
		P99Ms:          percentile(values, 99),
		InputTokens:    tokens,
		AvgInputTokens: float64(tokens) / float64(len(values)),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(index-float64(lower))
}
