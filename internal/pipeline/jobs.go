package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/parser"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusMerging    JobStatus = "merging"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
	StatusSkipped    JobStatus = "skipped"
)

// Terminal reports whether the job has finished.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// ExistingPolicy decides what happens when a book already has themes.
type ExistingPolicy string

const (
	PolicyReplace ExistingPolicy = "replace"
	PolicySkip    ExistingPolicy = "skip"
)

// ParsePolicy maps "" to PolicySkip.
func ParsePolicy(s string) (ExistingPolicy, error) {
	switch ExistingPolicy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return "", fmt.Errorf("unknown existing-themes policy %q", s)
}

// Edition is one language version of the book being ingested. Its bytes
// come from an upload or are fetched from SourceURL by the worker.
type Edition struct {
	Lang      catalog.Lang `json:"lang"`
	Filename  string       `json:"filename"`
	SourceURL string       `json:"source_url,omitempty"`

	data []byte
}

// NewUploadEdition wraps uploaded bytes.
func NewUploadEdition(lang catalog.Lang, filename string, data []byte) Edition {
	return Edition{Lang: lang, Filename: filename, data: data}
}

// Job tracks the state of a single book ingestion.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	BookID string `json:"book_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Editions []Edition      `json:"editions"`
	Subject  string         `json:"subject,omitempty"`
	Grade    int            `json:"grade,omitempty"`
	Policy   ExistingPolicy `json:"policy"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	errors []string
	notes  []string
}

// NewJob returns a queued job. BookID may be empty, in which case the
// worker creates a book.
func NewJob(bookID string, policy ExistingPolicy, editions ...Edition) *Job {
	now := time.Now()
	return &Job{
		ID:          catalog.NewID(),
		BookID:      bookID,
		Status:      StatusQueued,
		Phase:       "queued",
		Editions:    editions,
		Policy:      policy,
		ContentHash: editionsHash(editions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks that a job names one or two distinct editions in
// supported formats, each with bytes or a source URL. Languages must use
// their canonical lower-case codes.
func (j *Job) Validate() error {
	if len(j.Editions) == 0 || len(j.Editions) > len(catalog.Langs) {
		return fmt.Errorf("job needs 1 or 2 editions, got %d", len(j.Editions))
	}
	seen := make(map[catalog.Lang]bool)
	for _, ed := range j.Editions {
		lang, err := catalog.ParseLang(string(ed.Lang))
		if err != nil {
			return err
		}
		if lang != ed.Lang {
			return fmt.Errorf("edition language %q must be written as %q", ed.Lang, lang)
		}
		if seen[ed.Lang] {
			return fmt.Errorf("duplicate %s edition", ed.Lang)
		}
		seen[ed.Lang] = true
		if !parser.IsSupportedExtension(ed.Filename) {
			return fmt.Errorf("%s edition: unsupported file type %q", ed.Lang, ed.Filename)
		}
		if len(ed.data) == 0 && ed.SourceURL == "" {
			return fmt.Errorf("%s edition: no content", ed.Lang)
		}
	}
	return nil
}

// Progress tracks processing progress.
type Progress struct {
	Strategies     map[catalog.Lang]string `json:"strategies"`
	PageCounts     map[catalog.Lang]int    `json:"page_counts"`
	Candidates     int                     `json:"candidates"`
	ThemesDropped  int                     `json:"themes_dropped"`
	ThemesMerged   int                     `json:"themes_merged"`
	ThemesStored   int                     `json:"themes_stored"`
	ThemesFailed   int                     `json:"themes_failed"`
	ThemesReplaced int                     `json:"themes_replaced"`
	Mismatch       bool                    `json:"mismatch"`
	Notes          []string                `json:"notes"`
	Errors         []string                `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// FindActive returns an unfinished job with the same content hash, if any.
func (s *JobStore) FindActive(hash string) *Job {
	if hash == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		job.mu.Lock()
		match := job.ContentHash == hash && !job.Status.Terminal()
		job.mu.Unlock()
		if match {
			return job
		}
	}
	return nil
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetBookID records the book the job writes to.
func (j *Job) SetBookID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.BookID = id
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// AddNote records a non-fatal observation.
func (j *Job) AddNote(note string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.notes = append(j.notes, note)
	j.UpdatedAt = time.Now()
}

// RecordEdition stores the outcome of segmenting one edition.
func (j *Job) RecordEdition(lang catalog.Lang, strategy string, pages, candidates, dropped int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Progress.Strategies == nil {
		j.Progress.Strategies = make(map[catalog.Lang]string)
		j.Progress.PageCounts = make(map[catalog.Lang]int)
	}
	j.Progress.Strategies[lang] = strategy
	j.Progress.PageCounts[lang] = pages
	j.Progress.Candidates += candidates
	j.Progress.ThemesDropped += dropped
	j.UpdatedAt = time.Now()
}

// SetMerged records the merge result size and whether the editions disagreed.
func (j *Job) SetMerged(n int, mismatch bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ThemesMerged = n
	j.Progress.Mismatch = mismatch
	j.UpdatedAt = time.Now()
}

// AddStored records theme insert outcomes.
func (j *Job) AddStored(stored, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ThemesStored += stored
	j.Progress.ThemesFailed += failed
	j.UpdatedAt = time.Now()
}

// SetReplaced records how many existing themes were deleted.
func (j *Job) SetReplaced(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ThemesReplaced = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string         `json:"job_id"`
	BookID      string         `json:"book_id"`
	Status      JobStatus      `json:"status"`
	Phase       string         `json:"phase"`
	Editions    []Edition      `json:"editions"`
	Policy      ExistingPolicy `json:"policy"`
	Progress    Progress       `json:"progress"`
	ContentHash string         `json:"content_hash,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	p := j.Progress
	p.Errors = append([]string{}, j.errors...)
	p.Notes = append([]string{}, j.notes...)
	p.Strategies = make(map[catalog.Lang]string, len(j.Progress.Strategies))
	for k, v := range j.Progress.Strategies {
		p.Strategies[k] = v
	}
	p.PageCounts = make(map[catalog.Lang]int, len(j.Progress.PageCounts))
	for k, v := range j.Progress.PageCounts {
		p.PageCounts[k] = v
	}

	return JobSnapshot{
		ID:          j.ID,
		BookID:      j.BookID,
		Status:      j.Status,
		Phase:       j.Phase,
		Editions:    append([]Edition{}, j.Editions...),
		Policy:      j.Policy,
		Progress:    p,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// editionsHash identifies a submission by its uploaded bytes or source URLs.
func editionsHash(editions []Edition) string {
	h := sha256.New()
	for _, e := range editions {
		fmt.Fprintf(h, "%s\x00%s\x00", e.Lang, e.SourceURL)
		h.Write(e.data)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
