package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/config"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("pipeline stopped")
)

// DuplicateJobError is returned when identical sources are already queued
// or running.
type DuplicateJobError struct {
	JobID string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("identical job %s is already in progress", e.JobID)
}

// Orchestrator manages the book ingestion pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	proc  *Processor
	store catalog.Store
	blobs BlobStore
	locks *bookLocks
	log   *slog.Logger
	cfg   config.Config

	submitMu sync.Mutex
	stopped  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. blobs may be nil.
func NewOrchestrator(cfg config.Config, store catalog.Store, blobs BlobStore, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		proc:  NewProcessor(cfg.Segment(), cfg.Gate(), cfg.Parser(), log),
		store: store,
		blobs: blobs,
		locks: newBookLocks(),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.proc, o.store, o.blobs, o.locks, o.log, o.cfg.MaxUploadBytes)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.submitMu.Lock()
	if o.stopped {
		o.submitMu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.submitMu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit validates and queues a job.
func (o *Orchestrator) Submit(job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	o.submitMu.Lock()
	defer o.submitMu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	if dup := o.jobs.FindActive(job.ContentHash); dup != nil {
		return &DuplicateJobError{JobID: dup.ID}
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Processor returns the segmentation stage for direct use.
func (o *Orchestrator) Processor() *Processor {
	return o.proc
}
