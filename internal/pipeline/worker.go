package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/merge"
)

// BlobStore fetches remote sources and archives uploaded ones.
type BlobStore interface {
	Fetch(ctx context.Context, ref string, maxBytes int64) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Worker processes a single book job.
type Worker struct {
	proc  *Processor
	store catalog.Store
	blobs BlobStore
	locks *bookLocks
	log   *slog.Logger

	maxSourceBytes int64
}

// NewWorker returns a Worker. blobs may be nil, in which case jobs must
// carry their bytes and uploads are not archived.
func NewWorker(proc *Processor, store catalog.Store, blobs BlobStore, locks *bookLocks, log *slog.Logger, maxSourceBytes int64) *Worker {
	if locks == nil {
		locks = newBookLocks()
	}
	return &Worker{
		proc:           proc,
		store:          store,
		blobs:          blobs,
		locks:          locks,
		log:            log,
		maxSourceBytes: maxSourceBytes,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	// Phase 1: Parse and segment each edition. A broken edition does not
	// stop the other one.
	job.SetStatus(StatusParsing, "parsing")
	var (
		segs       []*Segmentation
		data       = make(map[catalog.Lang][]byte)
		editionErr bool
	)
	for _, ed := range job.Editions {
		raw, err := w.editionData(ctx, ed)
		if err != nil {
			log.Error("fetch failed", "lang", ed.Lang, "error", err)
			job.AddError(fmt.Sprintf("%s: fetch: %s", ed.Lang, err))
			editionErr = true
			continue
		}

		job.SetStatus(StatusSegmenting, "segmenting "+string(ed.Lang))
		seg, err := w.proc.ProcessBytes(raw, ed.Filename, ed.Lang)
		if err != nil {
			log.Error("segmentation failed", "lang", ed.Lang, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", ed.Lang, err))
			editionErr = true
			continue
		}
		job.RecordEdition(ed.Lang, seg.Strategy.String(), seg.PageCount, len(seg.Candidates), seg.Dropped)
		log.Info("edition segmented",
			"lang", ed.Lang,
			"strategy", seg.Strategy,
			"pages", seg.PageCount,
			"sections", len(seg.Sections),
			"dropped", seg.Dropped,
		)
		segs = append(segs, seg)
		data[ed.Lang] = raw
	}
	if len(segs) == 0 {
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Resolve or create the book.
	book, err := w.resolveBook(ctx, job, segs, data)
	if err != nil {
		log.Error("book resolution failed", "error", err)
		job.AddError(fmt.Sprintf("book: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetBookID(book.ID)
	log = log.With("book_id", book.ID)

	// Phase 3: Merge editions into themes.
	job.SetStatus(StatusMerging, "merging")
	res := mergeEditions(book.ID, segs)
	job.SetMerged(len(res.Themes), res.Mismatch)
	if res.Mismatch {
		log.Warn("edition section counts differ, aligned by position", "uz", res.CountUz, "ru", res.CountRu)
		job.AddNote(fmt.Sprintf("editions differ: uz has %d sections, ru has %d; aligned by position", res.CountUz, res.CountRu))
	}
	if len(res.Themes) == 0 {
		job.AddError("no viable themes")
		job.SetStatus(StatusFailed, "merging")
		return
	}

	// Phase 4: Store, holding the book lock so no other job writes the
	// same book concurrently.
	job.SetStatus(StatusStoring, "storing")
	unlock := w.locks.Lock(book.ID)
	defer unlock()

	existing, err := w.store.CountThemes(ctx, book.ID)
	if err != nil {
		log.Error("count themes failed", "error", err)
		job.AddError(fmt.Sprintf("count themes: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	if existing > 0 {
		if job.Policy != PolicyReplace {
			log.Info("book already has themes, skipping", "existing", existing)
			job.AddNote(fmt.Sprintf("book already has %d themes", existing))
			job.SetStatus(StatusSkipped, "existing themes")
			return
		}
		removed, err := w.store.DeleteThemes(ctx, book.ID)
		if err != nil {
			log.Error("delete themes failed", "error", err)
			job.AddError(fmt.Sprintf("delete themes: %s", err))
			job.SetStatus(StatusFailed, "storing")
			return
		}
		job.SetReplaced(removed)
	}

	stored, failed := 0, 0
	for i := range res.Themes {
		th := &res.Themes[i]
		if err := w.store.InsertTheme(ctx, th); err != nil {
			log.Error("insert theme failed", "order_index", th.OrderIndex, "error", err)
			job.AddError(fmt.Sprintf("theme %d: %s", th.OrderIndex, err))
			failed++
			continue
		}
		stored++
	}
	job.AddStored(stored, failed)
	log.Info("storage complete", "stored", stored, "failed", failed, "total", len(res.Themes))

	switch {
	case stored == 0:
		job.SetStatus(StatusFailed, "storing")
	case failed > 0 || editionErr:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) editionData(ctx context.Context, ed Edition) ([]byte, error) {
	if len(ed.data) > 0 {
		return ed.data, nil
	}
	if ed.SourceURL == "" {
		return nil, errors.New("edition has neither data nor source url")
	}
	if w.blobs == nil {
		return nil, errors.New("no blob store configured for source urls")
	}
	return w.blobs.Fetch(ctx, ed.SourceURL, w.maxSourceBytes)
}

// resolveBook loads the job's book, or creates it from the inferred
// metadata of the first edition that segmented.
func (w *Worker) resolveBook(ctx context.Context, job *Job, segs []*Segmentation, data map[catalog.Lang][]byte) (*catalog.Book, error) {
	if job.BookID != "" {
		book, err := w.store.GetBook(ctx, job.BookID)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
	}

	book := &catalog.Book{
		ID:      job.BookID,
		Subject: segs[0].Meta.Subject,
		Grade:   segs[0].Meta.Grade,
	}
	if book.ID == "" {
		book.ID = catalog.NewID()
	}
	if job.Subject != "" {
		book.Subject = job.Subject
	}
	if job.Grade > 0 {
		book.Grade = job.Grade
	}
	for _, seg := range segs {
		book.Title.Set(seg.Lang, seg.Meta.Title)
	}
	for _, ed := range job.Editions {
		if raw, ok := data[ed.Lang]; ok {
			book.Source.Set(ed.Lang, w.sourceRef(ctx, book.ID, ed, raw))
		}
	}
	if err := w.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// sourceRef archives an uploaded edition when a blob store is available
// and returns where the source can be found again.
func (w *Worker) sourceRef(ctx context.Context, bookID string, ed Edition, raw []byte) string {
	if ed.SourceURL != "" {
		return ed.SourceURL
	}
	if w.blobs == nil {
		return ed.Filename
	}
	ext := strings.ToLower(filepath.Ext(ed.Filename))
	key := fmt.Sprintf("books/%s/%s%s", bookID, ed.Lang, ext)
	if err := w.blobs.Put(ctx, key, raw, mime.TypeByExtension(ext)); err != nil {
		w.log.Warn("archive upload failed", "key", key, "error", err)
		return ed.Filename
	}
	return key
}

func mergeEditions(bookID string, segs []*Segmentation) merge.Result {
	var uz, ru *Segmentation
	for _, s := range segs {
		switch s.Lang {
		case catalog.LangUz:
			uz = s
		case catalog.LangRu:
			ru = s
		}
	}
	switch {
	case uz != nil && ru != nil:
		return merge.Bilingual(bookID, uz.Sections, ru.Sections)
	case uz != nil:
		return merge.Single(bookID, catalog.LangUz, uz.Sections)
	case ru != nil:
		return merge.Single(bookID, catalog.LangRu, ru.Sections)
	}
	return merge.Result{}
}
