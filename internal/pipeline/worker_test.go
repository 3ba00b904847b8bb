package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		WorkerCount:     1,
		MaxQueueSize:    4,
		MaxUploadBytes:  1 << 20,
		JobTTL:          time.Hour,
		MaxContentChars: 8000,
		MinContentChars: 50,
	}
}

// bookText builds a form-feed paginated textbook with a heading line on
// every `every`th page.
func bookText(pages, every int, heading func(n int) string, body string) []byte {
	out := make([]string, pages)
	for p := range pages {
		var lines []string
		if p%every == 0 {
			lines = append(lines, heading(p/every+1))
		}
		lines = append(lines,
			fmt.Sprintf("%s %d.", body, p+1),
			body+" va yana bir qator matn.",
		)
		out[p] = strings.Join(lines, "\n")
	}
	return []byte(strings.Join(out, "\f"))
}

func uzBook() []byte {
	return bookText(24, 6, func(n int) string { return fmt.Sprintf("%d-dars. Mavzu raqami %d", n, n) },
		"Bu sahifada darslik matni joylashgan")
}

func ruBook() []byte {
	return bookText(24, 8, func(n int) string { return fmt.Sprintf("Урок %d. Тема номер %d", n, n) },
		"Это страница учебника с обычным текстом")
}

func newTestWorker(store catalog.Store, blobs BlobStore) *Worker {
	cfg := testConfig()
	proc := NewProcessor(cfg.Segment(), cfg.Gate(), cfg.Parser(), discardLogger())
	return NewWorker(proc, store, blobs, nil, discardLogger(), cfg.MaxUploadBytes)
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Fetch(_ context.Context, ref string, _ int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.puts = append(f.puts, key)
	return nil
}

// failingStore rejects InsertTheme for the listed order indexes, or for
// every theme when all is set.
type failingStore struct {
	catalog.Store
	failOrder map[int]bool
	all       bool
}

func (f *failingStore) InsertTheme(ctx context.Context, t *catalog.Theme) error {
	if f.all || f.failOrder[t.OrderIndex] {
		return fmt.Errorf("insert theme %d: connection reset", t.OrderIndex)
	}
	return f.Store.InsertTheme(ctx, t)
}

func TestWorker_BilingualBook(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	w := newTestWorker(store, nil)

	job := NewJob("", PolicySkip,
		NewUploadEdition(catalog.LangUz, "fizika_7_sinf.txt", uzBook()),
		NewUploadEdition(catalog.LangRu, "fizika_7_klass.txt", ruBook()),
	)
	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Strategies[catalog.LangUz] != "heuristic" {
		t.Errorf("expected heuristic uz strategy, got %q", snap.Progress.Strategies[catalog.LangUz])
	}
	if snap.Progress.PageCounts[catalog.LangRu] != 24 {
		t.Errorf("expected 24 ru pages, got %d", snap.Progress.PageCounts[catalog.LangRu])
	}
	if !snap.Progress.Mismatch || len(snap.Progress.Notes) != 1 {
		t.Errorf("expected mismatch note, got mismatch=%v notes=%v", snap.Progress.Mismatch, snap.Progress.Notes)
	}
	if snap.Progress.ThemesMerged != 4 || snap.Progress.ThemesStored != 4 {
		t.Errorf("expected 4 merged and stored, got %d and %d", snap.Progress.ThemesMerged, snap.Progress.ThemesStored)
	}

	book, err := store.GetBook(ctx, snap.BookID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if book.Subject != "fizika" || book.Grade != 7 {
		t.Errorf("expected fizika grade 7, got %s grade %d", book.Subject, book.Grade)
	}
	if book.Source.Get(catalog.LangUz) != "fizika_7_sinf.txt" {
		t.Errorf("expected uz source to be the file name, got %q", book.Source.Get(catalog.LangUz))
	}

	themes, err := store.ListThemes(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListThemes: %v", err)
	}
	if len(themes) != 4 {
		t.Fatalf("expected 4 themes, got %d", len(themes))
	}
	first := themes[0]
	if !strings.HasPrefix(first.Title.Get(catalog.LangUz), "1-dars") {
		t.Errorf("unexpected uz title %q", first.Title.Get(catalog.LangUz))
	}
	if !strings.HasPrefix(first.Title.Get(catalog.LangRu), "Урок 1") {
		t.Errorf("unexpected ru title %q", first.Title.Get(catalog.LangRu))
	}
	if first.StartPage != 0 || first.EndPage != 5 {
		t.Errorf("expected first theme to span uz pages 0-5, got %d-%d", first.StartPage, first.EndPage)
	}
	last := themes[3]
	if got := last.Title.Get(catalog.LangRu); got != "Section 4" {
		t.Errorf("expected padded ru title %q, got %q", "Section 4", got)
	}
	if last.Body.Has(catalog.LangRu) {
		t.Errorf("expected last theme to have no ru body")
	}
	for i, th := range themes {
		if th.OrderIndex != i+1 {
			t.Errorf("theme %d has order index %d", i, th.OrderIndex)
		}
	}
}

func TestWorker_SkipAndReplaceExisting(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	w := newTestWorker(store, nil)

	first := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "tarix_6_sinf.txt", uzBook()))
	w.Process(ctx, first)
	bookID := first.Snapshot().BookID
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected first job to complete, got %q", first.Snapshot().Status)
	}

	skip := NewJob(bookID, PolicySkip, NewUploadEdition(catalog.LangRu, "tarix_6_klass.txt", ruBook()))
	w.Process(ctx, skip)
	if got := skip.Snapshot().Status; got != StatusSkipped {
		t.Errorf("expected skipped, got %q", got)
	}
	if n, _ := store.CountThemes(ctx, bookID); n != 4 {
		t.Errorf("expected 4 themes after skip, got %d", n)
	}

	replace := NewJob(bookID, PolicyReplace, NewUploadEdition(catalog.LangRu, "tarix_6_klass.txt", ruBook()))
	w.Process(ctx, replace)
	snap := replace.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected replace to complete, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ThemesReplaced != 4 || snap.Progress.ThemesStored != 3 {
		t.Errorf("expected 4 replaced and 3 stored, got %d and %d", snap.Progress.ThemesReplaced, snap.Progress.ThemesStored)
	}
	themes, _ := store.ListThemes(ctx, bookID)
	if len(themes) != 3 || themes[0].Title.Has(catalog.LangUz) {
		t.Errorf("expected 3 ru-only themes, got %d", len(themes))
	}
}

func TestWorker_BrokenEditionIsPartial(t *testing.T) {
	store := catalog.NewMemoryStore()
	w := newTestWorker(store, nil)

	job := NewJob("", PolicySkip,
		NewUploadEdition(catalog.LangUz, "kitob.txt", uzBook()),
		NewUploadEdition(catalog.LangRu, "empty.txt", []byte("\n")),
	)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 || !strings.HasPrefix(snap.Progress.Errors[0], "ru:") {
		t.Errorf("expected one ru error, got %v", snap.Progress.Errors)
	}
	if snap.Progress.ThemesStored != 4 || snap.Progress.Mismatch {
		t.Errorf("expected 4 uz themes without mismatch, got %d mismatch=%v", snap.Progress.ThemesStored, snap.Progress.Mismatch)
	}
}

func TestWorker_NoUsableEditionFails(t *testing.T) {
	store := catalog.NewMemoryStore()
	w := newTestWorker(store, nil)

	job := NewJob("", PolicySkip, Edition{Lang: catalog.LangUz, Filename: "a.pdf", SourceURL: "books/a.pdf"})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed, got %q", snap.Status)
	}
	books, _ := store.ListBooks(context.Background())
	if len(books) != 0 {
		t.Errorf("expected no book to be created, got %d", len(books))
	}
}

func TestWorker_BlobSources(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	blobs := newFakeBlobs()
	blobs.objects["incoming/ru.txt"] = ruBook()
	w := newTestWorker(store, blobs)

	job := NewJob("", PolicySkip,
		NewUploadEdition(catalog.LangUz, "kimyo_8_sinf.txt", uzBook()),
		Edition{Lang: catalog.LangRu, Filename: "ru.txt", SourceURL: "incoming/ru.txt"},
	)
	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	book, err := store.GetBook(ctx, snap.BookID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	wantKey := "books/" + book.ID + "/uz.txt"
	if book.Source.Get(catalog.LangUz) != wantKey {
		t.Errorf("expected uz source %q, got %q", wantKey, book.Source.Get(catalog.LangUz))
	}
	if book.Source.Get(catalog.LangRu) != "incoming/ru.txt" {
		t.Errorf("expected ru source to stay the url, got %q", book.Source.Get(catalog.LangRu))
	}
	if len(blobs.puts) != 1 || blobs.puts[0] != wantKey {
		t.Errorf("expected one archived upload, got %v", blobs.puts)
	}
}

func TestWorker_ExplicitBookID(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	w := newTestWorker(store, nil)

	job := NewJob("book-42", PolicySkip, NewUploadEdition(catalog.LangUz, "kitob.txt", uzBook()))
	job.Subject = "matematika"
	job.Grade = 3
	w.Process(ctx, job)

	book, err := store.GetBook(ctx, "book-42")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if book.Subject != "matematika" || book.Grade != 3 {
		t.Errorf("expected overrides to win, got %s grade %d", book.Subject, book.Grade)
	}
}

func TestBookLocks(t *testing.T) {
	locks := newBookLocks()
	unlock := locks.Lock("a")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("a")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(20 * time.Millisecond):
	}

	// Another book is independent.
	locks.Lock("b")()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}

	time.Sleep(10 * time.Millisecond)
	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Errorf("expected lock table to drain, got %d entries", len(locks.locks))
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	store := catalog.NewMemoryStore()
	o := NewOrchestrator(testConfig(), store, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "kitob.txt", uzBook()))
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Terminal() {
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %q", job.Snapshot().Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := o.GetJob(job.ID); got != job {
		t.Error("expected job to be retrievable")
	}
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected completed, got %q", job.Snapshot().Status)
	}
}

func TestOrchestrator_SubmitRejections(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, catalog.NewMemoryStore(), nil, discardLogger())

	if err := o.Submit(NewJob("", PolicySkip)); err == nil {
		t.Error("expected invalid job to be rejected")
	}

	first := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "a.txt", []byte("bir")))
	if err := o.Submit(first); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	dup := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "a.txt", []byte("bir")))
	var dupErr *DuplicateJobError
	if err := o.Submit(dup); !errors.As(err, &dupErr) || dupErr.JobID != first.ID {
		t.Errorf("expected duplicate of %s, got %v", first.ID, err)
	}

	other := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "b.txt", []byte("ikki")))
	if err := o.Submit(other); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}

	o.Stop()
	late := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "c.txt", []byte("uch")))
	if err := o.Submit(late); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestWorker_InsertFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	mem := catalog.NewMemoryStore()
	w := newTestWorker(&failingStore{Store: mem, failOrder: map[int]bool{2: true}}, nil)

	job := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "kimyo_8_sinf.txt", uzBook()))
	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ThemesFailed != 1 || snap.Progress.ThemesStored != 3 {
		t.Errorf("expected 3 stored and 1 failed, got %d and %d", snap.Progress.ThemesStored, snap.Progress.ThemesFailed)
	}
	if len(snap.Progress.Errors) != 1 || !strings.HasPrefix(snap.Progress.Errors[0], "theme 2:") {
		t.Errorf("expected one theme 2 error, got %v", snap.Progress.Errors)
	}

	themes, err := mem.ListThemes(ctx, snap.BookID)
	if err != nil {
		t.Fatalf("ListThemes: %v", err)
	}
	var orders []int
	for _, th := range themes {
		orders = append(orders, th.OrderIndex)
	}
	if fmt.Sprint(orders) != "[1 3 4]" {
		t.Errorf("expected themes 1, 3 and 4 stored, got %v", orders)
	}
}

func TestWorker_AllInsertsFailed(t *testing.T) {
	ctx := context.Background()
	mem := catalog.NewMemoryStore()
	w := newTestWorker(&failingStore{Store: mem, all: true}, nil)

	job := NewJob("", PolicySkip, NewUploadEdition(catalog.LangUz, "kimyo_8_sinf.txt", uzBook()))
	w.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	if snap.Progress.ThemesFailed != 4 || snap.Progress.ThemesStored != 0 {
		t.Errorf("expected 4 failed and 0 stored, got %d and %d", snap.Progress.ThemesFailed, snap.Progress.ThemesStored)
	}
	if n, _ := mem.CountThemes(ctx, snap.BookID); n != 0 {
		t.Errorf("expected no stored themes, got %d", n)
	}
}

func TestWorker_UnknownLanguageFailsWithoutPanic(t *testing.T) {
	w := newTestWorker(catalog.NewMemoryStore(), nil)

	job := NewJob("", PolicySkip, NewUploadEdition(catalog.Lang("UZ"), "a.txt", uzBook()))
	if err := job.Validate(); err == nil {
		t.Fatal("expected Validate to reject a non-canonical language")
	}

	w.Process(context.Background(), job)
	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected failed, got %q", got)
	}
}
