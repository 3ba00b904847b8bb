package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when no database is configured
// and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	books  []Book
	themes map[string][]Theme // by book ID, sorted by order index
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{themes: make(map[string][]Theme)}
}

func (s *MemoryStore) CreateBook(_ context.Context, b *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = NewID()
	}
	for _, existing := range s.books {
		if existing.ID == b.ID {
			return fmt.Errorf("create book %s: already exists", b.ID)
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.books = append(s.books, *b)
	return nil
}

func (s *MemoryStore) GetBook(_ context.Context, id string) (*Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.bookLocked(id); b != nil {
		out := *b
		return &out, nil
	}
	return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListBooks(_ context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *MemoryStore) InsertTheme(_ context.Context, t *Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bookLocked(t.BookID) == nil {
		return fmt.Errorf("insert theme: book %s: %w", t.BookID, ErrNotFound)
	}
	list := s.themes[t.BookID]
	for _, existing := range list {
		if existing.OrderIndex == t.OrderIndex {
			return fmt.Errorf("insert theme: book %s already has order index %d", t.BookID, t.OrderIndex)
		}
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	list = append(list, *t)
	sort.SliceStable(list, func(i, j int) bool { return list[i].OrderIndex < list[j].OrderIndex })
	s.themes[t.BookID] = list
	return nil
}

func (s *MemoryStore) GetTheme(_ context.Context, id string) (*Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range s.themes {
		for _, t := range list {
			if t.ID == id {
				out := t
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("theme %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) CountThemes(_ context.Context, bookID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.themes[bookID]), nil
}

func (s *MemoryStore) ListThemes(_ context.Context, bookID string) ([]Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Theme, len(s.themes[bookID]))
	copy(out, s.themes[bookID])
	return out, nil
}

func (s *MemoryStore) DeleteThemes(_ context.Context, bookID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.themes[bookID])
	delete(s.themes, bookID)
	return n, nil
}

func (s *MemoryStore) ListAllThemesWithBook(_ context.Context) ([]ThemeWithBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ThemeWithBook
	for _, b := range s.books {
		for _, t := range s.themes[b.ID] {
			out = append(out, ThemeWithBook{Theme: t, Book: b})
		}
	}
	return out, nil
}

func (s *MemoryStore) bookLocked(id string) *Book {
	for i := range s.books {
		if s.books[i].ID == id {
			return &s.books[i]
		}
	}
	return nil
}
