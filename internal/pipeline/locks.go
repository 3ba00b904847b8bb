package pipeline

import "sync"

// bookLocks serializes writes per book. Entries are removed once no job
// holds or waits for them.
type bookLocks struct {
	mu    sync.Mutex
	locks map[string]*bookLock
}

type bookLock struct {
	mu   sync.Mutex
	refs int
}

func newBookLocks() *bookLocks {
	return &bookLocks{locks: make(map[string]*bookLock)}
}

// Lock blocks until bookID is free and returns the matching unlock.
func (b *bookLocks) Lock(bookID string) func() {
	b.mu.Lock()
	l, ok := b.locks[bookID]
	if !ok {
		l = &bookLock{}
		b.locks[bookID] = l
	}
	l.refs++
	b.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		b.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(b.locks, bookID)
		}
		b.mu.Unlock()
	}
}
