package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Store persists books and themes. Implementations are safe for concurrent
// use. Stores assign IDs and creation times to records that lack them.
type Store interface {
	CreateBook(ctx context.Context, b *Book) error
	GetBook(ctx context.Context, id string) (*Book, error)
	ListBooks(ctx context.Context) ([]Book, error)

	InsertTheme(ctx context.Context, t *Theme) error
	GetTheme(ctx context.Context, id string) (*Theme, error)
	CountThemes(ctx context.Context, bookID string) (int, error)
	// ListThemes returns a book's themes by order index.
	ListThemes(ctx context.Context, bookID string) ([]Theme, error)
	// DeleteThemes removes a book's themes and returns how many were removed.
	DeleteThemes(ctx context.Context, bookID string) (int, error)

	// ListAllThemesWithBook returns every theme with its book in a stable
	// order: books by creation, themes by order index.
	ListAllThemesWithBook(ctx context.Context) ([]ThemeWithBook, error)
}

// NewID returns a time-ordered UUID.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
