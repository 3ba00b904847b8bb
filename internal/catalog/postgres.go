package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	poolMaxConns        = 10
	poolMinConns        = 1
	poolMaxConnIdleTime = 10 * time.Minute
	connectTimeout      = 5 * time.Second
)

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, dsn string, log *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid dsn: %w", err)
	}
	cfg.MaxConns = poolMaxConns
	cfg.MinConns = poolMinConns
	cfg.MaxConnIdleTime = poolMaxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	log.Info("postgres connected", "max_conns", cfg.MaxConns)
	return pool, nil
}

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const bookColumns = `id, subject, grade, title_uz, title_ru, source_uz, source_ru, created_at`

const themeColumns = `id, book_id, order_index, title_uz, title_ru, content_uz, content_ru,
	start_page, end_page, chapter_number, created_at`

func (s *PostgresStore) CreateBook(ctx context.Context, b *Book) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.Subject, b.Grade, b.Title.Uz, b.Title.Ru, b.Source.Uz, b.Source.Ru, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create book %s: %w", b.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetBook(ctx context.Context, id string) (*Book, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	b, err := scanBook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return b, nil
}

func (s *PostgresStore) ListBooks(ctx context.Context) ([]Book, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InsertTheme(ctx context.Context, t *Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO themes (`+themeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.BookID, t.OrderIndex, t.Title.Uz, t.Title.Ru, t.Body.Uz, t.Body.Ru,
		t.StartPage, t.EndPage, t.ChapterLabel, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert theme %d of book %s: %w", t.OrderIndex, t.BookID, err)
	}
	return nil
}

func (s *PostgresStore) GetTheme(ctx context.Context, id string) (*Theme, error) {
	row := s.db.QueryRow(ctx, `SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)
	t, err := scanTheme(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("theme %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get theme %s: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) CountThemes(ctx context.Context, bookID string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM themes WHERE book_id = $1`, bookID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count themes of book %s: %w", bookID, err)
	}
	return n, nil
}

func (s *PostgresStore) ListThemes(ctx context.Context, bookID string) ([]Theme, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE book_id = $1 ORDER BY order_index`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list themes of book %s: %w", bookID, err)
	}
	defer rows.Close()

	var out []Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteThemes(ctx context.Context, bookID string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM themes WHERE book_id = $1`, bookID)
	if err != nil {
		return 0, fmt.Errorf("delete themes of book %s: %w", bookID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListAllThemesWithBook(ctx context.Context) ([]ThemeWithBook, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.book_id, t.order_index, t.title_uz, t.title_ru, t.content_uz, t.content_ru,
		       t.start_page, t.end_page, t.chapter_number, t.created_at,
		       b.id, b.subject, b.grade, b.title_uz, b.title_ru, b.source_uz, b.source_ru, b.created_at
		FROM themes t
		JOIN books b ON b.id = t.book_id
		ORDER BY b.created_at, b.id, t.order_index`)
	if err != nil {
		return nil, fmt.Errorf("list themes with book: %w", err)
	}
	defer rows.Close()

	var out []ThemeWithBook
	for rows.Next() {
		var tb ThemeWithBook
		t, b := &tb.Theme, &tb.Book
		if err := rows.Scan(
			&t.ID, &t.BookID, &t.OrderIndex, &t.Title.Uz, &t.Title.Ru, &t.Body.Uz, &t.Body.Ru,
			&t.StartPage, &t.EndPage, &t.ChapterLabel, &t.CreatedAt,
			&b.ID, &b.Subject, &b.Grade, &b.Title.Uz, &b.Title.Ru, &b.Source.Uz, &b.Source.Ru, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan theme with book: %w", err)
		}
		out = append(out, tb)
	}
	return out, rows.Err()
}

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Subject, &b.Grade, &b.Title.Uz, &b.Title.Ru, &b.Source.Uz, &b.Source.Ru, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanTheme(row pgx.Row) (*Theme, error) {
	var t Theme
	err := row.Scan(&t.ID, &t.BookID, &t.OrderIndex, &t.Title.Uz, &t.Title.Ru, &t.Body.Uz, &t.Body.Ru,
		&t.StartPage, &t.EndPage, &t.ChapterLabel, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
