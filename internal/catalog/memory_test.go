package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestLocalized(t *testing.T) {
	var l Localized
	assert.False(t, l.Has(LangUz))
	l.Set(LangRu, "Глава")
	assert.Equal(t, "Глава", l.Get(LangRu))
	assert.Equal(t, "Глава", l.Preferred(LangUz))
	l.Set(LangUz, "Bob")
	assert.Equal(t, "Bob", l.Preferred(LangUz))
	l.Set(LangUz, "")
	assert.Nil(t, l.Uz)
}

func TestParseLang(t *testing.T) {
	lang, err := ParseLang(" RU ")
	require.NoError(t, err)
	assert.Equal(t, LangRu, lang)
	_, err = ParseLang("en")
	assert.Error(t, err)
}

func TestThemeValidate(t *testing.T) {
	ok := Theme{BookID: "b", OrderIndex: 1, Title: Localized{Uz: strp("A")}, StartPage: 0, EndPage: 3}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.OrderIndex = 0
	assert.Error(t, bad.Validate())

	bad = ok
	bad.EndPage = -1
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Title = Localized{}
	assert.Error(t, bad.Validate())
}

func TestMemoryStoreThemes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	book := &Book{Subject: "math", Grade: 5}
	require.NoError(t, s.CreateBook(ctx, book))
	require.NotEmpty(t, book.ID)

	for _, idx := range []int{2, 1, 3} {
		th := &Theme{BookID: book.ID, OrderIndex: idx, Title: Localized{Uz: strp("T")}, StartPage: idx, EndPage: idx}
		require.NoError(t, s.InsertTheme(ctx, th))
		assert.NotEmpty(t, th.ID)
	}

	dup := &Theme{BookID: book.ID, OrderIndex: 2, Title: Localized{Uz: strp("T")}}
	assert.Error(t, s.InsertTheme(ctx, dup))

	n, err := s.CountThemes(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	themes, err := s.ListThemes(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, themes, 3)
	for i, th := range themes {
		assert.Equal(t, i+1, th.OrderIndex)
	}

	got, err := s.GetTheme(ctx, themes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, themes[0], *got)

	all, err := s.ListAllThemesWithBook(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "math", all[0].Book.Subject)

	removed, err := s.DeleteThemes(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, err = s.GetTheme(ctx, themes[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUnknownBook(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.InsertTheme(ctx, &Theme{BookID: "missing", OrderIndex: 1, Title: Localized{Ru: strp("T")}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgx5DSN(t *testing.T) {
	assert.Equal(t, "pgx5://u@h/db", pgx5DSN("postgres://u@h/db"))
	assert.Equal(t, "pgx5://u@h/db", pgx5DSN("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://u@h/db", pgx5DSN("pgx5://u@h/db"))
}
