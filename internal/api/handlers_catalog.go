package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/parser"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.ListBooks(r.Context())
	if err != nil {
		s.log.Error("list books failed", "error", err)
		jsonError(w, "failed to list books", http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []catalog.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	book, err := s.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		s.catalogError(w, "book", err)
		return
	}
	themes, err := s.catalog.ListThemes(r.Context(), bookID)
	if err != nil {
		s.catalogError(w, "themes", err)
		return
	}
	if themes == nil {
		themes = []catalog.Theme{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": book, "themes": themes})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	th, book, ok := s.loadTheme(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": th, "book": book})
}

// handleThemePDF cuts the theme's page range out of the book's PDF source
// for the requested language.
func (s *Server) handleThemePDF(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		jsonError(w, "blob store not configured", http.StatusServiceUnavailable)
		return
	}
	th, book, ok := s.loadTheme(w, r)
	if !ok {
		return
	}
	lang, ok := langParam(w, r.URL.Query().Get("lang"), book.Source)
	if !ok {
		return
	}
	ref := book.Source.Get(lang)
	if !strings.EqualFold(path.Ext(ref), ".pdf") {
		jsonError(w, fmt.Sprintf("no pdf source for %s edition", lang), http.StatusUnprocessableEntity)
		return
	}

	data, err := s.blobs.Fetch(r.Context(), ref, s.cfg.MaxUploadBytes)
	if err != nil {
		s.log.Error("fetch source failed", "ref", ref, "error", err)
		jsonError(w, "failed to fetch source", http.StatusBadGateway)
		return
	}
	var out bytes.Buffer
	if err := parser.ExtractPages(bytes.NewReader(data), &out, th.StartPage, th.EndPage); err != nil {
		s.log.Error("extract pages failed", "theme_id", th.ID, "error", err)
		jsonError(w, "failed to extract pages", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="theme-%d-%s.pdf"`, th.OrderIndex, lang))
	_, _ = w.Write(out.Bytes())
}

func (s *Server) loadTheme(w http.ResponseWriter, r *http.Request) (*catalog.Theme, *catalog.Book, bool) {
	th, err := s.catalog.GetTheme(r.Context(), chi.URLParam(r, "themeID"))
	if err != nil {
		s.catalogError(w, "theme", err)
		return nil, nil, false
	}
	book, err := s.catalog.GetBook(r.Context(), th.BookID)
	if err != nil {
		s.catalogError(w, "book", err)
		return nil, nil, false
	}
	return th, book, true
}

func (s *Server) catalogError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		jsonError(w, what+" not found", http.StatusNotFound)
		return
	}
	s.log.Error("catalog lookup failed", "what", what, "error", err)
	jsonError(w, "failed to load "+what, http.StatusInternalServerError)
}

// langParam parses an optional language. Without one it picks the first
// language that has a value in avail.
func langParam(w http.ResponseWriter, v string, avail catalog.Localized) (catalog.Lang, bool) {
	if v != "" {
		lang, err := catalog.ParseLang(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return "", false
		}
		return lang, true
	}
	for _, lang := range catalog.Langs {
		if avail.Has(lang) {
			return lang, true
		}
	}
	return catalog.LangUz, true
}
