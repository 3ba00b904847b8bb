package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgallion1/themeindex/internal/analytics"
	"github.com/dgallion1/themeindex/internal/search"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	q := search.Query{
		Text:    qv.Get("q"),
		Subject: qv.Get("subject"),
	}
	var ok bool
	if q.Limit, ok = intParam(w, qv.Get("limit"), "limit"); !ok {
		return
	}
	if q.Offset, ok = intParam(w, qv.Get("offset"), "offset"); !ok {
		return
	}
	if q.Grade, ok = intParam(w, qv.Get("grade"), "grade"); !ok {
		return
	}

	page, err := s.engine.Search(r.Context(), q)
	if err != nil {
		s.log.Error("search failed", "query", q.Text, "error", err)
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}

	if q.Text != "" {
		ev := analytics.Event{Query: q.Text, Language: page.Language, Results: page.Total, At: time.Now().UTC()}
		if err := s.analytics.Record(r.Context(), ev); err != nil {
			s.log.Warn("record search failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}
	titles, err := s.engine.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.log.Error("suggest failed", "error", err)
		jsonError(w, "suggest failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": titles})
}

// intParam parses an optional non-negative integer query parameter and
// writes a 400 when it is malformed.
func intParam(w http.ResponseWriter, v, name string) (int, bool) {
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		jsonError(w, name+" must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
