package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/summary"
)

type aiRequest struct {
	Lang      string `json:"lang"`
	Questions int    `json:"questions"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	th, lang, _, ok := s.aiTarget(w, r)
	if !ok {
		return
	}
	text, err := s.ai.Summarize(r.Context(), th.Body.Get(lang), th.Title.Preferred(lang), lang)
	if err != nil {
		s.aiError(w, th, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"theme_id": th.ID,
		"lang":     lang,
		"summary":  text,
	})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	th, lang, req, ok := s.aiTarget(w, r)
	if !ok {
		return
	}
	if req.Questions < 0 || req.Questions > summary.MaxQuestions {
		jsonError(w, fmt.Sprintf("questions must be between 1 and %d", summary.MaxQuestions), http.StatusBadRequest)
		return
	}
	qs, err := s.ai.Quiz(r.Context(), th.Body.Get(lang), th.Title.Preferred(lang), req.Questions, lang)
	if err != nil {
		s.aiError(w, th, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"theme_id":  th.ID,
		"lang":      lang,
		"questions": qs,
	})
}

// aiTarget resolves the theme and language an AI request is about.
func (s *Server) aiTarget(w http.ResponseWriter, r *http.Request) (*catalog.Theme, catalog.Lang, aiRequest, bool) {
	var req aiRequest
	if s.ai == nil {
		jsonError(w, "ai features not configured", http.StatusServiceUnavailable)
		return nil, "", req, false
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return nil, "", req, false
	}
	th, _, ok := s.loadTheme(w, r)
	if !ok {
		return nil, "", req, false
	}
	lang, ok := langParam(w, req.Lang, th.Body)
	if !ok {
		return nil, "", req, false
	}
	if !th.Body.Has(lang) {
		jsonError(w, fmt.Sprintf("theme has no %s content", lang), http.StatusUnprocessableEntity)
		return nil, "", req, false
	}
	return th, lang, req, true
}

func (s *Server) aiError(w http.ResponseWriter, th *catalog.Theme, err error) {
	if errors.Is(err, summary.ErrTooShort) {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.log.Error("ai request failed", "theme_id", th.ID, "error", err)
	jsonError(w, "ai request failed", http.StatusBadGateway)
}
