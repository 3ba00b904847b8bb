package api

import (
	"net/http"
)

const defaultRecentSearches = 20

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.cfg.AnthropicModel,
		"stats": s.ai.Stats().Snapshot(),
	})
}

func (s *Server) handleSearchStats(w http.ResponseWriter, r *http.Request) {
	recent, ok := intParam(w, r.URL.Query().Get("recent"), "recent")
	if !ok {
		return
	}
	if recent == 0 {
		recent = defaultRecentSearches
	}
	sum, err := s.analytics.Summary(r.Context(), recent)
	if err != nil {
		s.log.Error("search stats failed", "error", err)
		jsonError(w, "search stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
