package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/parser"
	"github.com/dgallion1/themeindex/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleIngest accepts one or two editions of a book. Each language is
// either an uploaded file (form field "uz" or "ru") or a source reference
// ("uz_url" or "ru_url") fetched from the blob store.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Two editions plus 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var editions []pipeline.Edition
	for _, lang := range catalog.Langs {
		ed, ok, err := s.formEdition(r, lang)
		if err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, errTooLarge) {
				code = http.StatusRequestEntityTooLarge
			}
			jsonError(w, err.Error(), code)
			return
		}
		if ok {
			editions = append(editions, ed)
		}
	}
	if len(editions) == 0 {
		jsonError(w, "at least one of uz, ru, uz_url or ru_url is required", http.StatusBadRequest)
		return
	}

	policy, err := pipeline.ParsePolicy(r.FormValue("existing"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(strings.TrimSpace(r.FormValue("book_id")), policy, editions...)
	job.Subject = strings.TrimSpace(r.FormValue("subject"))
	if v := r.FormValue("grade"); v != "" {
		g, err := strconv.Atoi(v)
		if err != nil || g < 1 || g > 11 {
			jsonError(w, "grade must be between 1 and 11", http.StatusBadRequest)
			return
		}
		job.Grade = g
	}

	if err := s.orch.Submit(job); err != nil {
		var dup *pipeline.DuplicateJobError
		switch {
		case errors.As(err, &dup):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":    err.Error(),
				"job_id":   dup.JobID,
				"poll_url": fmt.Sprintf("/api/ingest/%s/status", dup.JobID),
			})
		case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"book_id":  job.BookID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

var errTooLarge = errors.New("file exceeds max size")

func (s *Server) formEdition(r *http.Request, lang catalog.Lang) (pipeline.Edition, bool, error) {
	if ref := strings.TrimSpace(r.FormValue(string(lang) + "_url")); ref != "" {
		filename := sanitizeFilename(path.Base(ref))
		if !parser.IsSupportedExtension(filename) {
			return pipeline.Edition{}, false, fmt.Errorf("%s: unsupported file type: %s", lang, filepath.Ext(filename))
		}
		return pipeline.Edition{Lang: lang, Filename: filename, SourceURL: ref}, true, nil
	}

	file, header, err := r.FormFile(string(lang))
	if errors.Is(err, http.ErrMissingFile) {
		return pipeline.Edition{}, false, nil
	}
	if err != nil {
		return pipeline.Edition{}, false, fmt.Errorf("%s: %w", lang, err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return pipeline.Edition{}, false, fmt.Errorf("%s: unsupported file type: %s", lang, filepath.Ext(filename))
	}
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Edition{}, false, fmt.Errorf("%s: read file: %w", lang, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Edition{}, false, fmt.Errorf("%s: %w (%d bytes)", lang, errTooLarge, s.cfg.MaxUploadBytes)
	}
	return pipeline.NewUploadEdition(lang, filename, data), true, nil
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orch.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":   snap.ID,
		"book_id":  snap.BookID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
