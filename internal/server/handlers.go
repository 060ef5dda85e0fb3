package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/runebook/runebook/internal/sandbox"
	"github.com/runebook/runebook/internal/storage"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Lesson handlers ---

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.All())
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	lesson, ok := s.catalog.Get(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// --- Execution handler ---

// executeRequest is the run contract with the UI. The pointer distinguishes
// an absent code field from a legitimate empty program.
type executeRequest struct {
	Code    *string `json:"code"`
	Runtime string  `json:"runtime"`
	Lesson  string  `json:"lesson"`
}

type executeResponse struct {
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
	Success         bool    `json:"success"`
	ExecutionTimeMS int64   `json:"execution_time_ms"`
	Error           *string `json:"error"`
	Truncated       bool    `json:"truncated"`
}

func outcomeResponse(o *sandbox.Outcome) executeResponse {
	resp := executeResponse{
		Stdout:          o.Stdout,
		Stderr:          o.Stderr,
		Success:         o.Success(),
		ExecutionTimeMS: o.Duration.Milliseconds(),
		Truncated:       o.Truncated,
	}
	if o.Error != "" {
		msg := o.Error
		resp.Error = &msg
	}
	return resp
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Code == nil {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Lesson != "" {
		if _, ok := s.catalog.Get(req.Lesson); !ok {
			writeError(w, http.StatusNotFound, "lesson not found")
			return
		}
	}

	outcome, err := s.runSubmission(r.Context(), sandbox.Submission{
		Code:    *req.Code,
		Runtime: req.Runtime,
	})
	if err != nil {
		// Admission failure: the pool never started this submission.
		writeError(w, http.StatusServiceUnavailable, "server is at capacity, try again")
		return
	}

	if req.Lesson != "" {
		s.recordRun(r.Context(), req.Lesson, *req.Code, outcome)
	}

	writeJSON(w, http.StatusOK, outcomeResponse(outcome))
}

// runSubmission executes through the bounded pool and records metrics.
func (s *Server) runSubmission(ctx context.Context, sub sandbox.Submission) (*sandbox.Outcome, error) {
	s.metrics.ExecutionsInFlight.Inc()
	defer s.metrics.ExecutionsInFlight.Dec()

	outcome, err := s.exec.Execute(ctx, sub)
	if err != nil {
		s.metrics.ExecutionsRejected.Inc()
		return nil, err
	}
	s.metrics.ObserveExecution(outcome)
	return outcome, nil
}

// recordRun upserts lesson progress after an execution. Failures here must
// not fail the request — the outcome already belongs to the caller.
func (s *Server) recordRun(ctx context.Context, slug, code string, o *sandbox.Outcome) {
	err := s.store.UpsertProgress(ctx, &storage.Progress{
		LessonSlug: slug,
		Status:     storage.ProgressStarted,
		LastCode:   code,
		LastRunOK:  o.Success(),
	})
	if err != nil {
		log.Printf("recording progress for %s: %v", slug, err)
	}
}

// --- Progress handlers ---

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.store.ListProgress(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if progress == nil {
		progress = []storage.Progress{}
	}
	writeJSON(w, http.StatusOK, progress)
}

type putProgressRequest struct {
	Status storage.ProgressStatus `json:"status"`
}

func (s *Server) handlePutProgress(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, ok := s.catalog.Get(slug); !ok {
		writeError(w, http.StatusNotFound, "lesson not found")
		return
	}

	var req putProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be 'started' or 'completed'")
		return
	}

	p := &storage.Progress{LessonSlug: slug, Status: req.Status}
	if prev, err := s.store.GetProgress(r.Context(), slug); err == nil {
		p.LastCode = prev.LastCode
		p.LastRunOK = prev.LastRunOK
		p.CreatedAt = prev.CreatedAt
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.store.UpsertProgress(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
