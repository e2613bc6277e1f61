package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/infra/logging"
	"ai-content-platform/internal/infra/redis"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// GET /api/v1/jobs: the list observers poll, created_at descending.
// ?all=1 widens the list beyond the caller's own jobs.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		jobs []*model.GenerationJob
		err  error
	)
	if r.URL.Query().Get("all") == "1" {
		jobs, err = s.orchestrator.ListAllJobs(ctx)
	} else {
		jobs, err = s.orchestrator.ListJobs(ctx, Principal(ctx))
	}
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("list jobs failed")
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":        jobs,
		"should_poll": model.ShouldPoll(jobs),
	})
}

// GET /api/v1/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.orchestrator.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("get job failed")
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type generateRequest struct {
	JobType    string `json:"job_type"`
	Prompt     string `json:"prompt"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
}

// POST /api/v1/generate creates the job and dispatches it asynchronously;
// the caller polls /jobs for the outcome.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := Principal(ctx)

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, redis.GenerateKey(principal), generateLimit, generateWindow)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.orchestrator.GenerateAsync(ctx, model.JobType(req.JobType), req.Prompt, req.TargetType, req.TargetID, principal)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid job type or empty prompt")
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("generate failed")
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if s.poller != nil {
		s.poller.Nudge()
	}
	writeJSON(w, http.StatusAccepted, job)
}

type promoteBlogRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// POST /api/v1/jobs/{id}/promote/blog
func (s *Server) handlePromoteBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req promoteBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.orchestrator.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	post, err := s.persister.PromoteToBlogDraft(ctx, job, req.Title, req.Slug)
	if err != nil {
		s.writePromotionError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

type promoteToolRequest struct {
	ToolSlug string `json:"tool_slug"`
}

// POST /api/v1/jobs/{id}/promote/tool
func (s *Server) handlePromoteTool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req promoteToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.orchestrator.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	tool, err := s.persister.PromoteToToolDescription(ctx, job, req.ToolSlug)
	if err != nil {
		s.writePromotionError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (s *Server) writePromotionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotCompleted):
		writeError(w, http.StatusConflict, "job is not completed")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "missing required fields")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "target not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "target was modified concurrently")
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("promotion failed")
		writeError(w, http.StatusInternalServerError, "promotion failed")
	}
}
