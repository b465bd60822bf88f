package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/config"
	"github.com/hyperjump/resumerag/internal/metrics"
	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/storage"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxJSONBody      = 1 << 20
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// validationError flattens validator errors into "field: tag" pairs.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return fmt.Errorf("%w: validation failed (%s)", models.ErrInvalidArgument, strings.Join(fields, ", "))
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if !s.decodeJSON(w, r, &query) {
		return
	}
	if err := query.Validate(s.config.Search.DefaultK, s.config.Search.MaxK); err != nil {
		s.respondErr(w, err)
		return
	}
	s.logger.Debug("ask request", zap.String("query", query.Query), zap.Int("k", query.Limit()))

	start := time.Now()
	corpus, err := s.selector.Select(r.Context(), query.Query)
	if err != nil {
		metrics.ObserveEngine(metrics.OpSearch, start, 0, err)
		s.logger.Error("ask: corpus selection failed", zap.String("prefilter", s.selector.Mode()), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	resp, err := s.search.Search(r.Context(), query.Query, query.Limit(), corpus)
	metrics.ObserveEngine(metrics.OpSearch, start, len(corpus), err)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in models.JobInput
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if err := getValidator().Struct(in); err != nil {
		s.respondErr(w, validationError(err))
		return
	}
	ctx := r.Context()
	if _, err := s.storage.GetUser(ctx, in.PostedBy); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			err = fmt.Errorf("%w: unknown user %s", models.ErrInvalidArgument, in.PostedBy)
		}
		s.respondErr(w, err)
		return
	}
	job := in.ToJob(uuid.NewString())
	if err := s.storage.CreateJob(ctx, job); err != nil {
		s.logger.Error("create job failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	// Re-read for the poster summary.
	if stored, err := s.storage.GetJob(ctx, job.ID); err == nil {
		job = stored
	}
	s.logger.Debug("job created", zap.String("id", job.ID), zap.String("title", job.Title))
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "Job created successfully", "job": job})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.storage.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	q := r.URL.Query()
	jobs, total, err := s.storage.ListJobs(r.Context(), storage.JobFilter{
		Query:   q.Get("q"),
		Company: q.Get("company"),
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		s.logger.Error("list jobs failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"jobs":       jobs,
		"pagination": models.NewPagination(total, limit, offset),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an empty one means the default top_n.
	var req models.MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Matching.DefaultTopN); err != nil {
		s.respondErr(w, err)
		return
	}
	ctx := r.Context()
	job, err := s.storage.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		s.respondErr(w, err)
		return
	}
	s.logger.Debug("match request", zap.String("job", job.ID), zap.Int("top_n", *req.TopN))

	start := time.Now()
	corpus, err := s.storage.Corpus(ctx)
	if err != nil {
		metrics.ObserveEngine(metrics.OpMatch, start, 0, err)
		s.respondErr(w, err)
		return
	}
	resp, err := s.matching.Match(ctx, job, *req.TopN, corpus)
	metrics.ObserveEngine(metrics.OpMatch, start, len(corpus), err)
	if err != nil {
		s.logger.Error("match failed", zap.String("job", job.ID), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		s.respondError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	if err := getValidator().Struct(in); err != nil {
		s.respondErr(w, validationError(err))
		return
	}
	u := &models.User{ID: uuid.NewString(), Name: in.Name, Email: in.Email}
	if err := s.storage.CreateUser(r.Context(), u); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "User created successfully", "user": u})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count resumes failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	jobCount, err := s.storage.CountJobs(ctx)
	if err != nil {
		s.logger.Error("status: count jobs failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	userCount, err := s.storage.CountUsers(ctx)
	if err != nil {
		s.logger.Error("status: count users failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	resp := map[string]any{
		"resumes": docCount,
		"jobs":    jobCount,
		"users":   userCount,
	}
	if s.keywords != nil {
		if n, err := s.keywords.DocCount(); err == nil {
			resp["keyword_index_size"] = n
		}
	}

	s.configMu.Lock()
	st := s.config.Storage
	resp["config"] = map[string]any{
		"prefilter":          s.config.Search.Prefilter,
		"default_k":          s.config.Search.DefaultK,
		"max_k":              s.config.Search.MaxK,
		"default_top_n":      s.config.Matching.DefaultTopN,
		"database_path":      st.DatabasePath,
		"keyword_index_path": st.KeywordIndexPath,
		"upload_dir":         st.UploadDir,
		"watch_directories":  s.config.Watch.Directories,
	}
	s.configMu.Unlock()

	if diskBytes, err := storage.DiskUsageBytes(st.DatabasePath, st.KeywordIndexPath, st.UploadDir); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path" validate:"required"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := getValidator().Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondErr(w, err)
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if s.configPath == "" {
		return
	}
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// pageParams reads limit and offset, defaulting to 10 and 0.
func pageParams(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultPageLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("%w: limit must be a non-negative integer", models.ErrInvalidArgument)
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("%w: offset must be a non-negative integer", models.ErrInvalidArgument)
		}
	}
	return limit, offset, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps the error taxonomy to a status code.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
