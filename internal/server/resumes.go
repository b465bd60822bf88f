package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/indexer"
	"github.com/hyperjump/resumerag/internal/metrics"
	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/storage"
)

// parseMultipart caps the body at the configured upload size. It reports false after
// writing the error response.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.respondError(w, http.StatusBadRequest, "content-type must be multipart/form-data")
		return false
	}
	maxBytes := s.config.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

// formFile reads a named file part. A missing part yields ok == false with no error.
func formFile(r *http.Request, field string) (data []byte, header *multipart.FileHeader, ok bool, err error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		return nil, nil, false, err
	}
	return data, header, true, nil
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	data, header, ok, err := formFile(r, "file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid file part")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	userID := strings.TrimSpace(r.FormValue("userId"))
	if !ok || title == "" || userID == "" {
		s.respondError(w, http.StatusBadRequest, "Title, file, and userId are required")
		return
	}
	s.logger.Debug("resume upload", zap.String("filename", header.Filename), zap.Int("bytes", len(data)), zap.String("user", userID))

	doc, err := s.indexer.IngestUpload(r.Context(), indexer.UploadInput{
		Filename:    header.Filename,
		Data:        data,
		Title:       title,
		Description: r.FormValue("description"),
		OwnerID:     userID,
	})
	if err != nil {
		s.logger.Error("resume upload failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "Resume uploaded successfully", "resume": doc})
}

func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	data, _, ok, err := formFile(r, "zip")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid zip part")
		return
	}
	userID := strings.TrimSpace(r.FormValue("userId"))
	if !ok || userID == "" {
		s.respondError(w, http.StatusBadRequest, "ZIP file and userId are required")
		return
	}
	docs, err := s.indexer.IngestZip(r.Context(), data, userID)
	if err != nil {
		s.logger.Error("bulk upload failed", zap.Int("ingested", len(docs)), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.logger.Debug("bulk upload", zap.Int("resumes", len(docs)), zap.String("user", userID))
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "Bulk resumes uploaded successfully", "resumes": docs})
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	q := r.URL.Query()
	docs, total, err := s.storage.ListDocuments(r.Context(), storage.DocumentFilter{
		Query:   q.Get("q"),
		OwnerID: q.Get("userId"),
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		s.logger.Error("list resumes failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	summaries := make([]models.DocumentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = d.Summary()
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"resumes":    summaries,
		"pagination": models.NewPagination(total, limit, offset),
	})
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	doc, err := s.storage.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Resume not found")
			return
		}
		s.respondErr(w, err)
		return
	}
	if r.URL.Query().Get("redactPII") == "true" {
		metrics.ObserveRedactions(s.redactor.Count(doc.Content))
		doc.Content = s.redactor.Redact(doc.Content)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"resume": doc})
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete resume request", zap.String("id", id))
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Resume not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
