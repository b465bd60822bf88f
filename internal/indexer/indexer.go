// Package indexer ingests resume files into storage and the keyword index.
package indexer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/extract"
	"github.com/hyperjump/resumerag/internal/fileid"
	"github.com/hyperjump/resumerag/internal/keyword"
	"github.com/hyperjump/resumerag/internal/metrics"
	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/storage"
)

// UploadURLPrefix is the URL path under which stored uploads are served.
const UploadURLPrefix = "/uploads/"

// BulkDescription is the description given to resumes ingested from a ZIP archive.
const BulkDescription = "Bulk upload"

// maxZipEntryBytes bounds a single decompressed archive entry.
const maxZipEntryBytes = 50 << 20

// zipExtensions are the archive entries treated as resumes.
var zipExtensions = []string{".pdf", ".docx"}

// Indexer ingests resumes into storage and the keyword index.
type Indexer struct {
	storage   storage.Storage
	keywords  keyword.Index
	extractor *extract.Extractor
	uploadDir string
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer. Uploaded files are written under uploadDir.
func NewIndexer(store storage.Storage, keywords keyword.Index, extractor *extract.Extractor, uploadDir string, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:   store,
		keywords:  keywords,
		extractor: extractor,
		uploadDir: uploadDir,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.extractor == nil {
		idx.extractor = extract.NewExtractor()
	}
	return idx
}

// UploadInput is a single uploaded resume file.
type UploadInput struct {
	Filename    string
	Data        []byte
	Title       string
	Description string
	OwnerID     string
}

// IngestUpload stores an uploaded resume. The file type is sniffed from its bytes; the
// file is kept under the upload directory with a random name. Text extraction failures
// are logged and the resume is stored with empty content.
func (idx *Indexer) IngestUpload(ctx context.Context, in UploadInput) (*models.Document, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", models.ErrInvalidArgument)
	}
	ext, err := extract.ResolveExtension(in.Filename, in.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}
	if err := idx.checkOwner(ctx, in.OwnerID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = baseName(in.Filename)
	}
	doc, err := idx.ingestBytes(ctx, in.Filename, ext, in.Data, title, in.Description, in.OwnerID)
	if err != nil {
		return nil, err
	}
	metrics.ResumesIngested.WithLabelValues("upload").Inc()
	return doc, nil
}

// IngestZip stores every .pdf and .docx entry of a ZIP archive as a resume titled with the
// entry's base name, in archive order. Directories, other entries and macOS resource forks
// are skipped.
func (idx *Indexer) IngestZip(ctx context.Context, data []byte, ownerID string) ([]*models.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %w", models.ErrInvalidArgument, err)
	}
	if err := idx.checkOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	docs := []*models.Document{}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		if !isResumeEntry(f) {
			continue
		}
		content, err := readZipEntry(f)
		if err != nil {
			idx.logger.Warn("skipping unreadable archive entry", zap.String("entry", f.Name), zap.Error(err))
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		doc, err := idx.ingestBytes(ctx, f.Name, ext, content, baseName(f.Name), BulkDescription, ownerID)
		if err != nil {
			return docs, err
		}
		metrics.ResumesIngested.WithLabelValues("bulk").Inc()
		docs = append(docs, doc)
	}
	idx.logger.Debug("archive ingested", zap.Int("entries", len(zr.File)), zap.Int("resumes", len(docs)))
	return docs, nil
}

func isResumeEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() {
		return false
	}
	name := f.Name
	if strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), "._") {
		return false
	}
	return extensionAllowed(path.Ext(name), zipExtensions)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxZipEntryBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxZipEntryBytes {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxZipEntryBytes)
	}
	return data, nil
}

func (idx *Indexer) ingestBytes(ctx context.Context, filename, ext string, data []byte, title, description, ownerID string) (*models.Document, error) {
	id := uuid.NewString()
	fileURL, err := idx.saveUpload(id+ext, data)
	if err != nil {
		return nil, err
	}
	doc := &models.Document{
		ID:          id,
		Title:       title,
		Description: description,
		FileURL:     fileURL,
		Content:     idx.extractText(filename, data, ext),
		OwnerID:     ownerID,
	}
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		idx.removeUpload(fileURL)
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}
	if err := idx.indexKeywords(ctx, doc); err != nil {
		// A resume that is not searchable is not stored either.
		if delErr := idx.storage.DeleteDocument(ctx, id); delErr != nil {
			idx.logger.Warn("failed to roll back resume", zap.String("id", id), zap.Error(delErr))
		}
		idx.removeUpload(fileURL)
		return nil, err
	}
	if owner, err := idx.storage.GetDocument(ctx, id); err == nil {
		doc.Owner = owner.Owner
	}
	idx.logger.Debug("resume stored", zap.String("id", id), zap.String("file", filename), zap.Int("content_len", len(doc.Content)))
	return doc, nil
}

func (idx *Indexer) saveUpload(name string, data []byte) (string, error) {
	if err := os.MkdirAll(idx.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(idx.uploadDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return UploadURLPrefix + name, nil
}

// removeUpload deletes the stored file behind fileURL. URLs outside the upload directory,
// such as imported source paths, are left alone.
func (idx *Indexer) removeUpload(fileURL string) {
	name, ok := strings.CutPrefix(fileURL, UploadURLPrefix)
	if !ok {
		return
	}
	if err := os.Remove(filepath.Join(idx.uploadDir, filepath.Base(name))); err != nil && !os.IsNotExist(err) {
		idx.logger.Warn("failed to remove upload", zap.String("file", name), zap.Error(err))
	}
}

func (idx *Indexer) extractText(filename string, data []byte, ext string) string {
	text, err := idx.extractor.ExtractBytes(data, ext)
	if err != nil {
		metrics.ExtractionFailures.WithLabelValues(strings.TrimPrefix(ext, ".")).Inc()
		idx.logger.Warn("failed to extract resume text", zap.String("file", filename), zap.Error(err))
		return ""
	}
	return Preprocess(text)
}

func (idx *Indexer) checkOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	if _, err := idx.storage.GetUser(ctx, ownerID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: unknown user %s", models.ErrInvalidArgument, ownerID)
		}
		return err
	}
	return nil
}

// IngestFile stores the resume at path under an ID derived from its absolute path, so
// re-importing updates in place. Files whose mtime and size match the stored copy are skipped.
func (idx *Indexer) IngestFile(ctx context.Context, filePath, ownerID string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if !extract.Supported(ext) {
		return fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, absPath)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}
	if err := idx.checkOwner(ctx, ownerID); err != nil {
		return err
	}

	docID := fileid.FileDocID(absPath)
	existing, err := idx.storage.GetDocument(ctx, docID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to load resume: %w", err)
	}
	if existing != nil && unchanged(existing, absPath, info) {
		// Re-add to the keyword index in case it was rebuilt empty.
		if err := idx.indexKeywords(ctx, existing); err != nil {
			return err
		}
		idx.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	doc := &models.Document{
		ID:          docID,
		Title:       baseName(absPath),
		Description: "Imported from " + filepath.Dir(absPath),
		FileURL:     absPath,
		Content:     idx.extractText(absPath, data, ext),
		OwnerID:     ownerID,
		SourcePath:  absPath,
		SourceMtime: info.ModTime().UnixNano(),
		SourceSize:  info.Size(),
	}
	if err := idx.storage.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store resume: %w", err)
	}
	if err := idx.indexKeywords(ctx, doc); err != nil {
		if existing == nil {
			if delErr := idx.storage.DeleteDocument(ctx, docID); delErr != nil {
				idx.logger.Warn("failed to roll back resume", zap.String("id", docID), zap.Error(delErr))
			}
		}
		return err
	}
	metrics.ResumesIngested.WithLabelValues("file").Inc()
	idx.logger.Debug("file ingested", zap.String("path", absPath), zap.String("id", docID))
	return nil
}

func unchanged(doc *models.Document, absPath string, info os.FileInfo) bool {
	return doc.SourcePath == absPath &&
		doc.SourceMtime == info.ModTime().UnixNano() &&
		doc.SourceSize == info.Size()
}

// IndexDirectory walks dir recursively and ingests every supported resume file.
// It returns the number of files ingested and stops at the first error.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir, ownerID string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !extract.Supported(filepath.Ext(p)) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested.
		if finfo, statErr := os.Stat(p); statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if err := idx.IngestFile(ctx, p, ownerID); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// RemoveFile deletes the resume ingested from path, if any.
func (idx *Indexer) RemoveFile(ctx context.Context, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = idx.DeleteDocument(ctx, fileid.FileDocID(absPath))
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

// DeleteDocument removes a resume from the keyword index and storage, and deletes its
// stored upload file.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	doc, err := idx.storage.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := idx.keywords.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	idx.removeUpload(doc.FileURL)
	idx.logger.Debug("resume deleted", zap.String("id", id))
	return nil
}

// Reindex rebuilds the keyword index from storage: entries for resumes that are no longer
// stored are deleted and every stored resume is indexed again. It returns the number of
// resumes indexed.
func (idx *Indexer) Reindex(ctx context.Context) (int, error) {
	corpus, err := idx.storage.Corpus(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load resumes: %w", err)
	}
	stored := make(map[string]struct{}, len(corpus))
	for _, doc := range corpus {
		stored[doc.ID] = struct{}{}
	}
	indexed, err := idx.keywords.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list keyword index: %w", err)
	}
	stale := 0
	for _, id := range indexed {
		if _, ok := stored[id]; ok {
			continue
		}
		if err := idx.keywords.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to delete from keyword index: %w", err)
		}
		stale++
	}
	if stale > 0 {
		idx.logger.Debug("dropped stale keyword entries", zap.Int("count", stale))
	}
	for i, doc := range corpus {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := idx.indexKeywords(ctx, doc); err != nil {
			return i, err
		}
	}
	return len(corpus), nil
}

func (idx *Indexer) indexKeywords(ctx context.Context, doc *models.Document) error {
	// Underscores in file-derived titles become spaces; the standard analyzer does not split on them.
	forIndex := *doc
	forIndex.Title = strings.ReplaceAll(doc.Title, "_", " ")
	if err := idx.keywords.Index(ctx, &forIndex); err != nil {
		return fmt.Errorf("failed to index keywords: %w", err)
	}
	return nil
}

// baseName returns the file name without directory or extension.
func baseName(name string) string {
	name = path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(name, path.Ext(name))
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
