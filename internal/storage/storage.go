// Package storage defines the persistence interface for users, resumes and job postings.
package storage

import (
	"context"

	"github.com/hyperjump/resumerag/internal/models"
)

// DocumentFilter narrows ListDocuments. Query matches title or content.
type DocumentFilter struct {
	Query   string
	OwnerID string
	Offset  int
	Limit   int
}

// JobFilter narrows ListJobs. Query matches title or description.
type JobFilter struct {
	Query   string
	Company string
	Offset  int
	Limit   int
}

// Storage defines user, resume and job persistence operations.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Resume operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, f DocumentFilter) ([]*models.Document, int, error)

	// Corpus enumeration, always in creation order.
	Corpus(ctx context.Context) ([]*models.Document, error)
	CorpusContaining(ctx context.Context, q string) ([]*models.Document, error)
	CorpusByIDs(ctx context.Context, ids []string) ([]*models.Document, error)

	// Job operations
	CreateJob(ctx context.Context, job *models.JobPosting) error
	GetJob(ctx context.Context, id string) (*models.JobPosting, error)
	ListJobs(ctx context.Context, f JobFilter) ([]*models.JobPosting, int, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountJobs(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)

	Close() error
}
