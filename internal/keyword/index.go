// Package keyword provides a full-text index over resume titles and content.
// It narrows the corpus handed to the relevance scorer when keyword prefiltering is on.
package keyword

import (
	"context"

	"github.com/hyperjump/resumerag/internal/models"
)

// Index defines keyword indexing and lookup operations.
type Index interface {
	Index(ctx context.Context, doc *models.Document) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword hit.
type Result struct {
	ID    string
	Score float64
}
