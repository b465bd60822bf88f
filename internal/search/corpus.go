package search

import (
	"context"
	"fmt"

	"github.com/hyperjump/resumerag/internal/keyword"
	"github.com/hyperjump/resumerag/internal/models"
)

// Prefilter modes.
const (
	PrefilterNone      = "none"
	PrefilterSubstring = "substring"
	PrefilterKeyword   = "keyword"
)

// CorpusStore enumerates stored resumes in creation order.
type CorpusStore interface {
	Corpus(ctx context.Context) ([]*models.Document, error)
	CorpusContaining(ctx context.Context, q string) ([]*models.Document, error)
	CorpusByIDs(ctx context.Context, ids []string) ([]*models.Document, error)
}

// Selector picks the resumes a query is scored against.
type Selector struct {
	store      CorpusStore
	keywords   keyword.Index
	mode       string
	candidates int
}

// NewSelector returns a selector for mode. keywords is only used in keyword mode and
// candidates bounds the hits taken from it.
func NewSelector(store CorpusStore, keywords keyword.Index, mode string, candidates int) *Selector {
	if mode == "" {
		mode = PrefilterNone
	}
	return &Selector{store: store, keywords: keywords, mode: mode, candidates: candidates}
}

// Mode returns the prefilter mode.
func (s *Selector) Mode() string {
	return s.mode
}

// Select returns the corpus for query, always in creation order so ranking ties stay stable.
func (s *Selector) Select(ctx context.Context, query string) ([]*models.Document, error) {
	switch s.mode {
	case PrefilterNone:
		return s.store.Corpus(ctx)
	case PrefilterSubstring:
		return s.store.CorpusContaining(ctx, query)
	case PrefilterKeyword:
		if s.keywords == nil {
			return nil, fmt.Errorf("keyword prefilter requires a keyword index")
		}
		hits, err := s.keywords.Search(ctx, query, s.candidates)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		return s.store.CorpusByIDs(ctx, ids)
	default:
		return nil, fmt.Errorf("unknown prefilter %q", s.mode)
	}
}
