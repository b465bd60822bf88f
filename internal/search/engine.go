// Package search ranks resumes against a free-text query.
package search

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/ranking"
)

// Engine scores a corpus against a query and returns the top k results.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	scorer  *Scorer
	workers int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers sets the number of goroutines used to score a corpus. Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) { e.workers = n }
}

// NewEngine creates a search engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{scorer: NewScorer()}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Scorer returns the engine's scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Search scores every document in corpus, sorts by descending score with ties kept in
// corpus order, and returns the first k. Zero-score documents are not filtered out.
// An empty query or negative k returns models.ErrInvalidArgument; a cancelled context
// returns the context error and no partial results.
func (e *Engine) Search(ctx context.Context, query string, k int, corpus []*models.Document) (*models.SearchResponse, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", models.ErrInvalidArgument)
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: k must not be negative", models.ErrInvalidArgument)
	}

	scored := make([]ranking.Scored[*models.Document], len(corpus))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range corpus {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored[i] = ranking.Scored[*models.Document]{Item: doc, Score: e.scorer.Score(query, doc)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top := ranking.TopK(scored, k)
	results := make([]*models.SearchResult, len(top))
	for i, s := range top {
		doc := s.Item
		results[i] = &models.SearchResult{
			ResumeID:       doc.ID,
			Title:          doc.Title,
			Snippet:        e.scorer.Snippet(query, doc.Content),
			RelevanceScore: s.Score,
			Candidate:      models.Candidate{Name: doc.Owner.Name, Email: doc.Owner.Email},
		}
	}
	return &models.SearchResponse{
		Query:        query,
		Results:      results,
		TotalMatches: len(results),
	}, nil
}
