package matching

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/ranking"
)

// Engine ranks a corpus of resumes for a job.
type Engine struct {
	matcher *Matcher
	workers int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers sets the number of goroutines used to evaluate a corpus. Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) { e.workers = n }
}

// NewEngine creates a matching engine around m.
func NewEngine(m *Matcher, opts ...EngineOption) *Engine {
	e := &Engine{matcher: m}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Matcher returns the engine's matcher.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// Match evaluates every resume in corpus against job and returns the topN by match
// score, ties in corpus order. TotalCandidates is len(corpus).
func (e *Engine) Match(ctx context.Context, job *models.JobPosting, topN int, corpus []*models.Document) (*models.MatchResponse, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: job is required", models.ErrInvalidArgument)
	}
	if topN < 0 {
		return nil, fmt.Errorf("%w: top_n must not be negative", models.ErrInvalidArgument)
	}
	profile := e.matcher.Profile(job)

	scored := make([]ranking.Scored[*models.MatchResult], len(corpus))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range corpus {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := e.matcher.Evaluate(profile, doc)
			scored[i] = ranking.Scored[*models.MatchResult]{Item: r, Score: r.MatchScore}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.MatchResponse{
		Job:             models.JobRef{ID: job.ID, Title: job.Title, Company: job.Company},
		Matches:         ranking.Items(ranking.TopK(scored, topN)),
		TotalCandidates: len(corpus),
	}, nil
}
