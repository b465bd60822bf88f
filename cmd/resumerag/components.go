package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/config"
	"github.com/hyperjump/resumerag/internal/extract"
	"github.com/hyperjump/resumerag/internal/indexer"
	"github.com/hyperjump/resumerag/internal/keyword"
	"github.com/hyperjump/resumerag/internal/matching"
	"github.com/hyperjump/resumerag/internal/redact"
	"github.com/hyperjump/resumerag/internal/search"
	"github.com/hyperjump/resumerag/internal/server"
	"github.com/hyperjump/resumerag/internal/skills"
	"github.com/hyperjump/resumerag/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex *keyword.BleveIndex
	Extractor    *extract.Extractor
	Skills       *skills.Extractor
	Selector     *search.Selector
	Search       *search.Engine
	Matching     *matching.Engine
	Redactor     *redact.Redactor
	Indexer      *indexer.Indexer
}

// Close releases the store and the keyword index.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

// ServerDeps returns the handler dependencies for the HTTP server.
func (c *Components) ServerDeps() server.Deps {
	return server.Deps{
		Storage:  c.Storage,
		Indexer:  c.Indexer,
		Keywords: c.KeywordIndex,
		Selector: c.Selector,
		Search:   c.Search,
		Matching: c.Matching,
		Redactor: c.Redactor,
	}
}

// loadSkills returns the extractor for the configured table, or the built-in one.
func loadSkills(cfg *config.Config) (*skills.Extractor, error) {
	if cfg.Skills.TablePath == "" {
		return skills.NewDefaultExtractor(), nil
	}
	table, err := skills.LoadTable(cfg.Skills.TablePath)
	if err != nil {
		return nil, err
	}
	return skills.NewExtractor(table)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	skillExtractor, err := loadSkills(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load skill table: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	extractor := extract.NewExtractor()
	matcher := matching.NewMatcher(skillExtractor, matching.Options{
		DedupeKeywords: cfg.Matching.DedupeKeywords,
		ClampScore:     cfg.Matching.ClampScore,
		MaxEvidence:    cfg.Matching.MaxEvidence,
	})

	c := &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Extractor:    extractor,
		Skills:       skillExtractor,
		Selector:     search.NewSelector(store, keywordIndex, cfg.Search.Prefilter, cfg.Search.KeywordCandidates),
		Search:       search.NewEngine(search.WithWorkers(cfg.Search.Workers)),
		Matching:     matching.NewEngine(matcher, matching.WithWorkers(cfg.Matching.Workers)),
		Redactor:     redact.New(),
		Indexer:      indexer.NewIndexer(store, keywordIndex, extractor, cfg.Storage.UploadDir, indexer.WithLogger(logger)),
	}
	logger.Debug("components initialized",
		zap.String("database", cfg.Storage.DatabasePath),
		zap.String("keyword_index", cfg.Storage.KeywordIndexPath),
		zap.String("prefilter", c.Selector.Mode()),
		zap.Int("skill_categories", len(skillExtractor.Table().Categories)),
	)
	return c, nil
}
