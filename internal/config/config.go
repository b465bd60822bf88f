// Package config provides configuration loading and structs for the resumerag server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Prefilter modes select which resumes are handed to the search engine.
const (
	// PrefilterNone scores every stored resume.
	PrefilterNone = "none"
	// PrefilterSubstring scores only resumes whose content contains the whole query.
	PrefilterSubstring = "substring"
	// PrefilterKeyword scores only resumes the keyword index returns for the query.
	PrefilterKeyword = "keyword"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug" env:"RESUMERAG_DEBUG"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	Matching MatchingConfig `yaml:"matching"`
	Skills   SkillsConfig   `yaml:"skills"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `yaml:"host" env:"RESUMERAG_HOST"`
	Port            int      `yaml:"port" env:"PORT"`
	CORSOrigins     []string `yaml:"cors_origins" env:"RESUMERAG_CORS_ORIGINS" envSeparator:","`
	RateLimitPerMin int      `yaml:"rate_limit_per_min" env:"RESUMERAG_RATE_LIMIT_PER_MIN"`
	MaxUploadMB     int64    `yaml:"max_upload_mb" env:"RESUMERAG_MAX_UPLOAD_MB"`
}

// StorageConfig holds paths for the database, keyword index and uploaded files.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path" env:"RESUMERAG_DB_PATH"`
	KeywordIndexPath string `yaml:"keyword_index_path" env:"RESUMERAG_INDEX_PATH"`
	UploadDir        string `yaml:"upload_dir" env:"RESUMERAG_UPLOAD_DIR"`
}

// SearchConfig holds settings for the ask endpoint.
type SearchConfig struct {
	DefaultK  int    `yaml:"default_k"`
	MaxK      int    `yaml:"max_k"`
	Prefilter string `yaml:"prefilter" env:"RESUMERAG_PREFILTER"`
	// KeywordCandidates bounds the hits taken from the keyword index in keyword prefilter mode.
	KeywordCandidates int `yaml:"keyword_candidates"`
	Workers           int `yaml:"workers"`
}

// MatchingConfig holds settings for job matching.
type MatchingConfig struct {
	DefaultTopN    int  `yaml:"default_top_n"`
	DedupeKeywords bool `yaml:"dedupe_keywords"`
	ClampScore     bool `yaml:"clamp_score"`
	MaxEvidence    int  `yaml:"max_evidence"`
	Workers        int  `yaml:"workers"`
}

// SkillsConfig points at an optional YAML skill table; empty uses the built-in table.
type SkillsConfig struct {
	TablePath string `yaml:"table_path" env:"RESUMERAG_SKILLS_TABLE"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// OwnerID is the user that auto-ingested resumes are attributed to.
	OwnerID string `yaml:"owner_id" env:"RESUMERAG_WATCH_OWNER"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, overlays environment variables,
// applies defaults and expands paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := finish(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists: built-in
// defaults with environment overrides. Relative paths resolve against the working directory.
func Default() (*Config, error) {
	var cfg Config
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if err := finish(&cfg, cwd); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config, configDir string) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	if cfg.Skills.TablePath != "" {
		cfg.Skills.TablePath = expandPath(cfg.Skills.TablePath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	return nil
}

// Validate reports settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Search.Prefilter {
	case PrefilterNone, PrefilterSubstring, PrefilterKeyword:
	default:
		return fmt.Errorf("invalid search.prefilter %q: want none, substring or keyword", c.Search.Prefilter)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Search.DefaultK < 0 || c.Search.MaxK < 0 || c.Matching.DefaultTopN < 0 {
		return fmt.Errorf("result limits must not be negative")
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
