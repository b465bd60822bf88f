// Package main is the resumerag CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/cli"
	"github.com/hyperjump/resumerag/internal/config"
	"github.com/hyperjump/resumerag/internal/extract"
	"github.com/hyperjump/resumerag/internal/metrics"
	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/redact"
	"github.com/hyperjump/resumerag/internal/server"
	"github.com/hyperjump/resumerag/internal/storage"
	"github.com/hyperjump/resumerag/internal/watcher"
	"github.com/hyperjump/resumerag/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/resumerag/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present; when neither exists, built-in defaults are used and the
// returned path is empty (nothing is persisted). An explicit path must exist.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "match":
		runMatch()
	case "redact":
		runRedact()
	case "import":
		runImport()
	case "reindex":
		runReindex()
	case "user":
		runUser()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("resumerag version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, builds a CLI logger and opens the components. The caller closes both.
func setup(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, ingestion, watcher events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("prefilter", cfg.Search.Prefilter),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchSvc := watcher.New(watcher.Options{
		Directories: cfg.Watch.Directories,
		Extensions:  cfg.Watch.Extensions,
		Recursive:   cfg.Watch.RecursiveOrDefault(),
		OwnerID:     cfg.Watch.OwnerID,
	}, components.Indexer, watcher.WithLogger(logger))
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(components.ServerDeps(), cfg, logger, watchSvc, resolvedConfigPath)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// flagsFirst moves any flags (and their values) that appear after positional arguments
// to the front so that flag.Parse sees them; the flag package stops at the first
// non-flag argument.
func flagsFirst(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuery joins all positional args with spaces so multi-word queries work the same
// with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func outputFormat(asJSON bool) cli.OutputFormat {
	if asJSON {
		return cli.OutputJSON
	}
	return cli.OutputText
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use the local store)")
	k := fs.Int("k", -1, "number of results (default from config)")
	asJSON := fs.Bool("json", false, "print JSON")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: resumerag ask [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(flagsFirst(os.Args[2:]))

	query := &models.SearchQuery{Query: buildQuery(fs.Args())}
	if query.Query == "" {
		fs.Usage()
		os.Exit(1)
	}
	if *k >= 0 {
		query.K = k
	}

	var response *models.SearchResponse
	var err error
	if *serverURL != "" {
		response, err = askViaHTTP(*serverURL, query)
	} else {
		cfg, logger, components := setup(*configPath)
		defer logger.Sync()
		defer components.Close()
		response, err = askLocal(context.Background(), components, cfg, query)
	}
	if err != nil {
		fatalf("Ask failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, outputFormat(*asJSON)); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func askLocal(ctx context.Context, c *Components, cfg *config.Config, query *models.SearchQuery) (*models.SearchResponse, error) {
	if err := query.Validate(cfg.Search.DefaultK, cfg.Search.MaxK); err != nil {
		return nil, err
	}
	corpus, err := c.Selector.Select(ctx, query.Query)
	if err != nil {
		return nil, err
	}
	return c.Search.Search(ctx, query.Query, query.Limit(), corpus)
}

func runMatch() {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use the local store)")
	top := fs.Int("top", -1, "number of candidates (default from config)")
	asJSON := fs.Bool("json", false, "print JSON")
	xlsxPath := fs.String("xlsx", "", "also write the shortlist to this .xlsx file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: resumerag match [flags] <job-id>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(flagsFirst(os.Args[2:]))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	jobID := fs.Arg(0)

	req := &models.MatchRequest{}
	if *top >= 0 {
		req.TopN = top
	}

	var response *models.MatchResponse
	var names cli.SkillNamer
	var err error
	if *serverURL != "" {
		cfg, _, loadErr := loadConfig(*configPath)
		if loadErr != nil {
			fatalf("Failed to load config: %v", loadErr)
		}
		if ext, skillErr := loadSkills(cfg); skillErr == nil {
			names = ext.Table()
		}
		response, err = matchViaHTTP(*serverURL, jobID, req)
	} else {
		cfg, logger, components := setup(*configPath)
		defer logger.Sync()
		defer components.Close()
		names = components.Skills.Table()
		response, err = matchLocal(context.Background(), components, cfg, jobID, req)
	}
	if err != nil {
		fatalf("Match failed: %v", err)
	}
	if err := cli.WriteMatchResults(os.Stdout, response, names, outputFormat(*asJSON)); err != nil {
		fatalf("Output failed: %v", err)
	}
	if *xlsxPath != "" {
		if err := writeXLSXFile(*xlsxPath, response, names); err != nil {
			fatalf("XLSX export failed: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Shortlist written to %s\n", *xlsxPath)
	}
}

func matchLocal(ctx context.Context, c *Components, cfg *config.Config, jobID string, req *models.MatchRequest) (*models.MatchResponse, error) {
	if err := req.Validate(cfg.Matching.DefaultTopN); err != nil {
		return nil, err
	}
	job, err := c.Storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	corpus, err := c.Storage.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	return c.Matching.Match(ctx, job, *req.TopN, corpus)
}

func writeXLSXFile(path string, response *models.MatchResponse, names cli.SkillNamer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return cli.WriteMatchXLSX(f, response, names)
}

func runRedact() {
	fs := flag.NewFlagSet("redact", flag.ExitOnError)
	stats := fs.Bool("stats", false, "print per-rule replacement counts to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: resumerag redact [flags] [file]\n\nReads stdin when no file is given. PDF and DOCX files are converted to text first.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(flagsFirst(os.Args[2:]))

	var (
		in   io.Reader = os.Stdin
		name string
	)
	if fs.NArg() > 0 {
		name = fs.Arg(0)
		f, err := os.Open(name)
		if err != nil {
			fatalf("Failed to open %s: %v", name, err)
		}
		defer f.Close()
		in = f
	}
	out, counts, err := redactInput(in, name, extract.NewExtractor(), redact.New())
	if err != nil {
		fatalf("Redact failed: %v", err)
	}
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	if *stats {
		for _, rule := range redact.New().Rules() {
			fmt.Fprintf(os.Stderr, "%-20s %d\n", rule, counts[rule])
		}
	}
}

// redactInput reads r as resume text, extracting it by name's extension when supported,
// and returns the redacted text with the replacement counts.
func redactInput(r io.Reader, name string, extractor *extract.Extractor, redactor *redact.Redactor) (string, map[string]int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	text := string(data)
	if ext := strings.ToLower(filepath.Ext(name)); extract.Supported(ext) {
		if text, err = extractor.ExtractBytes(data, ext); err != nil {
			return "", nil, fmt.Errorf("extract %s: %w", name, err)
		}
	}
	counts := redactor.Count(text)
	metrics.ObserveRedactions(counts)
	return redactor.Redact(text), counts, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	owner := fs.String("owner", "", "user ID the resumes belong to (default: watch.owner_id)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: resumerag import [flags] <file|directory|archive.zip>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(flagsFirst(os.Args[2:]))
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	ownerID := *owner
	if ownerID == "" {
		ownerID = cfg.Watch.OwnerID
	}
	n, err := importPath(context.Background(), components, fs.Arg(0), ownerID)
	if err != nil {
		fatalf("Import failed after %d resume(s): %v", n, err)
	}
	fmt.Printf("Imported %d resume(s) from %s\n", n, fs.Arg(0))
}

// importPath ingests a single resume file, every resume under a directory, or the
// resumes in a ZIP archive.
func importPath(ctx context.Context, c *Components, path, ownerID string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return c.Indexer.IndexDirectory(ctx, path, ownerID)
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		if ownerID == "" {
			return 0, fmt.Errorf("%w: archive import requires an owner", models.ErrInvalidArgument)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		docs, err := c.Indexer.IngestZip(ctx, data, ownerID)
		return len(docs), err
	}
	if err := c.Indexer.IngestFile(ctx, path, ownerID); err != nil {
		return 0, err
	}
	return 1, nil
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	n, err := components.Indexer.Reindex(context.Background())
	if err != nil {
		fatalf("Reindex failed after %d resume(s): %v", n, err)
	}
	fmt.Printf("Reindexed %d resume(s)\n", n)
}

func runUser() {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: resumerag user [flags] <name> <email>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(flagsFirst(os.Args[2:]))
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	u := &models.User{ID: uuid.NewString(), Name: fs.Arg(0), Email: fs.Arg(1)}
	if err := components.Storage.CreateUser(context.Background(), u); err != nil {
		fatalf("Create user failed: %v", err)
	}
	fmt.Printf("User created: %s\n", u.ID)
}

// statusConfig holds configuration info returned by status.
type statusConfig struct {
	Prefilter        string   `json:"prefilter"`
	DefaultK         int      `json:"default_k"`
	MaxK             int      `json:"max_k"`
	DefaultTopN      int      `json:"default_top_n"`
	DatabasePath     string   `json:"database_path,omitempty"`
	KeywordIndexPath string   `json:"keyword_index_path,omitempty"`
	UploadDir        string   `json:"upload_dir,omitempty"`
	WatchDirectories []string `json:"watch_directories,omitempty"`
}

// statusResponse is the shape of the GET /api/status response.
type statusResponse struct {
	Resumes          int64         `json:"resumes"`
	Jobs             int64         `json:"jobs"`
	Users            int64         `json:"users"`
	KeywordIndexSize *uint64       `json:"keyword_index_size,omitempty"`
	DiskUsageBytes   *int64        `json:"disk_usage_bytes,omitempty"`
	Config           *statusConfig `json:"config,omitempty"`
}

func localStatus(ctx context.Context, c *Components, cfg *config.Config) (*statusResponse, error) {
	var s statusResponse
	var err error
	if s.Resumes, err = c.Storage.CountDocuments(ctx); err != nil {
		return nil, fmt.Errorf("count resumes: %w", err)
	}
	if s.Jobs, err = c.Storage.CountJobs(ctx); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	if s.Users, err = c.Storage.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if n, err := c.KeywordIndex.DocCount(); err == nil {
		s.KeywordIndexSize = &n
	}
	st := cfg.Storage
	if diskBytes, err := storage.DiskUsageBytes(st.DatabasePath, st.KeywordIndexPath, st.UploadDir); err == nil {
		s.DiskUsageBytes = &diskBytes
	}
	s.Config = &statusConfig{
		Prefilter:        cfg.Search.Prefilter,
		DefaultK:         cfg.Search.DefaultK,
		MaxK:             cfg.Search.MaxK,
		DefaultTopN:      cfg.Matching.DefaultTopN,
		DatabasePath:     st.DatabasePath,
		KeywordIndexPath: st.KeywordIndexPath,
		UploadDir:        st.UploadDir,
		WatchDirectories: cfg.Watch.Directories,
	}
	return &s, nil
}

func writeStatus(w io.Writer, status *statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		return cli.WriteJSON(w, status)
	}
	fmt.Fprintf(w, "resumes:            %d\n", status.Resumes)
	fmt.Fprintf(w, "jobs:               %d\n", status.Jobs)
	fmt.Fprintf(w, "users:              %d\n", status.Users)
	if status.KeywordIndexSize != nil {
		fmt.Fprintf(w, "keyword_index_size: %d   # resumes in the keyword index\n", *status.KeywordIndexSize)
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + index + uploads\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "prefilter:          %s\n", c.Prefilter)
		fmt.Fprintf(w, "default_k:          %d (max %d)\n", c.DefaultK, c.MaxK)
		fmt.Fprintf(w, "default_top_n:      %d\n", c.DefaultTopN)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		if c.KeywordIndexPath != "" {
			fmt.Fprintf(w, "keyword_index_path: %s\n", c.KeywordIndexPath)
		}
		if c.UploadDir != "" {
			fmt.Fprintf(w, "upload_dir:         %s\n", c.UploadDir)
		}
		for _, d := range c.WatchDirectories {
			fmt.Fprintf(w, "watch:              %s\n", d)
		}
	}
	return nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = use the local store)")
	asJSON := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	var err error
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger, components := setup(*configPath)
		defer logger.Sync()
		defer components.Close()
		status, err = localStatus(context.Background(), components, cfg)
	}
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := writeStatus(os.Stdout, status, outputFormat(*asJSON)); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: resumerag watch <add|remove|list> [path]")
		fmt.Println("  resumerag watch add <path>     Add inbox directory to watch")
		fmt.Println("  resumerag watch remove <path>  Stop watching an inbox directory")
		fmt.Println("  resumerag watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:5000", "server URL")
	_ = fs.Parse(flagsFirst(os.Args[3:]))
	endpoint := watchEndpoint(*serverURL)

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fatalf("Usage: resumerag watch add <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := apiCall(http.MethodPost, endpoint, map[string]any{"path": path, "sync": true}, nil, http.StatusCreated); err != nil {
			fatalf("Add failed: %v", err)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fatalf("Usage: resumerag watch remove <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := apiCall(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil, nil, http.StatusOK); err != nil {
			fatalf("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := apiCall(http.MethodGet, endpoint, nil, &out, http.StatusOK); err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown watch subcommand: %s", sub)
	}
}

func printUsage() {
	fmt.Println(`resumerag - Resume search and job matching

Usage:
  resumerag server [flags]                 Start the HTTP server
  resumerag ask [flags] <query>            Search resumes
  resumerag match [flags] <job-id>         Rank resumes for a job posting
  resumerag redact [flags] [file]          Redact PII from a resume (stdin when no file)
  resumerag import [flags] <path>          Import a resume file, directory or .zip
  resumerag reindex [flags]                Rebuild the keyword index from the database
  resumerag user [flags] <name> <email>    Create a user
  resumerag status [flags]                 Show storage and index status
  resumerag watch <add|remove|list>        Manage watched inbox directories
  resumerag version                        Show version
  resumerag help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/resumerag/config.yaml,
                     or ./config.yaml when present)

Server Flags:
  --debug            Enable debug logging

Ask Flags:
  --k int            Number of results (default from config)
  --json             Print JSON
  --server string    Query a running server instead of the local store

Match Flags:
  --top int          Number of candidates (default from config)
  --json             Print JSON
  --xlsx string      Also write the shortlist to an .xlsx workbook
  --server string    Query a running server instead of the local store

Redact Flags:
  --stats            Print per-rule replacement counts to stderr

Import Flags:
  --owner string     User ID the resumes belong to (required for .zip)

Status Flags:
  --json             Print JSON
  --server string    Query a running server instead of the local store

Watch Flags:
  --server string    Server URL (default: http://localhost:5000)

Examples:
  resumerag server
  resumerag user "Jane Recruiter" jane@example.com
  resumerag import --owner <user-id> ~/Downloads/resumes.zip
  resumerag ask python machine learning
  resumerag ask --k 10 --json "kubernetes"
  resumerag match --top 10 --xlsx shortlist.xlsx <job-id>
  resumerag redact resume.pdf
  resumerag watch add ~/inbox`)
}
