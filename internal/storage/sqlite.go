// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/resumerag/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS resumes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		file_url TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		owner_id TEXT NOT NULL DEFAULT '',
		source_path TEXT NOT NULL DEFAULT '',
		source_mtime INTEGER NOT NULL DEFAULT 0,
		source_size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_resumes_created_at ON resumes(created_at);
	CREATE INDEX IF NOT EXISTS idx_resumes_owner_id ON resumes(owner_id);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		description TEXT NOT NULL,
		requirements TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL DEFAULT 'full-time',
		posted_by TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateUser inserts a user. A duplicate email yields models.ErrConflict.
func (s *SQLiteStorage) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: user with email %s already exists", models.ErrConflict, u.Email)
	}
	return err
}

// GetUser returns a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const documentColumns = `r.id, r.title, r.description, r.file_url, r.content, r.owner_id,
	r.source_path, r.source_mtime, r.source_size, r.created_at, u.name, u.email`

const documentFrom = ` FROM resumes r LEFT JOIN users u ON u.id = r.owner_id`

// CreateDocument inserts a resume.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, title, description, file_url, content, owner_id,
			source_path, source_mtime, source_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Description, doc.FileURL, doc.Content, doc.OwnerID,
		doc.SourcePath, doc.SourceMtime, doc.SourceSize, doc.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: resume %s already exists", models.ErrConflict, doc.ID)
	}
	return err
}

// UpsertDocument inserts a resume or replaces the stored one with the same ID.
// The original creation time is kept so corpus order does not change on re-import.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, title, description, file_url, content, owner_id,
			source_path, source_mtime, source_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			file_url = excluded.file_url,
			content = excluded.content,
			owner_id = excluded.owner_id,
			source_path = excluded.source_path,
			source_mtime = excluded.source_mtime,
			source_size = excluded.source_size`,
		doc.ID, doc.Title, doc.Description, doc.FileURL, doc.Content, doc.OwnerID,
		doc.SourcePath, doc.SourceMtime, doc.SourceSize, doc.CreatedAt,
	)
	return err
}

// GetDocument returns a resume by ID with its owner.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+documentFrom+` WHERE r.id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: resume %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a resume by ID.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: resume %s", models.ErrNotFound, id)
	}
	return nil
}

// ListDocuments returns a page of resumes, newest first, and the total matching count.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, f DocumentFilter) ([]*models.Document, int, error) {
	var where []string
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `(r.title LIKE ? ESCAPE '\' OR r.content LIKE ? ESCAPE '\')`)
		pattern := likePattern(q)
		args = append(args, pattern, pattern)
	}
	if f.OwnerID != "" {
		where = append(where, `r.owner_id = ?`)
		args = append(args, f.OwnerID)
	}
	clause := whereClause(where)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resumes r`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + documentColumns + documentFrom + clause +
		` ORDER BY r.created_at DESC, r.rowid DESC LIMIT ? OFFSET ?`
	docs, err := s.queryDocuments(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Corpus returns every stored resume in creation order.
func (s *SQLiteStorage) Corpus(ctx context.Context) ([]*models.Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+documentFrom+` ORDER BY r.created_at, r.rowid`)
}

// CorpusContaining returns resumes whose content contains q, ignoring ASCII case, in creation order.
func (s *SQLiteStorage) CorpusContaining(ctx context.Context, q string) ([]*models.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+documentFrom+` WHERE r.content LIKE ? ESCAPE '\' ORDER BY r.created_at, r.rowid`,
		likePattern(q),
	)
}

// CorpusByIDs returns the resumes with the given IDs in creation order. Unknown IDs are ignored.
func (s *SQLiteStorage) CorpusByIDs(ctx context.Context, ids []string) ([]*models.Document, error) {
	if len(ids) == 0 {
		return []*models.Document{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+documentFrom+` WHERE r.id IN (`+placeholders+`) ORDER BY r.created_at, r.rowid`,
		args...,
	)
}

func (s *SQLiteStorage) queryDocuments(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (*models.Document, error) {
	var doc models.Document
	var ownerName, ownerEmail sql.NullString
	err := sc.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.FileURL, &doc.Content, &doc.OwnerID,
		&doc.SourcePath, &doc.SourceMtime, &doc.SourceSize, &doc.CreatedAt, &ownerName, &ownerEmail)
	if err != nil {
		return nil, err
	}
	doc.Owner = models.UserRef{Name: ownerName.String, Email: ownerEmail.String}
	return &doc, nil
}

const jobColumns = `j.id, j.title, j.company, j.description, j.requirements, j.location, j.salary,
	j.employment_type, j.posted_by, j.created_at, u.name, u.email`

const jobFrom = ` FROM jobs j LEFT JOIN users u ON u.id = j.posted_by`

// CreateJob inserts a job posting.
func (s *SQLiteStorage) CreateJob(ctx context.Context, job *models.JobPosting) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company, description, requirements, location, salary,
			employment_type, posted_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Company, job.Description, job.Requirements, job.Location, job.Salary,
		job.EmploymentType, job.PostedBy, job.CreatedAt,
	)
	return err
}

// GetJob returns a job posting by ID with its poster.
func (s *SQLiteStorage) GetJob(ctx context.Context, id string) (*models.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+jobFrom+` WHERE j.id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns a page of job postings, newest first, and the total matching count.
func (s *SQLiteStorage) ListJobs(ctx context.Context, f JobFilter) ([]*models.JobPosting, int, error) {
	var where []string
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `(j.title LIKE ? ESCAPE '\' OR j.description LIKE ? ESCAPE '\')`)
		pattern := likePattern(q)
		args = append(args, pattern, pattern)
	}
	if c := strings.TrimSpace(f.Company); c != "" {
		where = append(where, `j.company LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(c))
	}
	clause := whereClause(where)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs j`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+jobFrom+clause+` ORDER BY j.created_at DESC, j.rowid DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := []*models.JobPosting{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func scanJob(sc scanner) (*models.JobPosting, error) {
	var job models.JobPosting
	var posterName, posterEmail sql.NullString
	err := sc.Scan(&job.ID, &job.Title, &job.Company, &job.Description, &job.Requirements, &job.Location,
		&job.Salary, &job.EmploymentType, &job.PostedBy, &job.CreatedAt, &posterName, &posterEmail)
	if err != nil {
		return nil, err
	}
	job.Poster = models.UserRef{Name: posterName.String, Email: posterEmail.String}
	return &job, nil
}

// CountDocuments returns the total number of resumes.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM resumes`)
}

// CountJobs returns the total number of job postings.
func (s *SQLiteStorage) CountJobs(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM jobs`)
}

// CountUsers returns the total number of users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// likePattern wraps q for a substring LIKE match with \ as the escape character.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
