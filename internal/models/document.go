// Package models defines core data structures for resumes, job postings, users, and
// the search and match results built from them.
package models

import "time"

// UserRef is the owner summary embedded in resumes and jobs.
type UserRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is a registered account that owns resumes and posts jobs.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserInput is the input for creating a user.
type UserInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Document is a stored resume with its extracted plain-text content.
// Content is empty when extraction failed upstream; that is a legal input to scoring.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"fileUrl"`
	Content     string    `json:"content"`
	OwnerID     string    `json:"userId"`
	Owner       UserRef   `json:"user"`
	SourcePath  string    `json:"-"`
	SourceMtime int64     `json:"-"`
	SourceSize  int64     `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DocumentSummary is a resume without its content, used by list endpoints.
type DocumentSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"fileUrl"`
	OwnerID     string    `json:"userId"`
	Owner       UserRef   `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary returns d without its content.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		FileURL:     d.FileURL,
		OwnerID:     d.OwnerID,
		Owner:       d.Owner,
		CreatedAt:   d.CreatedAt,
	}
}
