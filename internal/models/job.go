package models

import (
	"fmt"
	"time"
)

// Employment types accepted for a job posting.
const (
	EmploymentFullTime   = "full-time"
	EmploymentPartTime   = "part-time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
)

// JobPosting is a job with free-text description and requirements.
// The matcher derives skill structure from the text itself.
type JobPosting struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Description    string    `json:"description"`
	Requirements   string    `json:"requirements"`
	Location       string    `json:"location"`
	Salary         string    `json:"salary"`
	EmploymentType string    `json:"employmentType"`
	PostedBy       string    `json:"postedBy"`
	Poster         UserRef   `json:"poster"`
	CreatedAt      time.Time `json:"createdAt"`
}

// JobInput is the input for creating a job posting.
type JobInput struct {
	Title          string `json:"title" validate:"required"`
	Company        string `json:"company" validate:"required"`
	Description    string `json:"description" validate:"required"`
	Requirements   string `json:"requirements" validate:"required"`
	Location       string `json:"location"`
	Salary         string `json:"salary"`
	EmploymentType string `json:"employmentType" validate:"omitempty,oneof=full-time part-time contract internship"`
	PostedBy       string `json:"postedBy" validate:"required"`
}

// ToJob builds a posting from the input, defaulting the employment type to full-time.
func (in *JobInput) ToJob(id string) *JobPosting {
	et := in.EmploymentType
	if et == "" {
		et = EmploymentFullTime
	}
	return &JobPosting{
		ID:             id,
		Title:          in.Title,
		Company:        in.Company,
		Description:    in.Description,
		Requirements:   in.Requirements,
		Location:       in.Location,
		Salary:         in.Salary,
		EmploymentType: et,
		PostedBy:       in.PostedBy,
	}
}

// MatchRequest asks for the best candidates for a job.
type MatchRequest struct {
	TopN *int `json:"top_n,omitempty"`
}

// Validate resolves TopN against the configured default and rejects negative values.
func (r *MatchRequest) Validate(defaultTopN int) error {
	if r.TopN == nil {
		n := defaultTopN
		r.TopN = &n
		return nil
	}
	if *r.TopN < 0 {
		return fmt.Errorf("%w: top_n must not be negative", ErrInvalidArgument)
	}
	return nil
}
