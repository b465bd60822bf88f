package models

// Candidate identifies the owner of a matched resume.
type Candidate struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ResumeTitle string `json:"resumeTitle,omitempty"`
}

// SearchResult is a single scored resume for a query.
type SearchResult struct {
	ResumeID       string    `json:"resumeId"`
	Title          string    `json:"title"`
	Snippet        string    `json:"snippet"`
	RelevanceScore int       `json:"relevanceScore"`
	Candidate      Candidate `json:"candidate"`
}

// SearchResponse is the response for a search request. TotalMatches equals len(Results).
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []*SearchResult `json:"results"`
	TotalMatches int             `json:"totalMatches"`
}

// MatchResult explains how well one resume fits a job.
type MatchResult struct {
	ResumeID            string    `json:"resumeId"`
	Candidate           Candidate `json:"candidate"`
	MatchScore          int       `json:"matchScore"`
	MissingRequirements []string  `json:"missingRequirements"`
	Evidence            []string  `json:"evidence"`
	Strengths           []string  `json:"strengths"`
}

// JobRef is the job summary echoed in a match response.
type JobRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

// MatchResponse lists the best candidates for a job. TotalCandidates is the corpus size,
// not the number of returned matches.
type MatchResponse struct {
	Job             JobRef         `json:"job"`
	Matches         []*MatchResult `json:"matches"`
	TotalCandidates int            `json:"totalCandidates"`
}

// Pagination describes a window over a listed collection.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// NewPagination builds the pagination block for a window of a collection of total items.
func NewPagination(total, limit, offset int) Pagination {
	return Pagination{Total: total, Limit: limit, Offset: offset, HasMore: offset+limit < total}
}
