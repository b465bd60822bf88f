package models

import "fmt"

// DefaultK is the number of search results returned when k is not given.
const DefaultK = 5

// SearchQuery is a free-text search ("ask") request.
type SearchQuery struct {
	Query string `json:"query"`
	K     *int   `json:"k,omitempty"`
}

// Validate rejects an empty query and a negative k. A whitespace-only query is valid and
// is scored like any other text.
// A missing k is set to defaultK (DefaultK when defaultK <= 0); k above maxK is capped
// when maxK > 0. k == 0 is valid and yields an empty result list.
func (q *SearchQuery) Validate(defaultK, maxK int) error {
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidArgument)
	}
	if q.K == nil {
		k := defaultK
		if k <= 0 {
			k = DefaultK
		}
		q.K = &k
	}
	if *q.K < 0 {
		return fmt.Errorf("%w: k must not be negative", ErrInvalidArgument)
	}
	if maxK > 0 && *q.K > maxK {
		k := maxK
		q.K = &k
	}
	return nil
}

// Limit returns the resolved k, or DefaultK before Validate has run.
func (q *SearchQuery) Limit() int {
	if q.K == nil {
		return DefaultK
	}
	return *q.K
}
