// Package cli renders search and match results for the resumerag command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/pkg/utils"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	rule          = "─────────────────────────────────────────────────────────"
	snippetWidth  = 200
	evidenceWidth = 120
)

// SkillNamer maps an extracted token back to its display spelling.
type SkillNamer interface {
	DisplayName(token string) string
}

// WriteSearchResults writes search results to w in the given format.
// Unknown formats fall back to text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", response.TotalMatches, response.Query)
	for i, r := range response.Results {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Relevance: %d\n", i+1, r.RelevanceScore)
		fmt.Fprintf(w, "ID: %s\n", r.ResumeID)
		if r.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", r.Title)
		}
		if c := candidateLine(r.Candidate); c != "" {
			fmt.Fprintf(w, "Candidate: %s\n", c)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(utils.OneLine(r.Snippet), snippetWidth))
	}
	return nil
}

// WriteMatchResults writes match results to w in the given format. names may be nil,
// in which case skill tokens are printed as extracted.
func WriteMatchResults(w io.Writer, response *models.MatchResponse, names SkillNamer, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	job := response.Job.Title
	if response.Job.Company != "" {
		job += " @ " + response.Job.Company
	}
	fmt.Fprintf(w, "\nTop %d of %d candidates for %s\n\n", len(response.Matches), response.TotalCandidates, job)
	for i, m := range response.Matches {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Match: %d%%\n", i+1, m.MatchScore)
		fmt.Fprintf(w, "Resume: %s", m.ResumeID)
		if m.Candidate.ResumeTitle != "" {
			fmt.Fprintf(w, " (%s)", m.Candidate.ResumeTitle)
		}
		fmt.Fprintln(w)
		if c := candidateLine(m.Candidate); c != "" {
			fmt.Fprintf(w, "Candidate: %s\n", c)
		}
		fmt.Fprintf(w, "Strengths: %s\n", skillList(m.Strengths, names))
		fmt.Fprintf(w, "Missing:   %s\n", skillList(m.MissingRequirements, names))
		for _, e := range m.Evidence {
			fmt.Fprintf(w, "  > %s\n", utils.Truncate(utils.OneLine(e), evidenceWidth))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func candidateLine(c models.Candidate) string {
	switch {
	case c.Name != "" && c.Email != "":
		return c.Name + " <" + c.Email + ">"
	case c.Name != "":
		return c.Name
	default:
		return c.Email
	}
}

// skillList joins tokens using their display spelling; "-" for none.
func skillList(tokens []string, names SkillNamer) string {
	if len(tokens) == 0 {
		return "-"
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t
		if names != nil {
			out[i] = names.DisplayName(t)
		}
	}
	return strings.Join(out, ", ")
}
