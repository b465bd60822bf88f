// Package matching scores resumes against a job posting by comparing the skill tokens
// extracted from each.
package matching

import (
	"math"
	"strings"

	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/skills"
	"github.com/hyperjump/resumerag/internal/textnorm"
)

// DefaultMaxEvidence is the number of evidence sentences kept per candidate.
const DefaultMaxEvidence = 3

// Options tunes how match scores are computed.
type Options struct {
	// DedupeKeywords removes description keywords already present in the requirements
	// before they are counted in the score denominator.
	DedupeKeywords bool
	// ClampScore caps the match score at 100.
	ClampScore bool
	// MaxEvidence is the number of evidence sentences kept; <= 0 means DefaultMaxEvidence.
	MaxEvidence int
}

// JobProfile holds the skill tokens extracted from a job once per request.
type JobProfile struct {
	Requirements []string
	Description  []string
	// Keywords is Requirements followed by Description, the score denominator.
	Keywords []string
}

// Matcher evaluates single candidates. It is immutable and safe for concurrent use.
type Matcher struct {
	extractor *skills.Extractor
	opts      Options
}

// NewMatcher creates a Matcher that extracts skills with e.
func NewMatcher(e *skills.Extractor, opts Options) *Matcher {
	if opts.MaxEvidence <= 0 {
		opts.MaxEvidence = DefaultMaxEvidence
	}
	return &Matcher{extractor: e, opts: opts}
}

// Profile extracts the job's requirement and description skills.
func (m *Matcher) Profile(job *models.JobPosting) JobProfile {
	req := m.extractor.Extract(job.Requirements)
	desc := m.extractor.Extract(job.Description)
	if m.opts.DedupeKeywords {
		desc = without(desc, req)
	}
	keywords := make([]string, 0, len(req)+len(desc))
	keywords = append(keywords, req...)
	keywords = append(keywords, desc...)
	return JobProfile{Requirements: req, Description: desc, Keywords: keywords}
}

// Evaluate compares one resume to a job profile.
func (m *Matcher) Evaluate(p JobProfile, doc *models.Document) *models.MatchResult {
	candidate := m.extractor.Extract(doc.Content)
	return &models.MatchResult{
		ResumeID: doc.ID,
		Candidate: models.Candidate{
			Name:        doc.Owner.Name,
			Email:       doc.Owner.Email,
			ResumeTitle: doc.Title,
		},
		MatchScore:          m.score(p.Keywords, candidate),
		MissingRequirements: missing(p.Requirements, candidate),
		Evidence:            evidence(doc.Content, p.Requirements, m.opts.MaxEvidence),
		Strengths:           anyMatch(candidate, p.Requirements),
	}
}

// score is round(100 * |matching| / max(|keywords|, 1)), halves rounded up. A candidate
// skill counts once even when it matches several keywords, but several candidate skills
// may match the same keyword, so the result can exceed 100 unless clamped.
func (m *Matcher) score(keywords, candidate []string) int {
	matching := len(anyMatch(candidate, keywords))
	denom := len(keywords)
	if denom < 1 {
		denom = 1
	}
	score := int(math.Floor(float64(matching)/float64(denom)*100 + 0.5))
	if m.opts.ClampScore && score > 100 {
		score = 100
	}
	return score
}

// anyMatch returns the items of xs that match at least one of ys in either direction.
func anyMatch(xs, ys []string) []string {
	out := []string{}
	for _, x := range xs {
		for _, y := range ys {
			if textnorm.MatchesEither(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

// missing returns the requirements no candidate skill matches.
func missing(reqs, candidate []string) []string {
	out := []string{}
	for _, r := range reqs {
		found := false
		for _, c := range candidate {
			if textnorm.MatchesEither(r, c) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, r)
		}
	}
	return out
}

// evidence collects content sentences mentioning each requirement, requirement by
// requirement, keeping the first limit.
func evidence(content string, reqs []string, limit int) []string {
	out := []string{}
	sentences := textnorm.SplitSentences(content)
	lowered := make([]string, len(sentences))
	for i, s := range sentences {
		lowered[i] = textnorm.Normalize(s)
	}
	for _, r := range reqs {
		needle := textnorm.Normalize(r)
		for i, s := range lowered {
			if strings.Contains(s, needle) {
				out = append(out, strings.TrimSpace(sentences[i]))
				if len(out) == limit {
					return out
				}
			}
		}
	}
	return out
}

func without(xs, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		skip[d] = struct{}{}
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if _, ok := skip[x]; !ok {
			out = append(out, x)
		}
	}
	return out
}
