package search

import (
	"strings"

	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/textnorm"
)

// Score weights.
const (
	ExactMatchBonus = 100
	WordHitWeight   = 10
	TitleMatchBonus = 50
	// MinWordLen is the length a query word must exceed to be counted.
	MinWordLen = 2
	// SnippetRadius is the number of characters kept on each side of the first match.
	SnippetRadius = 100
	// SnippetFallbackLen is the length of the leading snippet when the query is not found.
	SnippetFallbackLen = 200
)

// Scorer computes the relevance of a resume to a free-text query.
type Scorer struct{}

// NewScorer returns a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns a non-negative relevance score:
// +100 when the content contains the whole query, +10 per occurrence in the content of
// every query word longer than two characters, and +50 when the title contains the query.
// All comparisons ignore case.
func (s *Scorer) Score(query string, doc *models.Document) int {
	q := textnorm.Normalize(query)
	content := textnorm.Normalize(doc.Content)
	score := 0
	if strings.Contains(content, q) {
		score += ExactMatchBonus
	}
	for _, word := range textnorm.Tokenize(q) {
		if textnorm.RuneLen(word) > MinWordLen {
			score += WordHitWeight * textnorm.CountOccurrences(content, word)
		}
	}
	if textnorm.ContainsFold(doc.Title, query) {
		score += TitleMatchBonus
	}
	return score
}

// Snippet returns the passage around the first case-insensitive occurrence of query in
// content: up to SnippetRadius characters on each side, cut from the original text and
// trimmed. When the query does not occur, the first SnippetFallbackLen characters are
// returned. Offsets are raw character offsets, so words at the edges may be cut.
func (s *Scorer) Snippet(query, content string) string {
	orig := []rune(content)
	lower := []rune(textnorm.Normalize(content))
	q := []rune(textnorm.Normalize(query))

	i := textnorm.IndexRunes(lower, q)
	if i < 0 {
		end := SnippetFallbackLen
		if end > len(orig) {
			end = len(orig)
		}
		return strings.TrimSpace(string(orig[:end]))
	}
	start := i - SnippetRadius
	if start < 0 {
		start = 0
	}
	end := i + len(q) + SnippetRadius
	if end > len(orig) {
		end = len(orig)
	}
	return strings.TrimSpace(string(orig[start:end]))
}
