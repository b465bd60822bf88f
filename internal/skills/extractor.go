package skills

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor finds skill tokens in text. It is immutable and safe for concurrent use.
type Extractor struct {
	table    Table
	patterns []*regexp.Regexp
}

// NewExtractor compiles one case-insensitive, word-bounded alternation per category.
func NewExtractor(t Table) (*Extractor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	patterns := make([]*regexp.Regexp, len(t.Categories))
	for i, c := range t.Categories {
		re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(c.Alternatives, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compile skill category %q: %w", c.Name, err)
		}
		patterns[i] = re
	}
	return &Extractor{table: t, patterns: patterns}, nil
}

// NewDefaultExtractor returns an Extractor over DefaultTable.
func NewDefaultExtractor() *Extractor {
	e, err := NewExtractor(DefaultTable())
	if err != nil {
		panic(err)
	}
	return e
}

// Table returns the table the extractor was built from.
func (e *Extractor) Table() Table {
	return e.table
}

// Extract returns the lower-cased skill tokens found in text. Categories are scanned in
// table order and matches within a category in text order; duplicates keep their first
// position. The result is never nil.
func (e *Extractor) Extract(text string) []string {
	out := []string{}
	if text == "" {
		return out
	}
	seen := make(map[string]struct{})
	for _, re := range e.patterns {
		for _, m := range re.FindAllString(text, -1) {
			tok := strings.ToLower(m)
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}
