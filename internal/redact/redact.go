// Package redact replaces personally identifiable information in resume text with
// fixed placeholders.
package redact

import "regexp"

// Placeholders substituted for redacted spans.
const (
	EmailPlaceholder   = "[EMAIL]"
	PhonePlaceholder   = "[PHONE]"
	AddressPlaceholder = "[ADDRESS]"
)

// Rule is a named pattern and its replacement.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultRules returns the redaction rules in application order:
// email, dashed or dotted phone, parenthesized phone, street address.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "email",
			Pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
			Replacement: EmailPlaceholder,
		},
		{
			Name:        "phone",
			Pattern:     regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
			Replacement: PhonePlaceholder,
		},
		{
			Name:        "phone_parenthesized",
			Pattern:     regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.]?\d{4}`),
			Replacement: PhonePlaceholder,
		},
		{
			Name:        "address",
			Pattern:     regexp.MustCompile(`(?i)\d+\s+[A-Za-z0-9\s,.-]+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd|Way|Place|Pl)`),
			Replacement: AddressPlaceholder,
		},
	}
}

// Redactor applies an ordered rule list. It is immutable and safe for concurrent use.
type Redactor struct {
	rules []Rule
}

// New returns a Redactor over DefaultRules.
func New() *Redactor {
	return &Redactor{rules: DefaultRules()}
}

// Rules returns the names of the rules in application order.
func (r *Redactor) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Redact applies every rule in order, and repeats the whole pass until the text stops
// changing, so Redact(Redact(x)) == Redact(x) even when a replacement opens a new word
// boundary for an earlier rule. Every change removes an '@' or a digit and placeholders
// contain neither, so the loop terminates.
func (r *Redactor) Redact(text string) string {
	for {
		next := r.pass(text)
		if next == text {
			return next
		}
		text = next
	}
}

// Count returns how many spans a single pass of each rule would replace, by rule name.
func (r *Redactor) Count(text string) map[string]int {
	counts := make(map[string]int, len(r.rules))
	for _, rule := range r.rules {
		n := len(rule.Pattern.FindAllStringIndex(text, -1))
		counts[rule.Name] += n
		text = rule.Pattern.ReplaceAllLiteralString(text, rule.Replacement)
	}
	return counts
}

func (r *Redactor) pass(text string) string {
	for _, rule := range r.rules {
		text = rule.Pattern.ReplaceAllLiteralString(text, rule.Replacement)
	}
	return text
}
