// Package textnorm provides the case folding, tokenizing and literal counting helpers
// shared by the search and matching engines. Every function is total and allocation-light;
// none of them return errors.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s rune by rune. The rune count of the result equals the rune
// count of s, so rune offsets found in the normalized text address the original text.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Tokenize splits s on runs of whitespace, keeping order.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// CountOccurrences returns the number of non-overlapping literal occurrences of needle
// in haystack. An empty needle occurs zero times.
func CountOccurrences(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}

// ContainsFold reports whether sub occurs in s, ignoring case.
func ContainsFold(s, sub string) bool {
	return strings.Contains(Normalize(s), Normalize(sub))
}

// MatchesEither reports whether a contains b or b contains a, ignoring case.
func MatchesEither(a, b string) bool {
	la, lb := Normalize(a), Normalize(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// IndexRunes returns the rune offset of the first occurrence of needle in haystack,
// or -1. An empty needle is found at offset 0.
func IndexRunes(haystack, needle []rune) int {
	n := len(needle)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(haystack); i++ {
		if haystack[i] != needle[0] {
			continue
		}
		match := true
		for j := 1; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// SplitSentences splits text on runs of '.', '!' and '?'. Empty pieces are kept so
// callers see the same segmentation regardless of trailing punctuation.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	inRun := false
	for i, r := range text {
		terminal := r == '.' || r == '!' || r == '?'
		switch {
		case terminal && !inRun:
			out = append(out, text[start:i])
			inRun = true
		case !terminal && inRun:
			start = i
			inRun = false
		}
	}
	if inRun {
		out = append(out, "")
	} else {
		out = append(out, text[start:])
	}
	return out
}
