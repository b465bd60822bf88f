// Package utils provides shared text and logging helpers.
package utils

import "strings"

// Truncate returns s cut to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// OneLine collapses every run of whitespace, newlines included, to a single space.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
