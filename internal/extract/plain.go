package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as a string with invalid UTF-8 replaced by U+FFFD.
// A leading byte order mark is dropped.
func extractPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return strings.TrimPrefix(s, "\uFEFF"), nil
}
