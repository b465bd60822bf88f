package indexer

import (
	"strings"
)

// Preprocess tidies extracted text before storage: CRLF becomes LF, trailing spaces are
// trimmed from each line, runs of blank lines collapse to one, and the result is trimmed.
// Sentence punctuation and inline spacing are left alone so snippets and evidence read
// as the candidate wrote them.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\f\v\u00a0")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
