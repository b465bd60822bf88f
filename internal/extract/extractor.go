// Package extract turns uploaded resume files into plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat is returned for files that are not PDF, DOCX or plain text.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

// SupportedExtensions lists the resume file extensions the extractor accepts.
var SupportedExtensions = []string{".pdf", ".docx", ".txt", ".md"}

// Extractor extracts plain text from resume files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot, any case) can be extracted.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".txt", ".md":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Sniff detects the format of content from its bytes. It returns the detected MIME type
// and the extension to extract it with; ext is empty when the type is not an accepted resume format.
func Sniff(content []byte) (mime string, ext string) {
	m := mimetype.Detect(content)
	switch {
	case m.Is("application/pdf"):
		return m.String(), ".pdf"
	case m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return m.String(), ".docx"
	case m.Is("text/plain"):
		return m.String(), ".txt"
	}
	return m.String(), ""
}

// ResolveExtension decides how to extract an upload named filename. The sniffed type wins
// over the name; a generic zip named .docx is trusted as DOCX since some writers omit the
// markers mimetype looks for. Anything else yields ErrUnsupportedFormat.
func ResolveExtension(filename string, content []byte) (string, error) {
	mime, ext := Sniff(content)
	if ext != "" {
		return ext, nil
	}
	declared := strings.ToLower(filepath.Ext(filename))
	if declared == ".docx" && mimetype.Detect(content).Is("application/zip") {
		return ".docx", nil
	}
	return "", fmt.Errorf("%w: %s detected as %s", ErrUnsupportedFormat, filename, mime)
}
