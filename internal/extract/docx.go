package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultDocumentPath = "word/document.xml"
	contentTypesPath        = "[Content_Types].xml"
	docxMainContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// paragraphTag matches a whole <w:p ...>...</w:p> paragraph.
	paragraphTag = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// textTag matches <w:t>text</w:t> with any attributes.
	textTag = regexp.MustCompile(`<w:t(?: [^>]*)?>([^<]*)</w:t>`)

	// The main part may be declared with attributes in either order.
	mainPartRe = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
	}
)

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

// mainDocumentPath returns the main document part named in [Content_Types].xml,
// falling back to word/document.xml.
func mainDocumentPath(zr *zip.Reader) string {
	ct, err := readZipFile(zr, contentTypesPath)
	if err != nil || ct == nil {
		return docxDefaultDocumentPath
	}
	for _, re := range mainPartRe {
		if m := re.FindSubmatch(ct); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultDocumentPath
}

// extractDOCX returns the text runs of a .docx, one line per paragraph.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	docPath := mainDocumentPath(zr)
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: read %s: %w", docPath, err)
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	var lines []string
	for _, para := range paragraphTag.FindAll(docXML, -1) {
		var runs []string
		for _, m := range textTag.FindAllSubmatch(para, -1) {
			if t := strings.TrimSpace(html.UnescapeString(string(m[1]))); t != "" {
				runs = append(runs, t)
			}
		}
		if len(runs) > 0 {
			lines = append(lines, strings.Join(runs, " "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
