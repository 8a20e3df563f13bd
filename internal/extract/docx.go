package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	defaultDocumentXMLPath = "word/document.xml"
	contentTypesPath       = "[Content_Types].xml"
	docxMainContentType    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wtTag matches <w:t>text</w:t> including variants with attributes
// (e.g. xml:space="preserve").
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// paragraphEnd splits the document body on paragraph close tags so paragraph
// structure is preserved for the chunker.
var paragraphEnd = regexp.MustCompile(`</w:p>`)

// partNameRe and partNameReAlt extract the main document PartName from
// [Content_Types].xml, in either attribute order.
var (
	partNameRe    = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameReAlt = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// extractDOCX extracts text from .docx bytes. DOCX is a ZIP containing an
// OOXML body; all <w:t> text nodes are collected per paragraph, and paragraphs
// are joined with blank lines.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := findMainDocumentPath(zr)
	if docPath == "" {
		docPath = defaultDocumentXMLPath
	}

	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var paragraphs []string
	for _, para := range paragraphEnd.Split(string(docXML), -1) {
		var b strings.Builder
		for _, m := range wtTag.FindAllStringSubmatch(para, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// findMainDocumentPath reads [Content_Types].xml to locate the main document
// part. Returns "" if the package carries no override for it.
func findMainDocumentPath(zr *zip.Reader) string {
	content, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return ""
	}
	if m := partNameRe.FindSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(string(m[1]), "/")
	}
	if m := partNameReAlt.FindSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(string(m[1]), "/")
	}
	return ""
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}
