// Fixture builders for file-based ingestion tests: minimal files of each
// supported drop-directory type carrying a given text payload.
package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/json"

	"github.com/clearhealth/regindex/internal/models"
	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions lists the extensions exercised by file-based tests.
// The extractor also supports .pdf, .odt, and .rtf, which need real payloads
// not worth generating here.
var SupportedFileExtensions = []string{".txt", ".md", ".json", ".docx", ".xlsx"}

// WriteMinimalFile returns the bytes of a minimal file of the given extension
// whose extracted text contains the given payload.
func WriteMinimalFile(ext, text string) ([]byte, error) {
	switch ext {
	case ".json":
		return minimalJSON(text)
	case ".docx":
		return minimalDocx(text), nil
	case ".xlsx":
		return minimalXlsx(text), nil
	default:
		return []byte(text), nil
	}
}

// minimalJSON produces a one-element document input batch, the format fetcher
// jobs drop for ingestion.
func minimalJSON(text string) ([]byte, error) {
	inputs := []models.DocumentInput{
		{
			Category:     "Federal Regulation - eCFR",
			Title:        "Dropped regulation",
			Kind:         models.KindRegulation,
			Jurisdiction: models.JurisdictionFederal,
			URL:          "https://ecfr.gov/dropped/" + models.TextChecksum(text)[:8],
			Text:         text,
		},
	}
	return json.Marshal(inputs)
}

func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(text string) []byte {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", text)
	var buf bytes.Buffer
	_, _ = f.WriteTo(&buf)
	return buf.Bytes()
}
