package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Section 1.\n\nCoverage rules apply."), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Section 1.\n\nCoverage rules apply." {
		t.Errorf("plain text altered: %q", got)
	}
}

func TestExtractPlainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte{0x48, 0x69, 0xff, 0xfe}, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.HasPrefix(got, "Hi") {
		t.Errorf("expected valid prefix preserved, got %q", got)
	}
	if !strings.Contains(got, "�") {
		t.Errorf("expected replacement character, got %q", got)
	}
}

func TestExtractUnknownExtensionFallsBackToPlain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("raw content"), ".weird")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "raw content" {
		t.Errorf("expected plain passthrough, got %q", got)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ct, err := zw.Create(contentTypesPath)
	if err != nil {
		t.Fatal(err)
	}
	ct.Write([]byte(`<Types><Override PartName="/word/document.xml" ContentType="` +
		docxMainContentType + `"/></Types>`))

	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc.Write([]byte(documentXML))

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDOCXParagraphs(t *testing.T) {
	content := buildDocx(t, `<w:document><w:body>`+
		`<w:p w:rsidR="0"><w:r><w:t>Prior Authorization.</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t xml:space="preserve">Requests must be </w:t></w:r>`+
		`<w:r><w:t>answered within 72 hours.</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Prior Authorization.\n\nRequests must be answered within 72 hours."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractDOCXNotAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("definitely not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip DOCX")
	}
}

func TestExtractDOCXCustomMainPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	ct, _ := zw.Create(contentTypesPath)
	ct.Write([]byte(`<Types><Override PartName="/word/document2.xml" ContentType="` +
		docxMainContentType + `"/></Types>`))
	doc, _ := zw.Create("word/document2.xml")
	doc.Write([]byte(`<w:p><w:r><w:t>Alternate body.</w:t></w:r></w:p>`))
	zw.Close()

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Alternate body." {
		t.Errorf("got %q", got)
	}
}

func TestExtractExcelWithSheetHeadings(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "CPT Code")
	f.SetCellValue("Sheet1", "B1", "Fee")
	f.SetCellValue("Sheet1", "A2", "99213")
	f.SetCellValue("Sheet1", "B2", "92.47")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.HasPrefix(got, "Sheet1:") {
		t.Errorf("expected sheet heading, got %q", got)
	}
	if !strings.Contains(got, "CPT Code\tFee") || !strings.Contains(got, "99213\t92.47") {
		t.Errorf("expected tab-joined rows, got %q", got)
	}
}

func TestExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notice.md")
	if err := os.WriteFile(path, []byte("# Notice\n\nBody."), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "# Notice\n\nBody." {
		t.Errorf("got %q", got)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractPDFInvalid(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}
