package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/avelter/qrscan/internal/model"
)

func parseCSV(t *testing.T, content string) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = Delimiter
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return rows
}

func TestPageResultsCSV(t *testing.T) {
	ok := 200
	report := &model.ScanReport{
		URLResults: []model.QRValidationRecord{
			{URL: "https://example.com/a", Page: 1, HTTPStatus: &ok, DomainValid: model.Valid, UTMValid: model.Invalid},
			{URL: "https://example.com/b", Page: 1, HTTPStatus: &ok},
			{URL: "https://example.com/c", Page: 3},
		},
	}

	content, err := PageResultsCSV(report)
	if err != nil {
		t.Fatalf("PageResultsCSV: %v", err)
	}
	rows := parseCSV(t, content)

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 pages", len(rows))
	}
	if rows[0][0] != "Page" || rows[0][1] != "QR_URLs" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "1" || rows[2][0] != "3" {
		t.Errorf("pages out of order: %v, %v", rows[1][0], rows[2][0])
	}
	if rows[1][1] != "https://example.com/a | https://example.com/b" {
		t.Errorf("urls cell = %q", rows[1][1])
	}
	if rows[1][3] != "Valid | Not tested" {
		t.Errorf("domain cell = %q", rows[1][3])
	}
	if rows[1][4] != "Invalid | Not tested" {
		t.Errorf("utm cell = %q", rows[1][4])
	}
	// Page 3's URL was never probed.
	if rows[2][2] != "" {
		t.Errorf("status cell = %q", rows[2][2])
	}
}

func TestPageResultsCSVWithAIKeywords(t *testing.T) {
	report := &model.ScanReport{
		URLResults: []model.QRValidationRecord{
			{URL: "https://example.com", Page: 1},
		},
		AIExtraction: &model.AIExtractionResult{
			Success:  true,
			Keywords: []string{"code", "email"},
			Items: []model.AIExtractionItem{
				{Class: "code", Text: "X123", Page: 1},
				{Class: "structured", Text: "{...}", Attributes: map[string]any{"email": "a@b.com"}, Page: 1},
				{Class: "code", Text: "Y456", Page: 2},
			},
		},
	}

	content, err := PageResultsCSV(report)
	if err != nil {
		t.Fatalf("PageResultsCSV: %v", err)
	}
	rows := parseCSV(t, content)

	if got := rows[0][6]; got != "AI_Code" {
		t.Errorf("keyword header = %q", got)
	}
	if got := rows[0][7]; got != "AI_Email" {
		t.Errorf("keyword header = %q", got)
	}
	if rows[1][6] != "X123" {
		t.Errorf("page 1 code cell = %q", rows[1][6])
	}
	if rows[1][7] != "a@b.com" {
		t.Errorf("page 1 email cell = %q", rows[1][7])
	}
	// Page 2 has only an AI item, no QR codes, and still gets a row.
	if rows[2][0] != "2" || rows[2][6] != "Y456" {
		t.Errorf("page 2 row = %v", rows[2])
	}
}

func TestSelectedKeywordsFallbackToClasses(t *testing.T) {
	ai := &model.AIExtractionResult{
		Success: true,
		Items: []model.AIExtractionItem{
			{Class: "simple", Text: "raw"},
			{Class: "email", Text: "a@b.com"},
			{Class: "email", Text: "c@d.com"},
		},
	}
	keywords := selectedKeywords(ai)
	if len(keywords) != 1 || keywords[0] != "email" {
		t.Errorf("keywords = %v", keywords)
	}
}

func TestFilename(t *testing.T) {
	name := Filename("0123456789abcdef")
	if !strings.HasPrefix(name, "qr_scan_results_01234567_") {
		t.Errorf("filename = %q", name)
	}
	if !strings.HasSuffix(name, ".csv") {
		t.Errorf("filename = %q", name)
	}

	if !strings.HasPrefix(Filename(""), "qr_scan_results_") {
		t.Errorf("anonymous filename = %q", Filename(""))
	}
}
