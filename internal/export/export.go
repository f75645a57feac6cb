package export

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avelter/qrscan/internal/model"
)

// Delimiter matches the spreadsheet conventions of the report's consumers.
const Delimiter = ';'

type pageData struct {
	records []model.QRValidationRecord
	items   []model.AIExtractionItem
}

// PageResultsCSV renders the per-page view of a report as CSV: one row per
// page, QR findings joined with " | ", and one extra column per AI keyword.
func PageResultsCSV(report *model.ScanReport) (string, error) {
	pages := organizeByPage(report)
	keywords := selectedKeywords(report.AIExtraction)

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = Delimiter

	headers := []string{"Page", "QR_URLs", "QR_Status_HTTP", "QR_Domain_Valid", "QR_UTM_Valid", "QR_Text_Valid"}
	for _, kw := range keywords {
		headers = append(headers, "AI_"+titleCase(kw))
	}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var pageNums []int
	for page := range pages {
		pageNums = append(pageNums, page)
	}
	sort.Ints(pageNums)

	for _, page := range pageNums {
		data := pages[page]

		var urls, statuses, domains, utms, texts []string
		for _, rec := range data.records {
			urls = append(urls, rec.URL)
			statuses = append(statuses, formatStatus(rec.HTTPStatus))
			domains = append(domains, formatValidation(rec.DomainValid))
			utms = append(utms, formatValidation(rec.UTMValid))
			texts = append(texts, formatValidation(rec.ContentValid))
		}

		row := []string{
			strconv.Itoa(page),
			strings.Join(urls, " | "),
			strings.Join(statuses, " | "),
			strings.Join(domains, " | "),
			strings.Join(utms, " | "),
			strings.Join(texts, " | "),
		}
		for _, kw := range keywords {
			row = append(row, strings.Join(keywordValues(data.items, kw), " | "))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

// Filename builds a timestamped export filename.
func Filename(scanID string) string {
	timestamp := time.Now().Format("20060102_150405")
	if scanID != "" {
		short := scanID
		if len(short) > 8 {
			short = short[:8]
		}
		return fmt.Sprintf("qr_scan_results_%s_%s.csv", short, timestamp)
	}
	return fmt.Sprintf("qr_scan_results_%s.csv", timestamp)
}

func organizeByPage(report *model.ScanReport) map[int]*pageData {
	pages := map[int]*pageData{}
	get := func(page int) *pageData {
		if pages[page] == nil {
			pages[page] = &pageData{}
		}
		return pages[page]
	}

	for _, rec := range report.URLResults {
		data := get(rec.Page)
		data.records = append(data.records, rec)
	}

	if ai := report.AIExtraction; ai != nil && ai.Success {
		for _, item := range ai.Items {
			if item.Page == 0 {
				continue
			}
			data := get(item.Page)
			data.items = append(data.items, item)
		}
	}

	return pages
}

// selectedKeywords decides the dynamic AI columns: the keywords the scan was
// configured with, or failing that the distinct item classes found.
func selectedKeywords(ai *model.AIExtractionResult) []string {
	if ai == nil {
		return nil
	}
	if len(ai.Keywords) > 0 {
		return ai.Keywords
	}

	seen := map[string]bool{}
	var keywords []string
	for _, item := range ai.Items {
		if item.Class == "" || item.Class == "simple" || seen[item.Class] {
			continue
		}
		seen[item.Class] = true
		keywords = append(keywords, item.Class)
	}
	return keywords
}

// keywordValues maps a page's AI items onto one keyword column. An item
// contributes when its class matches the keyword or when its attributes carry
// a value under that key.
func keywordValues(items []model.AIExtractionItem, keyword string) []string {
	var values []string
	for _, item := range items {
		if item.Class == keyword {
			values = append(values, item.Text)
			continue
		}
		if v, ok := item.Attributes[keyword]; ok {
			values = append(values, fmt.Sprint(v))
		}
	}
	return values
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatStatus(status *int) string {
	if status == nil {
		return ""
	}
	return strconv.Itoa(*status)
}

func formatValidation(v model.Validity) string {
	switch v {
	case model.Valid:
		return "Valid"
	case model.Invalid:
		return "Invalid"
	default:
		return "Not tested"
	}
}
