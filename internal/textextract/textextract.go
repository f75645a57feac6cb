package textextract

import (
	"math"
	"sort"
	"strings"

	"github.com/avelter/qrscan/internal/model"
)

// ShouldExtract reports whether text extraction applies to the given page.
// Only odd pages are extracted; printed sheets carry the scannable content on
// their front side.
func ShouldExtract(page int) bool {
	return page%2 == 1
}

// ExtractLines splits a page's text into non-blank lines. Line numbers are
// 1-based and count only the lines actually kept.
func ExtractLines(pageText string, page int) []model.TextExtractionRecord {
	var records []model.TextExtractionRecord
	lineNo := 0
	for _, raw := range strings.Split(pageText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lineNo++
		records = append(records, model.TextExtractionRecord{
			Page:       page,
			Line:       line,
			LineNumber: lineNo,
			CharCount:  len([]rune(line)),
			WordCount:  len(strings.Fields(line)),
		})
	}
	return records
}

// ComputeStats aggregates extracted lines into the stats block of a report.
// Returns nil when nothing was extracted.
func ComputeStats(records []model.TextExtractionRecord) *model.TextStats {
	if len(records) == 0 {
		return nil
	}

	stats := model.TextStats{TotalLines: len(records)}
	pages := map[int]bool{}
	longest, shortest := records[0], records[0]
	for _, rec := range records {
		pages[rec.Page] = true
		stats.TotalChars += rec.CharCount
		stats.TotalWords += rec.WordCount
		if rec.CharCount > longest.CharCount {
			longest = rec
		}
		if rec.CharCount < shortest.CharCount {
			shortest = rec
		}
	}

	stats.TotalPages = len(pages)
	stats.AvgCharsPerLine = round1(float64(stats.TotalChars) / float64(len(records)))
	stats.AvgWordsPerLine = round1(float64(stats.TotalWords) / float64(len(records)))
	stats.LongestLine = truncateLine(longest.Line)
	stats.ShortestLine = shortest.Line

	for page := range pages {
		stats.PagesProcessed = append(stats.PagesProcessed, page)
	}
	sort.Ints(stats.PagesProcessed)

	return &stats
}

// maxStatLineRunes bounds the longest-line sample carried in the stats block.
const maxStatLineRunes = 100

func truncateLine(line string) string {
	runes := []rune(line)
	if len(runes) <= maxStatLineRunes {
		return line
	}
	return string(runes[:maxStatLineRunes]) + "..."
}

// Match is one case-insensitive hit of a search term in an extracted line.
type Match struct {
	Page       int    `json:"page"`
	LineNumber int    `json:"line_number"`
	Term       string `json:"term"`
	Index      int    `json:"index"`
}

// Search finds every case-insensitive occurrence of term across the extracted
// lines. Index is the rune offset of the hit within its line.
func Search(records []model.TextExtractionRecord, term string) []Match {
	if term == "" {
		return nil
	}
	needle := []rune(strings.ToLower(term))
	var matches []Match
	for _, rec := range records {
		line := []rune(strings.ToLower(rec.Line))
		for i := 0; i+len(needle) <= len(line); i++ {
			if string(line[i:i+len(needle)]) == string(needle) {
				matches = append(matches, Match{
					Page:       rec.Page,
					LineNumber: rec.LineNumber,
					Term:       term,
					Index:      i,
				})
			}
		}
	}
	return matches
}

// CountOccurrences counts case-insensitive occurrences of term across the
// extracted lines.
func CountOccurrences(records []model.TextExtractionRecord, term string) int {
	return len(Search(records, term))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
