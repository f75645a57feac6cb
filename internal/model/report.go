package model

import "time"

// ScanStats are the page/QR aggregates computed at finalization.
type ScanStats struct {
	TotalPages       int `json:"total_pages"`
	PagesWithQR      int `json:"pages_with_qr"`
	UniqueURLs       int `json:"unique_urls"`
	TotalURLResults  int `json:"total_url_results"`
	ExtractedLines   int `json:"extracted_lines"`
	AIExtractedItems int `json:"ai_extracted_items"`
}

// ValidationSummary aggregates the deduplicated URL records.
type ValidationSummary struct {
	Total           int     `json:"total"`
	HTTPSuccess     int     `json:"http_success"`
	HTTPErrors      int     `json:"http_errors"`
	DomainValid     int     `json:"domain_valid"`
	DomainInvalid   int     `json:"domain_invalid"`
	UTMValid        int     `json:"utm_valid"`
	UTMInvalid      int     `json:"utm_invalid"`
	TextValid       int     `json:"text_valid"`
	TextInvalid     int     `json:"text_invalid"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// TextStats summarizes the extracted lines.
type TextStats struct {
	TotalLines      int     `json:"total_lines"`
	TotalPages      int     `json:"total_pages,omitempty"`
	TotalChars      int     `json:"total_chars,omitempty"`
	TotalWords      int     `json:"total_words,omitempty"`
	AvgCharsPerLine float64 `json:"avg_chars_per_line,omitempty"`
	AvgWordsPerLine float64 `json:"avg_words_per_line,omitempty"`
	LongestLine     string  `json:"longest_line,omitempty"`
	ShortestLine    string  `json:"shortest_line,omitempty"`
	PagesProcessed  []int   `json:"pages_processed,omitempty"`
}

// ScoreDetails carries the raw figures behind the quality scores.
type ScoreDetails struct {
	TotalQRCodes           int     `json:"total_qr_codes"`
	SuccessfulHTTPRequests int     `json:"successful_http_requests"`
	AvgResponseTimeMS      float64 `json:"avg_response_time_ms"`
	AIExtractionsCount     int     `json:"ai_extractions_count"`
	TextLinesExtracted     int     `json:"text_lines_extracted"`
}

// QualityScores rates each pipeline dimension 0-100, rounded to one decimal.
// AdvancedValidation and AIExtraction are nil when the dimension does not
// apply; the overall score averages only the dimensions that are present.
type QualityScores struct {
	QRDetection        float64      `json:"qr_detection"`
	HTTPValidation     float64      `json:"http_validation"`
	AdvancedValidation *float64     `json:"advanced_validation"`
	AIExtraction       *float64     `json:"ai_extraction"`
	Overall            float64      `json:"overall"`
	Details            ScoreDetails `json:"details"`
}

// FileInfo describes the scanned document.
type FileInfo struct {
	Filename  string  `json:"filename"`
	SizeMB    float64 `json:"size_mb"`
	SizeBytes int64   `json:"size_bytes"`
}

// OptionsSummary records which expectations were configured, without echoing
// their values into the report.
type OptionsSummary struct {
	Timeout             int  `json:"timeout"`
	SearchTextsCount    int  `json:"search_texts_count"`
	HasDomainValidation bool `json:"has_domain_validation"`
	HasUTMValidation    bool `json:"has_utm_validation"`
	HasAIExtraction     bool `json:"has_ai_extraction"`
}

// ScanMetadata is attached to every finished report.
type ScanMetadata struct {
	ScanID         string         `json:"scan_id,omitempty"`
	FileInfo       FileInfo       `json:"file_info"`
	ScanOptions    OptionsSummary `json:"scan_options"`
	ScannerVersion string         `json:"scanner_version"`
	ModulesUsed    []string       `json:"modules_used"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// ScanReport is the single aggregate result of a document scan. It is
// constructed exactly once at finalization and is immutable afterwards; the
// caller owns it once returned.
type ScanReport struct {
	Stats             ScanStats              `json:"stats"`
	URLResults        []QRValidationRecord   `json:"url_results"`
	Extractions       []TextExtractionRecord `json:"extractions"`
	AIExtraction      *AIExtractionResult    `json:"ai_extraction"`
	ValidationSummary *ValidationSummary     `json:"validation_summary"`
	TextStats         *TextStats             `json:"text_stats"`
	QualityScores     QualityScores          `json:"quality_scores"`
	Metadata          ScanMetadata           `json:"metadata"`
}
