package model

// QRValidationRecord captures the validation outcome for one (url, page)
// pair. The pair is the uniqueness key during finalization: later duplicates
// on the same page are discarded, never merged.
type QRValidationRecord struct {
	URL  string `json:"url"`
	Page int    `json:"page"`

	HTTPStatus     *int              `json:"http_status"`
	Netloc         string            `json:"netloc"`
	UTM            map[string]string `json:"utm"`
	DomainValid    Validity          `json:"domain_valid"`
	UTMValid       Validity          `json:"utm_valid"`
	ContentValid   Validity          `json:"text_search_valid"`
	ResponseTimeMS float64           `json:"response_time"`
	FinalURL       string            `json:"final_url,omitempty"`
	ContentType    string            `json:"content_type,omitempty"`
	ContentLength  *int64            `json:"content_length,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// TextExtractionRecord is one non-blank extracted line.
type TextExtractionRecord struct {
	Page       int    `json:"page"`
	Line       string `json:"line"`
	LineNumber int    `json:"line_number"`
	CharCount  int    `json:"char_count"`
	WordCount  int    `json:"word_count"`
}

// AIExtractionItem is one extraction unit returned by the AI collaborator.
// Page is stamped by the orchestrator, both here and in Attributes["page"],
// since the collaborator does not know the page in per-page invocation mode.
type AIExtractionItem struct {
	ID         int            `json:"id"`
	Class      string         `json:"extraction_class"`
	Text       string         `json:"extraction_text"`
	Attributes map[string]any `json:"attributes"`
	Confidence *float64       `json:"confidence,omitempty"`
	CharStart  *int           `json:"char_start,omitempty"`
	CharEnd    *int           `json:"char_end,omitempty"`
	Page       int            `json:"page"`
}

// AIExtractionResult is the aggregate outcome of AI extraction over a scan.
type AIExtractionResult struct {
	Success          bool               `json:"success"`
	Items            []AIExtractionItem `json:"extracted_data"`
	Query            string             `json:"query,omitempty"`
	Keywords         []string           `json:"keywords,omitempty"`
	TotalExtractions int                `json:"total_extractions"`
	ModelUsed        string             `json:"model_used,omitempty"`
	Error            string             `json:"error,omitempty"`
}
