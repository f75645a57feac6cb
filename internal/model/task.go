package model

// AIRequestSpec configures the AI extraction collaborator for a scan. Either
// Query is set (free-text extraction request) or Keywords with the code-length
// hints (structured extraction over known field classes).
type AIRequestSpec struct {
	Query            string   `json:"query,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	SearchCodeLength int      `json:"search_code_length,omitempty"`
	ResultCodeLength int      `json:"result_code_length,omitempty"`
}

// IsZero reports whether no extraction was requested at all.
func (s *AIRequestSpec) IsZero() bool {
	return s == nil || (s.Query == "" && len(s.Keywords) == 0)
}

// ScanTask is the immutable input for one document scan. It is created once
// when a scan is accepted and never mutated afterwards.
type ScanTask struct {
	// DocumentPath is the readable path of the uploaded PDF.
	DocumentPath string `json:"document_path"`

	// Timeout bounds each network probe during URL validation, in seconds.
	Timeout int `json:"timeout"`

	// SearchTexts are landing-page texts matched case-insensitively against
	// fetched page bodies (any match passes).
	SearchTexts []string `json:"search_texts,omitempty"`

	// ExtractText enables odd-page line extraction.
	ExtractText bool `json:"extract_text"`

	// ExpectedDomains restricts QR URLs to these hosts (exact or subdomain).
	// Empty means domain validation is not evaluated.
	ExpectedDomains []string `json:"expected_domains,omitempty"`

	// ExpectedUTM maps utm_* keys to the values they must carry. Empty means
	// UTM validation is not evaluated.
	ExpectedUTM map[string]string `json:"expected_utm_params,omitempty"`

	// AIRequest, when non-zero, enables the AI extraction collaborator.
	AIRequest *AIRequestSpec `json:"ai_extraction,omitempty"`
}

// DefaultTimeout is applied when a task carries no explicit timeout.
const DefaultTimeout = 10

// NewScanTask builds a task for the given document, applying the default
// timeout when none is provided.
func NewScanTask(documentPath string, timeout int) ScanTask {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return ScanTask{
		DocumentPath: documentPath,
		Timeout:      timeout,
	}
}
