package aiextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
)

const (
	// GeminiModel is the generative model queried for extractions.
	GeminiModel = "gemini-2.5-flash"

	defaultEndpoint = "https://generativelanguage.googleapis.com"

	// maxPromptChars bounds how much document text goes into one prompt.
	maxPromptChars = 50000
)

// GeminiExtractor talks to the Google Generative Language REST API.
type GeminiExtractor struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   logging.Logger
}

// NewGemini builds the extractor. An empty API key yields a Disabled
// extractor so callers never need to special-case it.
func NewGemini(apiKey string, logger logging.Logger) Extractor {
	if apiKey == "" {
		logger.Warn("AI extraction disabled, no API key configured")
		return Disabled{}
	}
	return &GeminiExtractor{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger.With(logging.Field{Key: "component", Value: "aiextract"}),
	}
}

// NewGeminiWithEndpoint is NewGemini pointed at a custom API base URL.
func NewGeminiWithEndpoint(apiKey, endpoint string, client *http.Client, logger logging.Logger) Extractor {
	if apiKey == "" {
		return Disabled{}
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &GeminiExtractor{
		apiKey:   apiKey,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
		logger:   logger.With(logging.Field{Key: "component", Value: "aiextract"}),
	}
}

func (g *GeminiExtractor) Enabled() bool { return true }

// Extract prompts the model with the document text and parses the
// comma-separated response into items.
func (g *GeminiExtractor) Extract(ctx context.Context, text string, spec *model.AIRequestSpec) (*model.AIExtractionResult, error) {
	if spec.IsZero() {
		return &model.AIExtractionResult{Success: true}, nil
	}

	prompt := buildPrompt(text, spec)

	g.logger.Debug("sending extraction request",
		logging.Field{Key: "model", Value: GeminiModel},
		logging.Field{Key: "prompt_chars", Value: len(prompt)})

	raw, err := g.generateContent(ctx, prompt)
	if err != nil {
		return &model.AIExtractionResult{
			Success: false,
			Query:   spec.Query,
			Error:   fmt.Sprintf("AI extraction failed: %v", err),
		}, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &model.AIExtractionResult{
			Success: false,
			Query:   spec.Query,
			Error:   "no response from AI model",
		}, nil
	}

	items := ParseResponse(raw)
	return &model.AIExtractionResult{
		Success:          true,
		Items:            items,
		Query:            spec.Query,
		Keywords:         spec.Keywords,
		TotalExtractions: len(items),
		ModelUsed:        GeminiModel,
	}, nil
}

// buildPrompt asks for a comma-separated list, with associated values grouped
// in braces so the parser can recover key/value structure.
func buildPrompt(text string, spec *model.AIRequestSpec) string {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	request := spec.Query
	if request == "" {
		var hints []string
		if spec.SearchCodeLength > 0 {
			hints = append(hints, fmt.Sprintf("search codes are %d characters long", spec.SearchCodeLength))
		}
		if spec.ResultCodeLength > 0 {
			hints = append(hints, fmt.Sprintf("result codes are %d characters long", spec.ResultCodeLength))
		}
		request = "the following associated fields: " + strings.Join(spec.Keywords, ", ")
		if len(hints) > 0 {
			request += " (" + strings.Join(hints, "; ") + ")"
		}
	}

	return fmt.Sprintf(`Search the PDF for the requested recurring values or expressions. Always return your result in a comma-separated list format. If several values are associated, return them in the format {value 1: value, value 2:value}, {}, {}... Here is what you need to search for in the text: %q

PDF TEXT:
%s

Please extract the requested data and format it as specified.`, request, text)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GeminiExtractor) generateContent(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.endpoint, GeminiModel, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("model error: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
