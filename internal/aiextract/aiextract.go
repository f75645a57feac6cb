package aiextract

import (
	"context"

	"github.com/avelter/qrscan/internal/model"
)

// Extractor sends page text to an AI model and returns the extracted items.
// An unavailable extractor reports the failure inside the result instead of
// returning an error, so a missing API key never fails a scan.
type Extractor interface {
	Extract(ctx context.Context, text string, spec *model.AIRequestSpec) (*model.AIExtractionResult, error)

	Enabled() bool
}

// Disabled is the extractor used when no API key is configured.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Extract(_ context.Context, _ string, _ *model.AIRequestSpec) (*model.AIExtractionResult, error) {
	return &model.AIExtractionResult{
		Success: false,
		Error:   "AI extraction not available - API key not configured",
	}, nil
}
