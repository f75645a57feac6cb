package aiextract

import (
	"context"
	"strings"

	"github.com/avelter/qrscan/internal/model"
)

// PageText pairs a page number with its extracted text.
type PageText struct {
	Page int
	Text string
}

// Strategy decides how document text reaches the extractor. PerPage keeps
// page attribution exact at the cost of one model call per page;
// WholeDocument spends a single call on the concatenated text and gives up
// page attribution.
type Strategy interface {
	Run(ctx context.Context, ex Extractor, pages []PageText, spec *model.AIRequestSpec) ([]model.AIExtractionItem, error)
}

// PerPage invokes the extractor once per non-blank page and stamps the
// owning page into every item. A failed page contributes nothing; the error
// return is reserved for context cancellation.
type PerPage struct{}

func (PerPage) Run(ctx context.Context, ex Extractor, pages []PageText, spec *model.AIRequestSpec) ([]model.AIExtractionItem, error) {
	var items []model.AIExtractionItem
	for _, pt := range pages {
		if strings.TrimSpace(pt.Text) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return items, err
		}
		result, err := ex.Extract(ctx, pt.Text, spec)
		if err != nil || result == nil || !result.Success {
			continue
		}
		for _, item := range result.Items {
			item.Page = pt.Page
			if item.Attributes == nil {
				item.Attributes = map[string]any{}
			}
			item.Attributes["page"] = pt.Page
			items = append(items, item)
		}
	}
	return items, nil
}

// WholeDocument joins all non-blank pages into a single extractor call.
// Items carry no page number. The extractor's prompt clamp still applies, so
// the tail of a very long document may never reach the model.
type WholeDocument struct {
	// Separator goes between pages; a blank line when empty.
	Separator string
}

func (w WholeDocument) Run(ctx context.Context, ex Extractor, pages []PageText, spec *model.AIRequestSpec) ([]model.AIExtractionItem, error) {
	sep := w.Separator
	if sep == "" {
		sep = "\n\n"
	}

	var parts []string
	for _, pt := range pages {
		if strings.TrimSpace(pt.Text) != "" {
			parts = append(parts, pt.Text)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	result, err := ex.Extract(ctx, strings.Join(parts, sep), spec)
	if err != nil || result == nil || !result.Success {
		return nil, ctx.Err()
	}
	return result.Items, nil
}
