package aiextract

import (
	"context"
	"strings"
	"testing"

	"github.com/avelter/qrscan/internal/model"
)

type countingExtractor struct {
	calls []string
	items []model.AIExtractionItem
	fail  bool
}

func (c *countingExtractor) Enabled() bool { return true }

func (c *countingExtractor) Extract(_ context.Context, text string, _ *model.AIRequestSpec) (*model.AIExtractionResult, error) {
	c.calls = append(c.calls, text)
	if c.fail {
		return &model.AIExtractionResult{Success: false, Error: "quota exceeded"}, nil
	}
	return &model.AIExtractionResult{Success: true, Items: c.items}, nil
}

func TestPerPageStampsAndSkipsBlank(t *testing.T) {
	ex := &countingExtractor{items: []model.AIExtractionItem{{Class: "simple", Text: "X1"}}}
	pages := []PageText{
		{Page: 1, Text: "first page"},
		{Page: 2, Text: "   \n"},
		{Page: 3, Text: "third page"},
	}

	items, err := PerPage{}.Run(context.Background(), ex, pages, &model.AIRequestSpec{Query: "codes"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ex.calls) != 2 {
		t.Fatalf("extractor called %d times, want 2 (blank page skipped)", len(ex.calls))
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Page != 1 || items[1].Page != 3 {
		t.Errorf("pages = %d, %d, want 1, 3", items[0].Page, items[1].Page)
	}
	if items[0].Attributes["page"] != 1 {
		t.Errorf("attributes page = %v", items[0].Attributes["page"])
	}
}

func TestPerPageFailedPageContributesNothing(t *testing.T) {
	ex := &countingExtractor{fail: true}
	pages := []PageText{{Page: 1, Text: "some text"}}

	items, err := PerPage{}.Run(context.Background(), ex, pages, &model.AIRequestSpec{Query: "codes"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items from a failed extraction", len(items))
	}
}

func TestPerPageStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &countingExtractor{}
	pages := []PageText{{Page: 1, Text: "text"}}

	if _, err := (PerPage{}).Run(ctx, ex, pages, &model.AIRequestSpec{Query: "q"}); err == nil {
		t.Fatal("expected context error")
	}
	if len(ex.calls) != 0 {
		t.Errorf("extractor called %d times after cancellation", len(ex.calls))
	}
}

func TestWholeDocumentSingleCall(t *testing.T) {
	ex := &countingExtractor{items: []model.AIExtractionItem{{Class: "simple", Text: "X1"}}}
	pages := []PageText{
		{Page: 1, Text: "first"},
		{Page: 2, Text: ""},
		{Page: 3, Text: "third"},
	}

	items, err := WholeDocument{}.Run(context.Background(), ex, pages, &model.AIRequestSpec{Query: "codes"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ex.calls) != 1 {
		t.Fatalf("extractor called %d times, want 1", len(ex.calls))
	}
	if ex.calls[0] != "first\n\nthird" {
		t.Errorf("prompt text = %q", ex.calls[0])
	}
	if len(items) != 1 || items[0].Page != 0 {
		t.Errorf("items = %+v, want one item without page attribution", items)
	}
}

func TestWholeDocumentAllBlankSkipsCall(t *testing.T) {
	ex := &countingExtractor{}
	pages := []PageText{{Page: 1, Text: "  "}, {Page: 2, Text: "\n"}}

	items, err := WholeDocument{}.Run(context.Background(), ex, pages, &model.AIRequestSpec{Query: "codes"})
	if err != nil || items != nil {
		t.Fatalf("items = %v, err = %v, want nothing", items, err)
	}
	if len(ex.calls) != 0 {
		t.Errorf("extractor called %d times with no text", len(ex.calls))
	}
}

func TestWholeDocumentCustomSeparator(t *testing.T) {
	ex := &countingExtractor{items: []model.AIExtractionItem{{Class: "simple", Text: "X"}}}
	pages := []PageText{{Page: 1, Text: "a"}, {Page: 2, Text: "b"}}

	if _, err := (WholeDocument{Separator: "\f"}).Run(context.Background(), ex, pages, &model.AIRequestSpec{Query: "q"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(ex.calls[0], "\f") {
		t.Errorf("prompt text = %q, want form feed separator", ex.calls[0])
	}
}
