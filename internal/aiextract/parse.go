package aiextract

import (
	"strings"

	"github.com/avelter/qrscan/internal/model"
)

// ParseResponse turns the model's comma-separated answer into items. Entries
// wrapped in braces become structured items with their key/value pairs in
// Attributes; everything else is a simple item.
func ParseResponse(raw string) []model.AIExtractionItem {
	var items []model.AIExtractionItem
	for i, token := range splitTopLevel(strings.TrimSpace(raw)) {
		item := parseItem(token)
		item.ID = i + 1
		items = append(items, item)
	}
	return items
}

// splitTopLevel splits on commas that are not inside braces, so grouped
// values like {name: x, email: y} stay in one token.
func splitTopLevel(s string) []string {
	var tokens []string
	var current strings.Builder
	depth := 0
	for _, ch := range s {
		switch ch {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if token := strings.TrimSpace(current.String()); token != "" {
					tokens = append(tokens, token)
				}
				current.Reset()
				continue
			}
		}
		current.WriteRune(ch)
	}
	if token := strings.TrimSpace(current.String()); token != "" {
		tokens = append(tokens, token)
	}
	return tokens
}

func parseItem(token string) model.AIExtractionItem {
	if strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}") {
		inner := strings.TrimSpace(token[1 : len(token)-1])
		attrs := map[string]any{}
		for _, pair := range strings.Split(inner, ",") {
			key, value, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		if len(attrs) > 0 {
			return model.AIExtractionItem{
				Class:      "structured",
				Text:       token,
				Attributes: attrs,
			}
		}
	}
	return model.AIExtractionItem{
		Class:      "simple",
		Text:       token,
		Attributes: map[string]any{},
	}
}
