package server

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/avelter/qrscan/internal/model"
)

const (
	minTimeout = 1
	maxTimeout = 60
)

var domainRe = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// parseScanOptions reads the scan configuration out of the upload form.
// Unknown fields are ignored; invalid values are reported so the client can
// fix the form instead of silently getting a differently-configured scan.
func parseScanOptions(form url.Values) (model.ScanTask, error) {
	task := model.NewScanTask("", parseTimeout(form.Get("timeout")))

	if raw := strings.TrimSpace(form.Get("search_texts")); raw != "" {
		for _, text := range strings.Split(raw, ";") {
			if text = strings.TrimSpace(text); text != "" {
				task.SearchTexts = append(task.SearchTexts, text)
			}
		}
	}

	task.ExtractText = isTruthy(form.Get("extract_text"))

	if raw := strings.TrimSpace(form.Get("expected_domains")); raw != "" {
		for _, domain := range strings.Split(raw, ",") {
			domain = strings.TrimSpace(domain)
			if domain == "" {
				continue
			}
			if !domainRe.MatchString(domain) {
				return task, fmt.Errorf("invalid domain format: %q", domain)
			}
			task.ExpectedDomains = append(task.ExpectedDomains, domain)
		}
	}

	if raw := strings.TrimSpace(form.Get("expected_utm_params")); raw != "" {
		utm := map[string]string{}
		for _, pair := range strings.Split(raw, ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return task, fmt.Errorf("invalid UTM parameter: %q, expected key=value", pair)
			}
			utm[key] = strings.TrimSpace(value)
		}
		if len(utm) > 0 {
			task.ExpectedUTM = utm
		}
	}

	spec := model.AIRequestSpec{
		Query:            strings.TrimSpace(form.Get("unstructured_data_query")),
		SearchCodeLength: parseOptionalInt(form.Get("search_code_length")),
		ResultCodeLength: parseOptionalInt(form.Get("result_code_length")),
	}
	for _, kw := range form["extraction_keywords"] {
		if kw = strings.TrimSpace(kw); kw != "" {
			spec.Keywords = append(spec.Keywords, kw)
		}
	}
	if !spec.IsZero() {
		task.AIRequest = &spec
	}

	return task, nil
}

// parseTimeout clamps the probe timeout to its allowed range; anything
// unparseable falls back to the default.
func parseTimeout(raw string) int {
	timeout, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return model.DefaultTimeout
	}
	if timeout < minTimeout {
		return minTimeout
	}
	if timeout > maxTimeout {
		return maxTimeout
	}
	return timeout
}

func parseOptionalInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}
