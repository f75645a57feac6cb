package server

import (
	"net/url"
	"testing"

	"github.com/avelter/qrscan/internal/model"
)

func TestParseScanOptionsDefaults(t *testing.T) {
	task, err := parseScanOptions(url.Values{})
	if err != nil {
		t.Fatalf("parseScanOptions: %v", err)
	}
	if task.Timeout != model.DefaultTimeout {
		t.Errorf("timeout = %d", task.Timeout)
	}
	if task.ExtractText {
		t.Error("extract_text defaulted to true")
	}
	if task.AIRequest != nil {
		t.Error("ai request present without inputs")
	}
}

func TestParseScanOptionsTimeout(t *testing.T) {
	cases := map[string]int{
		"5":    5,
		"0":    1,
		"-3":   1,
		"120":  60,
		"abc":  model.DefaultTimeout,
		"":     model.DefaultTimeout,
		" 15 ": 15,
	}
	for raw, want := range cases {
		task, err := parseScanOptions(url.Values{"timeout": {raw}})
		if err != nil {
			t.Fatalf("timeout %q: %v", raw, err)
		}
		if task.Timeout != want {
			t.Errorf("timeout %q = %d, want %d", raw, task.Timeout, want)
		}
	}
}

func TestParseScanOptionsSearchTexts(t *testing.T) {
	task, err := parseScanOptions(url.Values{
		"search_texts": {"promo ; campaign;; summer sale "},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"promo", "campaign", "summer sale"}
	if len(task.SearchTexts) != len(want) {
		t.Fatalf("search texts = %v", task.SearchTexts)
	}
	for i := range want {
		if task.SearchTexts[i] != want[i] {
			t.Errorf("search text %d = %q, want %q", i, task.SearchTexts[i], want[i])
		}
	}
}

func TestParseScanOptionsDomains(t *testing.T) {
	task, err := parseScanOptions(url.Values{
		"expected_domains": {"example.com, sub.example.org"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(task.ExpectedDomains) != 2 {
		t.Errorf("domains = %v", task.ExpectedDomains)
	}

	if _, err := parseScanOptions(url.Values{
		"expected_domains": {"not_a_domain"},
	}); err == nil {
		t.Error("invalid domain accepted")
	}
}

func TestParseScanOptionsUTM(t *testing.T) {
	task, err := parseScanOptions(url.Values{
		"expected_utm_params": {"utm_source=print; utm_campaign=q3;"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.ExpectedUTM["utm_source"] != "print" || task.ExpectedUTM["utm_campaign"] != "q3" {
		t.Errorf("utm = %v", task.ExpectedUTM)
	}

	if _, err := parseScanOptions(url.Values{
		"expected_utm_params": {"just-a-key"},
	}); err == nil {
		t.Error("pair without '=' accepted")
	}
}

func TestParseScanOptionsAIRequest(t *testing.T) {
	task, err := parseScanOptions(url.Values{
		"extraction_keywords": {"code", "email"},
		"search_code_length":  {"8"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.AIRequest == nil {
		t.Fatal("ai request missing")
	}
	if len(task.AIRequest.Keywords) != 2 {
		t.Errorf("keywords = %v", task.AIRequest.Keywords)
	}
	if task.AIRequest.SearchCodeLength != 8 {
		t.Errorf("search code length = %d", task.AIRequest.SearchCodeLength)
	}

	task, err = parseScanOptions(url.Values{
		"unstructured_data_query": {"all promo codes"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.AIRequest == nil || task.AIRequest.Query != "all promo codes" {
		t.Errorf("ai request = %+v", task.AIRequest)
	}
}

func TestParseScanOptionsExtractText(t *testing.T) {
	for raw, want := range map[string]bool{
		"true": true, "1": true, "on": true, "YES": true,
		"false": false, "0": false, "": false, "maybe": false,
	} {
		task, err := parseScanOptions(url.Values{"extract_text": {raw}})
		if err != nil {
			t.Fatal(err)
		}
		if task.ExtractText != want {
			t.Errorf("extract_text %q = %v, want %v", raw, task.ExtractText, want)
		}
	}
}
