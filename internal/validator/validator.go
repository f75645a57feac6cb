package validator

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
	"github.com/avelter/qrscan/internal/utils"
	"github.com/avelter/qrscan/internal/webclient"
)

const userAgent = "QR-Scanner/1.0"

// Validator probes the URLs found in QR codes and checks them against the
// configured domain, UTM, and content expectations.
type Validator struct {
	client webclient.WebClient
	logger logging.Logger
}

func New(client webclient.WebClient, logger logging.Logger) *Validator {
	return &Validator{
		client: client,
		logger: logger.With(logging.Field{Key: "component", Value: "validator"}),
	}
}

// Validate probes a single URL and fills in a validation record. A failed
// probe is reported inside the record, never as a returned error, so one dead
// link cannot abort a scan.
func (v *Validator) Validate(ctx context.Context, rawURL string, page int, task *model.ScanTask) model.QRValidationRecord {
	rec := model.QRValidationRecord{
		URL:  rawURL,
		Page: page,
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		rec.Error = "invalid URL"
		v.evaluateDomain(&rec, "", task)
		v.evaluateUTM(&rec, nil, task)
		return rec
	}

	rec.Netloc = parsed.Host
	rec.UTM = extractUTM(parsed)

	v.evaluateDomain(&rec, parsed.Hostname(), task)
	v.evaluateUTM(&rec, parsed, task)

	timeout := time.Duration(task.Timeout) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(model.DefaultTimeout) * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, body, err := v.probe(probeCtx, rawURL, task)
	rec.ResponseTimeMS = roundMS(time.Since(start))

	if err != nil {
		rec.Error = err.Error()
		if len(task.SearchTexts) > 0 {
			rec.ContentValid = model.Invalid
		}
		v.logger.Warn("url probe failed",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "error", Value: err.Error()})
		return rec
	}

	status := resp.StatusCode
	rec.HTTPStatus = &status
	rec.FinalURL = resp.FinalURL
	if resp.Headers != nil {
		rec.ContentType = resp.Headers.Get("Content-Type")
		if cl := resp.Headers.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
				rec.ContentLength = &n
			}
		}
	}

	if len(task.SearchTexts) > 0 {
		rec.ContentValid = evaluateContent(status, body, task.SearchTexts)
	}

	return rec
}

// probe issues a HEAD request first and falls back to GET when the HEAD fails
// at the transport level. When content checks are configured and the page
// answered 200, the body is fetched with a single GET. At most two network
// calls are made per URL.
func (v *Validator) probe(ctx context.Context, rawURL string, task *model.ScanTask) (*webclient.Response, []byte, error) {
	headers := http.Header{}
	headers.Set("User-Agent", userAgent)

	needBody := len(task.SearchTexts) > 0

	resp, headErr := v.client.Do(ctx, &webclient.Request{
		Method:  http.MethodHead,
		URL:     rawURL,
		Headers: headers,
	})
	if headErr != nil {
		// Some servers reject HEAD outright; a GET settles it either way.
		resp, getErr := v.client.Do(ctx, &webclient.Request{
			Method:  http.MethodGet,
			URL:     rawURL,
			Headers: headers,
		})
		if getErr != nil {
			return nil, nil, getErr
		}
		return resp, resp.Body, nil
	}

	if !needBody || resp.StatusCode != http.StatusOK {
		return resp, nil, nil
	}

	bodyResp, err := v.client.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Headers: headers,
	})
	if err != nil {
		// The HEAD succeeded, so keep its result and treat the content
		// check as failed rather than the whole probe.
		return resp, nil, nil
	}
	return resp, bodyResp.Body, nil
}

func (v *Validator) evaluateDomain(rec *model.QRValidationRecord, host string, task *model.ScanTask) {
	if len(task.ExpectedDomains) == 0 {
		return
	}
	for _, domain := range task.ExpectedDomains {
		if utils.HostMatchesDomain(host, domain) {
			rec.DomainValid = model.Valid
			return
		}
	}
	rec.DomainValid = model.Invalid
}

func (v *Validator) evaluateUTM(rec *model.QRValidationRecord, parsed *url.URL, task *model.ScanTask) {
	if len(task.ExpectedUTM) == 0 {
		return
	}
	if parsed == nil || parsed.RawQuery == "" {
		rec.UTMValid = model.Invalid
		return
	}
	query := parsed.Query()
	for key, want := range task.ExpectedUTM {
		if query.Get(key) != want {
			rec.UTMValid = model.Invalid
			return
		}
	}
	rec.UTMValid = model.Valid
}

func evaluateContent(status int, body []byte, searchTexts []string) model.Validity {
	if status != http.StatusOK || len(body) == 0 {
		return model.Invalid
	}
	haystack := strings.ToLower(string(body))
	for _, text := range searchTexts {
		if text == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(text)) {
			return model.Valid
		}
	}
	return model.Invalid
}

// extractUTM collects utm_* query parameters, keeping the first value of each
// key.
func extractUTM(parsed *url.URL) map[string]string {
	utm := map[string]string{}
	for key, values := range parsed.Query() {
		if strings.HasPrefix(strings.ToLower(key), "utm_") && len(values) > 0 {
			utm[key] = values[0]
		}
	}
	return utm
}

func roundMS(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000.0
	return math.Round(ms*100) / 100
}
