package webclient

import (
	"context"
	"net/http"
	"time"
)

// Request is a backend-agnostic HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the backend-agnostic result of executing a Request.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FinalURL   string
	FetchedAt  time.Time
}

// WebClient executes requests against landing pages. The net/http backend is
// the default; the chromedp backend renders JavaScript-heavy pages before
// returning their HTML.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
