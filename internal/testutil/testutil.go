package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/avelter/qrscan/internal/webclient"
)

// ScriptedCall records one request seen by a ScriptedWebClient.
type ScriptedCall struct {
	Method string
	URL    string
}

// ScriptedWebClient is a webclient.WebClient whose behavior is decided by a
// handler function, for exercising transport-level paths that are awkward to
// provoke from a real HTTP server.
type ScriptedWebClient struct {
	// Handle decides the response for each request.
	Handle func(req *webclient.Request) (*webclient.Response, error)

	mu     sync.Mutex
	calls  []ScriptedCall
	closed bool
}

func (c *ScriptedWebClient) Do(_ context.Context, req *webclient.Request) (*webclient.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, ScriptedCall{Method: req.Method, URL: req.URL})
	c.mu.Unlock()

	if c.Handle == nil {
		return nil, fmt.Errorf("no handler scripted")
	}
	return c.Handle(req)
}

func (c *ScriptedWebClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns the requests observed so far.
func (c *ScriptedWebClient) Calls() []ScriptedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ScriptedCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// Closed reports whether Close was called.
func (c *ScriptedWebClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
