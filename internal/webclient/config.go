package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config is the minimal configuration required for constructing a WebClient.
// It is embedded in app.Config without creating an import cycle.
type Config struct {
	Client Client

	// Timeout bounds each request for the nethttp backend.
	Timeout time.Duration

	// IdleAfter is the network-idle window the chromedp backend waits for
	// before snapshotting the page.
	IdleAfter time.Duration

	// Headless controls the chromedp backend's browser mode.
	Headless bool
}

// DefaultConfig returns the nethttp backend with a 30s timeout.
func DefaultConfig() Config {
	return Config{
		Client:    ClientNetHTTP,
		Timeout:   30 * time.Second,
		IdleAfter: 2 * time.Second,
		Headless:  true,
	}
}
