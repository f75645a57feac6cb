package webclient

import (
	"github.com/avelter/qrscan/internal/interfaces"
	"github.com/chromedp/chromedp"
)

// RegisterDefaultBackends wires up the built-in client implementations.
func RegisterDefaultBackends() {
	RegisterBackend(ClientNetHTTP, func(cfg Config, logger interfaces.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	})

	RegisterBackend(ClientChromedp, func(cfg Config, logger interfaces.Logger) (WebClient, error) {
		var opts []chromedp.ExecAllocatorOption
		if !cfg.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		return NewChromeDPClient(cfg.IdleAfter, opts...)
	})
}
