package webclient

import (
	"fmt"
	"sort"
	"sync"

	"github.com/avelter/qrscan/internal/interfaces"
)

type Factory func(cfg Config, logger interfaces.Logger) (WebClient, error)

var (
	backendsMu sync.RWMutex
	backends   = map[Client]Factory{}
)

// RegisterBackend makes a client implementation available under the given
// name. Later registrations overwrite earlier ones.
func RegisterBackend(name Client, factory Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// NewWebClient builds the client named by cfg.Client.
func NewWebClient(cfg Config, logger interfaces.Logger) (WebClient, error) {
	backendsMu.RLock()
	factory, ok := backends[cfg.Client]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown web client backend: %q", cfg.Client)
	}
	return factory(cfg, logger)
}

func ListBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
