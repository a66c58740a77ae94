package llm

import (
	"net/http"
	"sync"
)

// Provider adapts the client to one vendor's completion API.
type Provider interface {
	// Name is the provider identifier ("anthropic", "ollama", ...).
	Name() string

	// BuildURL turns an endpoint base URL into the completion URL.
	BuildURL(baseURL string) string

	// SetHeaders adds the provider's auth and version headers.
	SetHeaders(req *http.Request)

	// BuildRequestBody renders the request in the provider's wire
	// format. A nil temperature leaves the provider default in place.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse decodes the provider's response into a Response.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider makes a provider available by name. Providers call
// this from init(); a blank import of the providers package is enough.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider looks up a provider by name, nil when unregistered.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns the registered provider names.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	return names
}
