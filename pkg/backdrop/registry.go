package backdrop

import (
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/dovenav/dove/util/log"
)

// ProviderFactory defines the function signature for creating a provider.
type ProviderFactory func(cfg *Config, client *http.Client) Provider

var providerRegistry = make(map[string]ProviderFactory)

// RegisterProvider registers a new image provider factory. Providers call
// this from init, so importing a provider package is enough to make it
// available by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// GetRegisteredProviders returns all registered provider factories.
func GetRegisteredProviders() map[string]ProviderFactory {
	return providerRegistry
}

// Registry holds the ordered provider rotation and hands out one candidate
// URL per call, round robin.
type Registry struct {
	mu        sync.Mutex
	providers []Provider
	cursor    int
}

// NewRegistry creates a registry over the given providers in rotation order.
func NewRegistry(providers []Provider) *Registry {
	return &Registry{providers: providers}
}

// ProvidersFromConfig instantiates the providers named in the config, in the
// configured order. Unknown names are logged and skipped.
func ProvidersFromConfig(cfg *Config, client *http.Client) []Provider {
	var providers []Provider
	for _, name := range cfg.GetEnabledProviders() {
		factory, ok := providerRegistry[name]
		if !ok {
			log.Printf("Unknown backdrop provider %q, skipping", name)
			continue
		}
		providers = append(providers, factory(cfg, client))
	}
	return providers
}

// Next returns the next usable provider's candidate URL for the given
// dimensions and advances the cursor. Providers that report themselves
// unconfigured are skipped. The second return is false when no provider is
// usable.
func (r *Registry) Next(width, height int) (Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < len(r.providers); i++ {
		idx := (r.cursor + i) % len(r.providers)
		p := r.providers[idx]
		if c, ok := p.(ConfigurableProvider); ok && !c.Configured() {
			continue
		}
		r.cursor = (idx + 1) % len(r.providers)
		return Candidate{Provider: p, URL: cacheBust(p.ImageURL(width, height))}, true
	}
	return Candidate{}, false
}

// AvailableCount returns how many providers are currently usable. This is
// the attempt budget for one swap before the bundled fallback is tried.
func (r *Registry) AvailableCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, p := range r.providers {
		if c, ok := p.(ConfigurableProvider); ok && !c.Configured() {
			continue
		}
		n++
	}
	return n
}

// Names returns the names of all providers in rotation order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// cacheBust appends a random query value so identical provider URLs fetched
// twice bypass intermediate HTTP caches.
func cacheBust(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("r", strconv.FormatUint(rand.Uint64(), 36))
	u.RawQuery = q.Encode()
	return u.String()
}
