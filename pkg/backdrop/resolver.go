package backdrop

import (
	"context"
	"net/http"
	"time"

	"github.com/dovenav/dove/util/log"
)

// imageFetcher abstracts the Loader so resolver tests can fake the network.
type imageFetcher interface {
	Load(ctx context.Context, rawURL string, headers map[string]string) (*LoadResult, error)
}

// FallbackFunc produces the bundled fallback backdrop.
type FallbackFunc func() (*LoadResult, error)

// Resolver walks the provider rotation until an image loads. Every usable
// provider gets exactly one attempt per call, then the bundled fallback gets
// one more. Worst case is provider count plus one sequential attempts, so a
// swap can never hang on a dead network.
type Resolver struct {
	registry *Registry
	fetcher  imageFetcher
	client   *http.Client
	fallback FallbackFunc
	metrics  *Metrics
}

// NewResolver creates a resolver. The client is used for provider API calls
// that precede the image fetch itself.
func NewResolver(registry *Registry, fetcher imageFetcher, client *http.Client, fallback FallbackFunc, metrics *Metrics) *Resolver {
	return &Resolver{
		registry: registry,
		fetcher:  fetcher,
		client:   client,
		fallback: fallback,
		metrics:  metrics,
	}
}

// LoadNext returns the next displayable backdrop for the given dimensions.
// Provider failures are absorbed here and never propagate; the only errors a
// caller sees are ErrAllProvidersExhausted, when the bundled fallback failed
// too, and ctx errors on shutdown.
func (r *Resolver) LoadNext(ctx context.Context, width, height int) (*LoadResult, error) {
	maxTries := r.registry.AvailableCount()

	for try := 0; try < maxTries; try++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cand, ok := r.registry.Next(width, height)
		if !ok {
			break
		}

		start := time.Now()
		res, err := r.loadCandidate(ctx, cand, width, height)
		if err != nil {
			r.metrics.ObserveLoad(cand.Provider.Name(), "error", time.Since(start))
			log.Printf("Backdrop load from %s failed: %v", cand.Provider.Name(), err)
			continue
		}
		r.metrics.ObserveLoad(cand.Provider.Name(), "ok", time.Since(start))
		res.Provider = cand.Provider.Name()
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := r.fallback()
	if err != nil {
		r.metrics.ObserveLoad("fallback", "error", time.Since(start))
		log.Printf("Bundled fallback backdrop failed: %v", err)
		return nil, ErrAllProvidersExhausted
	}
	r.metrics.ObserveLoad("fallback", "ok", time.Since(start))
	return res, nil
}

// loadCandidate fetches one candidate. Providers whose URL points at a JSON
// API are resolved first; a resolve failure consumes that provider's attempt.
func (r *Resolver) loadCandidate(ctx context.Context, cand Candidate, width, height int) (*LoadResult, error) {
	var headers map[string]string
	if hp, ok := cand.Provider.(HeaderProvider); ok {
		headers = hp.GetRequestHeaders()
	}

	imgURL := cand.URL
	if rp, ok := cand.Provider.(ResolvingProvider); ok {
		resolved, err := rp.ResolveImageURL(ctx, r.client, cand.URL, width, height)
		if err != nil {
			return nil, &LoadError{Kind: ErrNetwork, URL: cand.URL, Err: err}
		}
		imgURL = resolved
	}

	return r.fetcher.Load(ctx, imgURL, headers)
}
