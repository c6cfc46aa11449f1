package backdrop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	// Formats the loader can decode. Providers serve JPEG almost
	// exclusively, but PNG and WebP show up in Bing's archive.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/time/rate"
)

// Loader fetches backdrop images over HTTP and decodes them. Requests carry
// only the shared User-Agent and any provider auth headers; no cookies or
// referrers. A single Load call never retries; retry policy lives in the
// Resolver.
type Loader struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewLoader creates a loader over the given client, rate limited per the
// tuning config so refills and manual swaps cannot hammer a provider.
func NewLoader(client *http.Client, tuning TuningConfig) *Loader {
	return &Loader{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(tuning.RequestsPerSecond), tuning.RequestBurst),
	}
}

// Load fetches rawURL and decodes the response into a bitmap. Extra request
// headers are applied when non nil. All failures come back as a *LoadError
// tagged network or decode.
func (l *Loader) Load(ctx context.Context, rawURL string, headers map[string]string) (*LoadResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, &LoadError{Kind: ErrNetwork, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &LoadError{Kind: ErrNetwork, URL: rawURL, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{Kind: ErrNetwork, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{Kind: ErrNetwork, URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes))
	if err != nil {
		return nil, &LoadError{Kind: ErrNetwork, URL: rawURL, Err: err}
	}

	bitmap, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &LoadError{Kind: ErrDecode, URL: rawURL, Err: err}
	}

	return NewLoadResult(bitmap, raw, "image/"+format, rawURL, ""), nil
}
