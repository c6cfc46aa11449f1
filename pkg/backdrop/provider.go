package backdrop

import (
	"context"
	"image"
	"net/http"

	"github.com/google/uuid"
)

// LoadResult is a fetched and decoded backdrop, ready for processing and
// display.
type LoadResult struct {
	ID          string      // Unique id assigned at load time, used to address the bytes later
	Bitmap      image.Image // Decoded pixels
	Bytes       []byte      // Encoded bytes as fetched (or re-encoded after fitting)
	ContentType string      // Content type of Bytes (e.g. "image/jpeg")
	SourceURL   string      // URL the bytes came from
	Provider    string      // Provider name, empty for the bundled fallback
}

// NewLoadResult assigns a fresh id to a decoded backdrop.
func NewLoadResult(bitmap image.Image, raw []byte, contentType, sourceURL, providerName string) *LoadResult {
	return &LoadResult{
		ID:          uuid.NewString(),
		Bitmap:      bitmap,
		Bytes:       raw,
		ContentType: contentType,
		SourceURL:   sourceURL,
		Provider:    providerName,
	}
}

// Provider defines the interface for a backdrop image source.
type Provider interface {
	// Name returns the provider name used in settings and logs.
	Name() string
	// ImageURL returns the URL to fetch for a backdrop of the given size.
	// For API backed providers this is the API endpoint; see ResolvingProvider.
	ImageURL(width, height int) string
}

// ResolvingProvider is an optional interface for providers whose ImageURL
// points at a JSON API rather than at image bytes. ResolveImageURL calls the
// API and returns the direct image URL.
type ResolvingProvider interface {
	Provider
	ResolveImageURL(ctx context.Context, client *http.Client, apiURL string, width, height int) (string, error)
}

// HeaderProvider is an optional interface for providers that require extra
// request headers (e.g. authorization) on API and image requests.
type HeaderProvider interface {
	GetRequestHeaders() map[string]string
}

// ConfigurableProvider is an optional interface for providers that need
// credentials before they can be used. The registry skips providers that
// report false.
type ConfigurableProvider interface {
	Configured() bool
}

// Candidate is a single rotation pick: the provider chosen by the registry
// cursor and the URL instantiated for the requested dimensions.
type Candidate struct {
	Provider Provider
	URL      string
}
