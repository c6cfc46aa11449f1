package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dovenav/dove/pkg/backdrop"
)

// Name is the provider name used in settings.
const Name = "unsplash"

// UnsplashRandomPhotoURL is the random photo API endpoint.
const UnsplashRandomPhotoURL = "https://api.unsplash.com/photos/random"

// UnsplashProvider implements backdrop.Provider for Unsplash. The random
// photo API hands back an imgix URL whose sizing parameters are rewritten
// for the viewport. Requires an access key; without one the registry skips
// this provider.
type UnsplashProvider struct {
	cfg *backdrop.Config
}

func init() {
	backdrop.RegisterProvider(Name, func(cfg *backdrop.Config, client *http.Client) backdrop.Provider {
		return NewUnsplashProvider(cfg)
	})
}

// NewUnsplashProvider creates a new UnsplashProvider.
func NewUnsplashProvider(cfg *backdrop.Config) *UnsplashProvider {
	return &UnsplashProvider{cfg: cfg}
}

// Name returns the provider name.
func (p *UnsplashProvider) Name() string {
	return Name
}

// Configured reports whether an access key is available.
func (p *UnsplashProvider) Configured() bool {
	return p.cfg != nil && p.cfg.GetAPIKey(Name) != ""
}

// ImageURL returns the random photo API URL; the direct image URL comes
// from ResolveImageURL.
func (p *UnsplashProvider) ImageURL(width, height int) string {
	u, err := url.Parse(UnsplashRandomPhotoURL)
	if err != nil {
		return UnsplashRandomPhotoURL
	}
	q := u.Query()
	q.Set("orientation", orientationFor(width, height))
	u.RawQuery = q.Encode()
	return u.String()
}

// GetRequestHeaders authorizes requests with the client id.
func (p *UnsplashProvider) GetRequestHeaders() map[string]string {
	return map[string]string{
		"Authorization":  "Client-ID " + p.cfg.GetAPIKey(Name),
		"Accept-Version": "v1",
	}
}

// ResolveImageURL asks for one random photo and sizes its raw URL to the
// viewport.
func (p *UnsplashProvider) ResolveImageURL(ctx context.Context, client *http.Client, apiURL string, width, height int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range p.GetRequestHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var photo unsplashPhoto
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		return "", fmt.Errorf("failed to decode photo response: %w", err)
	}
	if photo.Urls.Raw == "" {
		return "", fmt.Errorf("photo %q has no raw URL", photo.ID)
	}

	u, err := url.Parse(photo.Urls.Raw)
	if err != nil {
		return "", fmt.Errorf("invalid raw URL: %w", err)
	}
	q := u.Query()
	q.Set("w", strconv.Itoa(width))
	q.Set("h", strconv.Itoa(height))
	q.Set("fit", "crop")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func orientationFor(width, height int) string {
	if height > width {
		return "portrait"
	}
	return "landscape"
}

// Unsplash JSON structures

type unsplashPhoto struct {
	ID   string       `json:"id"`
	Urls unsplashUrls `json:"urls"`
}

type unsplashUrls struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
}
