package wallhaven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dovenav/dove/pkg/backdrop"
)

// Name is the provider name used in settings.
const Name = "wallhaven"

// WallhavenAPISearchURL is the wallhaven.cc search endpoint.
const WallhavenAPISearchURL = "https://wallhaven.cc/api/v1/search"

// WallhavenProvider implements backdrop.Provider for wallhaven.cc. Each
// rotation pick runs a random-sorted search scoped to the viewport size and
// takes the first hit. Requires an API key; without one the registry skips
// this provider.
type WallhavenProvider struct {
	cfg *backdrop.Config
}

func init() {
	backdrop.RegisterProvider(Name, func(cfg *backdrop.Config, client *http.Client) backdrop.Provider {
		return NewWallhavenProvider(cfg)
	})
}

// NewWallhavenProvider creates a new WallhavenProvider.
func NewWallhavenProvider(cfg *backdrop.Config) *WallhavenProvider {
	return &WallhavenProvider{cfg: cfg}
}

// Name returns the provider name.
func (p *WallhavenProvider) Name() string {
	return Name
}

// Configured reports whether an API key is available.
func (p *WallhavenProvider) Configured() bool {
	return p.cfg != nil && p.cfg.GetAPIKey(Name) != ""
}

// ImageURL returns a search URL for general, SFW wallpapers at least as
// large as the viewport, in random order.
func (p *WallhavenProvider) ImageURL(width, height int) string {
	u, err := url.Parse(WallhavenAPISearchURL)
	if err != nil {
		return WallhavenAPISearchURL
	}
	q := u.Query()
	q.Set("sorting", "random")
	q.Set("categories", "100")
	q.Set("purity", "100")
	q.Set("atleast", fmt.Sprintf("%dx%d", width, height))
	u.RawQuery = q.Encode()
	return u.String()
}

// ResolveImageURL runs the search and returns the first hit's full image.
func (p *WallhavenProvider) ResolveImageURL(ctx context.Context, client *http.Client, apiURL string, width, height int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", p.cfg.GetAPIKey(Name))

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var search wallhavenSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(search.Data) == 0 {
		return "", fmt.Errorf("search returned no results")
	}
	return search.Data[0].Path, nil
}

// Wallhaven JSON structures

type wallhavenSearchResponse struct {
	Data []wallhavenWallpaper `json:"data"`
}

type wallhavenWallpaper struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Resolution string `json:"resolution"`
}
