package bingdaily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dovenav/dove/pkg/backdrop"
	"github.com/dovenav/dove/util/log"
)

// Name is the provider name used in settings.
const Name = "bingdaily"

const (
	// BingArchiveURL returns metadata for the current picture of the day.
	BingArchiveURL = "https://www.bing.com/HPImageArchive.aspx?format=js&idx=0&n=1&mkt=en-US"
	// BingBaseURL prefixes the relative urlbase returned by the archive.
	BingBaseURL = "https://www.bing.com"

	// uhdMinWidth is the viewport width from which the UHD rendition is
	// requested instead of the 1080p one.
	uhdMinWidth = 2560
)

// BingDailyProvider implements backdrop.Provider for the Bing picture of
// the day. The archive API returns a relative image path that is resolved
// into a concrete rendition per viewport size. No key needed.
type BingDailyProvider struct{}

func init() {
	backdrop.RegisterProvider(Name, func(cfg *backdrop.Config, client *http.Client) backdrop.Provider {
		return NewBingDailyProvider()
	})
}

// NewBingDailyProvider creates a new BingDailyProvider.
func NewBingDailyProvider() *BingDailyProvider {
	return &BingDailyProvider{}
}

// Name returns the provider name.
func (p *BingDailyProvider) Name() string {
	return Name
}

// ImageURL returns the archive API URL; the direct image URL comes from
// ResolveImageURL.
func (p *BingDailyProvider) ImageURL(width, height int) string {
	return BingArchiveURL
}

// ResolveImageURL calls the archive API and builds the image URL for the
// best fitting rendition.
func (p *BingDailyProvider) ResolveImageURL(ctx context.Context, client *http.Client, apiURL string, width, height int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var archive bingArchiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return "", fmt.Errorf("failed to decode archive response: %w", err)
	}
	if len(archive.Images) == 0 {
		return "", fmt.Errorf("archive returned no images")
	}

	rendition := "_1920x1080.jpg"
	if width >= uhdMinWidth {
		rendition = "_UHD.jpg"
	}

	img := archive.Images[0]
	log.Debugf("Bing picture of the day: %s", img.Title)
	return BingBaseURL + img.URLBase + rendition, nil
}

// Bing JSON structures

type bingArchiveResponse struct {
	Images []bingArchiveImage `json:"images"`
}

type bingArchiveImage struct {
	URLBase   string `json:"urlbase"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Copyright string `json:"copyright"`
}
