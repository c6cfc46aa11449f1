package picsum

import (
	"fmt"
	"net/http"

	"github.com/dovenav/dove/pkg/backdrop"
)

// Name is the provider name used in settings.
const Name = "picsum"

// PicsumBaseURL is the Lorem Picsum endpoint serving random photographs.
const PicsumBaseURL = "https://picsum.photos"

// PicsumProvider implements backdrop.Provider for Lorem Picsum. Picsum
// serves a random photograph directly at a templated URL, so no API step
// and no key are needed.
type PicsumProvider struct{}

func init() {
	backdrop.RegisterProvider(Name, func(cfg *backdrop.Config, client *http.Client) backdrop.Provider {
		return NewPicsumProvider()
	})
}

// NewPicsumProvider creates a new PicsumProvider.
func NewPicsumProvider() *PicsumProvider {
	return &PicsumProvider{}
}

// Name returns the provider name.
func (p *PicsumProvider) Name() string {
	return Name
}

// ImageURL returns the direct image URL for the given dimensions.
func (p *PicsumProvider) ImageURL(width, height int) string {
	return fmt.Sprintf("%s/%d/%d", PicsumBaseURL, width, height)
}
