package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovenav/dove/pkg/backdrop"
	"github.com/dovenav/dove/pkg/prefs"
)

func testConfig(t *testing.T) *backdrop.Config {
	t.Helper()
	store, err := prefs.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	cfg, err := backdrop.NewConfig(store)
	require.NoError(t, err)
	return cfg
}

func TestUnsplashRegistered(t *testing.T) {
	assert.Contains(t, backdrop.GetRegisteredProviders(), Name)
}

func TestUnsplashImageURLOrientation(t *testing.T) {
	p := NewUnsplashProvider(testConfig(t))

	landscape, err := url.Parse(p.ImageURL(1920, 1080))
	require.NoError(t, err)
	assert.Equal(t, "landscape", landscape.Query().Get("orientation"))

	portrait, err := url.Parse(p.ImageURL(1080, 1920))
	require.NoError(t, err)
	assert.Equal(t, "portrait", portrait.Query().Get("orientation"))
}

func TestUnsplashRequestHeaders(t *testing.T) {
	t.Setenv("DOVE_UNSPLASH_API_KEY", "access123")
	p := NewUnsplashProvider(testConfig(t))

	headers := p.GetRequestHeaders()
	assert.Equal(t, "Client-ID access123", headers["Authorization"])
	assert.Equal(t, "v1", headers["Accept-Version"])
}

func TestUnsplashResolveImageURL(t *testing.T) {
	t.Setenv("DOVE_UNSPLASH_API_KEY", "access123")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Client-ID access123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": "ph1", "urls": {"raw": "https://images.unsplash.com/photo-ph1?ixid=xyz"}}`))
	}))
	defer srv.Close()

	p := NewUnsplashProvider(testConfig(t))

	got, err := p.ResolveImageURL(context.Background(), srv.Client(), srv.URL, 1920, 1080)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "1920", q.Get("w"))
	assert.Equal(t, "1080", q.Get("h"))
	assert.Equal(t, "crop", q.Get("fit"))
	assert.Equal(t, "xyz", q.Get("ixid"), "existing imgix parameters are preserved")
}

func TestUnsplashResolveMissingRawURL(t *testing.T) {
	t.Setenv("DOVE_UNSPLASH_API_KEY", "access123")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "ph1", "urls": {}}`))
	}))
	defer srv.Close()

	p := NewUnsplashProvider(testConfig(t))

	_, err := p.ResolveImageURL(context.Background(), srv.Client(), srv.URL, 1920, 1080)
	assert.Error(t, err)
}

func TestUnsplashConfiguredRequiresKey(t *testing.T) {
	p := NewUnsplashProvider(testConfig(t))

	t.Setenv("DOVE_UNSPLASH_API_KEY", "")
	assert.False(t, p.Configured())

	t.Setenv("DOVE_UNSPLASH_API_KEY", "access123")
	assert.True(t, p.Configured())
}
