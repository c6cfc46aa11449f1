package backdrop

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	tuning := DefaultTuningConfig()
	tuning.RequestsPerSecond = 1000 // don't slow the suite down
	tuning.RequestBurst = 1000
	return NewLoader(http.DefaultClient, tuning)
}

func TestLoaderDecodesImage(t *testing.T) {
	data := uniformPNG(t, 32, 16, color.White)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	res, err := newTestLoader().Load(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Bitmap)
	assert.Equal(t, 32, res.Bitmap.Bounds().Dx())
	assert.Equal(t, 16, res.Bitmap.Bounds().Dy())
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, srv.URL, res.SourceURL)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, data, res.Bytes, "original bytes ride along with the bitmap")
}

func TestLoaderStatusFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res, err := newTestLoader().Load(context.Background(), srv.URL, nil)
	assert.Nil(t, res)
	assert.True(t, IsNetworkError(err), "got %v", err)
	assert.False(t, IsDecodeError(err))
}

func TestLoaderUndecodablePayloadIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	}))
	defer srv.Close()

	res, err := newTestLoader().Load(context.Background(), srv.URL, nil)
	assert.Nil(t, res)
	assert.True(t, IsDecodeError(err), "got %v", err)
	assert.False(t, IsNetworkError(err))
}

func TestLoaderUnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	res, err := newTestLoader().Load(context.Background(), srv.URL, nil)
	assert.Nil(t, res)
	assert.True(t, IsNetworkError(err), "got %v", err)
}

func TestLoaderAppliesRequestHeaders(t *testing.T) {
	data := uniformPNG(t, 8, 8, color.White)
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write(data)
	}))
	defer srv.Close()

	_, err := newTestLoader().Load(context.Background(), srv.URL, map[string]string{"X-API-Key": "secret"})
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestLoaderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestLoader().Load(ctx, "http://127.0.0.1:0/never", nil)
	assert.Nil(t, res)
	assert.Error(t, err)
}
