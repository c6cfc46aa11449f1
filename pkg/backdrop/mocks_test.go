package backdrop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSurface records what the coordinator does to one render layer. The
// done channel returned from SetVisible(true) is controlled by the test; a
// nil done means fades confirm instantly.
type fakeSurface struct {
	mu           sync.Mutex
	images       []*LoadResult
	visibleCalls []bool
	done         chan struct{}
	setImageErr  error
}

func (s *fakeSurface) SetImage(ctx context.Context, res *LoadResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setImageErr != nil {
		return s.setImageErr
	}
	s.images = append(s.images, res)
	return nil
}

func (s *fakeSurface) SetVisible(visible bool) <-chan struct{} {
	s.mu.Lock()
	s.visibleCalls = append(s.visibleCalls, visible)
	done := s.done
	s.mu.Unlock()

	if visible && done != nil {
		return done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (s *fakeSurface) imageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

func (s *fakeSurface) lastImage() *LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) == 0 {
		return nil
	}
	return s.images[len(s.images)-1]
}

func (s *fakeSurface) fadeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visibleCalls)
}

// fakeTheme records tone and blur pushes.
type fakeTheme struct {
	mu    sync.Mutex
	tones []ToneClass
	blurs []int
}

func (t *fakeTheme) ApplyTone(tone ToneClass) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tones = append(t.tones, tone)
}

func (t *fakeTheme) ApplyBlur(pixels int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blurs = append(t.blurs, pixels)
}

func (t *fakeTheme) lastTone() ToneClass {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.tones) == 0 {
		return ToneUnknown
	}
	return t.tones[len(t.tones)-1]
}

// testProvider serves a fixed URL.
type testProvider struct {
	name string
	url  string
}

func (p *testProvider) Name() string                  { return p.name }
func (p *testProvider) ImageURL(width, height int) string { return p.url }

// gatedProvider is a testProvider that can report itself unconfigured.
type gatedProvider struct {
	testProvider
	configured bool
}

func (p *gatedProvider) Configured() bool { return p.configured }

// uniformPNG encodes a w x h image filled with a single color.
func uniformPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, uniformImage(w, h, c)))
	return buf.Bytes()
}

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// newImageServer serves a uniform PNG on every request and counts hits.
func newImageServer(t *testing.T, w, h int, c color.Color) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	data := uniformPNG(t, w, h, c)
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		rw.Header().Set("Content-Type", "image/png")
		rw.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

// newTestEngine builds an engine over fake surfaces and the given providers.
// Rotation is disabled so only explicit RequestSwap calls drive it.
func newTestEngine(t *testing.T, providers []Provider, opts Options) (*Engine, *fakeSurface, *fakeSurface, *fakeTheme) {
	t.Helper()

	p := NewMockPreferences()
	p.SetInt(IntervalPrefKey, IntervalDisabled)
	p.SetBool(FitPrefKey, false)

	front := &fakeSurface{}
	back := &fakeSurface{}
	theme := &fakeTheme{}

	opts.Prefs = p
	opts.Theme = theme
	opts.Front = front
	opts.Back = back
	opts.Providers = providers
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	e, err := New(opts)
	require.NoError(t, err)
	return e, front, back, theme
}

// failingFallback returns a FallbackFunc that always errors.
func failingFallback() FallbackFunc {
	return func() (*LoadResult, error) {
		return nil, fmt.Errorf("no fallback in this test")
	}
}
