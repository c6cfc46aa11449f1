package backdrop

import (
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSwapFromIdle(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	e, front, back, theme := newTestEngine(t, []Provider{provider}, Options{})

	e.RequestSwap()

	// The image lands on the hidden (back) surface and the roles swap.
	assert.Eventually(t, func() bool {
		return back.imageCount() == 1 && !e.switchingState()
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, back, e.buffers.Primary().Surface, "back surface should be primary after the swap")
	assert.Equal(t, front, e.buffers.Hidden().Surface)
	assert.True(t, e.buffers.Primary().Visible)
	assert.False(t, e.buffers.Hidden().Visible)

	// A white backdrop classifies light and reaches the theme.
	assert.Equal(t, ToneLight, theme.lastTone())
	assert.Equal(t, ToneLight, e.Tone())

	// The preload slot refills without another swap being requested.
	assert.Eventually(t, func() bool {
		return e.preload.Cached()
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRequestSwapCoalescesWhileSwitching(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	// Long safety net so completion is entirely under test control.
	tuning := DefaultTuningConfig()
	tuning.FadeTimeoutMS = 10_000

	e, front, back, _ := newTestEngine(t, []Provider{provider}, Options{Tuning: &tuning})
	back.done = make(chan struct{})
	front.done = make(chan struct{})

	e.RequestSwap()
	require.Eventually(t, func() bool {
		return back.imageCount() == 1
	}, 3*time.Second, 10*time.Millisecond, "first swap should stage on the back surface")

	// Hammer the engine while the first fade is held open. All of these
	// must collapse into exactly one follow-up swap.
	for i := 0; i < 5; i++ {
		e.RequestSwap()
	}
	assert.True(t, e.queuedState())

	close(back.done)
	require.Eventually(t, func() bool {
		return front.imageCount() == 1
	}, 3*time.Second, 10*time.Millisecond, "queued swap should stage on the new hidden surface")

	close(front.done)
	assert.Eventually(t, func() bool {
		return !e.switchingState()
	}, 3*time.Second, 10*time.Millisecond)

	// Nothing beyond the single queued follow-up may run.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, back.imageCount())
	assert.Equal(t, 1, front.imageCount())
	assert.False(t, e.queuedState())
}

func TestRequestSwapConcurrentCallers(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	tuning := DefaultTuningConfig()
	tuning.FadeTimeoutMS = 10_000

	e, front, back, _ := newTestEngine(t, []Provider{provider}, Options{Tuning: &tuning})
	back.done = make(chan struct{})
	front.done = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.RequestSwap()
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return back.imageCount() == 1
	}, 3*time.Second, 10*time.Millisecond)
	close(back.done)
	close(front.done)

	assert.Eventually(t, func() bool {
		return !e.switchingState() && !e.queuedState()
	}, 3*time.Second, 10*time.Millisecond)

	// Sixteen racing requests produce at most the in-flight swap plus one
	// queued follow-up.
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, back.imageCount()+front.imageCount(), 2)
	assert.GreaterOrEqual(t, back.imageCount(), 1)
}

func TestSwapExhaustionPaintsFallbackWithoutCrossfade(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	srv.Close() // every provider attempt now fails

	provider := &testProvider{name: "dead", url: srv.URL}
	e, front, back, theme := newTestEngine(t, []Provider{provider}, Options{
		Fallback: failingFallback(),
	})

	e.RequestSwap()

	assert.Eventually(t, func() bool {
		return front.imageCount() == 1 && !e.switchingState()
	}, 3*time.Second, 10*time.Millisecond, "fallback should be painted on the visible surface")

	// No crossfade: the hidden surface stays untouched and no visibility
	// change is pushed anywhere.
	assert.Equal(t, 0, back.imageCount())
	assert.Equal(t, 0, front.fadeCount())
	assert.Equal(t, 0, back.fadeCount())

	// Roles did not swap and the previous tone is retained.
	assert.Equal(t, front, e.buffers.Primary().Surface)
	assert.Equal(t, ToneUnknown, theme.lastTone())
	assert.Equal(t, fallbackSourceURL, front.lastImage().SourceURL)
	assert.Equal(t, fallbackSourceURL, e.buffers.Primary().CurrentURL)
}

func TestSwapConsumesPreloadedResult(t *testing.T) {
	srv, hits := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	e, _, back, _ := newTestEngine(t, []Provider{provider}, Options{})

	preloaded := NewLoadResult(uniformImage(64, 64, color.Black), uniformPNG(t, 64, 64, color.Black), "image/png", "preloaded://image", "test")
	require.True(t, e.preload.Put(e.preload.Generation(), preloaded))

	e.RequestSwap()

	assert.Eventually(t, func() bool {
		return back.imageCount() == 1 && !e.switchingState()
	}, 3*time.Second, 10*time.Millisecond)

	// The swap itself uses the cached result; only the refill afterwards
	// touches the provider.
	assert.Equal(t, "preloaded://image", back.lastImage().SourceURL)
	assert.Eventually(t, func() bool {
		return e.preload.Cached()
	}, 3*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFadeTimeoutSafetyNet(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	tuning := DefaultTuningConfig()
	tuning.FadeTimeoutMS = 50

	e, _, back, _ := newTestEngine(t, []Provider{provider}, Options{Tuning: &tuning})
	// A done channel that never closes, like a backgrounded tab.
	back.done = make(chan struct{})

	start := time.Now()
	e.RequestSwap()

	assert.Eventually(t, func() bool {
		return !e.switchingState() && back.imageCount() == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second, "safety net should complete the swap without a client event")
	assert.Equal(t, back, e.buffers.Primary().Surface)
}

func TestEngineStartStop(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	e, _, back, theme := newTestEngine(t, []Provider{provider}, Options{})

	ctx := t.Context()
	require.NoError(t, e.Start(ctx))

	// Start applies the persisted blur and requests the first backdrop.
	assert.Eventually(t, func() bool {
		return back.imageCount() == 1
	}, 3*time.Second, 10*time.Millisecond)
	theme.mu.Lock()
	blurPushes := len(theme.blurs)
	theme.mu.Unlock()
	assert.GreaterOrEqual(t, blurPushes, 1)

	e.Stop()
	assert.False(t, e.switchingState())
}

func TestSetIntervalAndBlurClampAndApply(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	e, _, _, theme := newTestEngine(t, []Provider{provider}, Options{})

	assert.Equal(t, MinIntervalSeconds, e.SetInterval(1))
	assert.Equal(t, IntervalDisabled, e.SetInterval(0))
	assert.Equal(t, MaxIntervalSeconds, e.SetInterval(MaxIntervalSeconds+1))

	applied := e.SetBlur(1000)
	assert.Equal(t, DeviceDesktop.MaxBlurPixels(), applied)
	theme.mu.Lock()
	lastBlur := theme.blurs[len(theme.blurs)-1]
	theme.mu.Unlock()
	assert.Equal(t, applied, lastBlur)

	// A weaker device class shrinks the ceiling and re-pushes the blur.
	e.SetDeviceClass(DeviceMobile)
	theme.mu.Lock()
	lastBlur = theme.blurs[len(theme.blurs)-1]
	theme.mu.Unlock()
	assert.Equal(t, DeviceMobile.MaxBlurPixels(), lastBlur)
}

func TestTogglePaused(t *testing.T) {
	srv, _ := newImageServer(t, 64, 64, color.White)
	provider := &testProvider{name: "test", url: srv.URL}

	e, _, _, _ := newTestEngine(t, []Provider{provider}, Options{})

	assert.False(t, e.IsPaused())
	assert.True(t, e.TogglePaused())
	assert.True(t, e.IsPaused())
	assert.False(t, e.TogglePaused())
	assert.False(t, e.IsPaused())
}

func (e *Engine) switchingState() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.switching
}

func (e *Engine) queuedState() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queued
}
