// Package backdrop implements the adaptive background rotation engine: it
// cycles full screen imagery from external providers, crossfades between
// images via double buffered render surfaces, absorbs provider failures
// through a bounded retry and fallback chain, and retunes page theming to
// the luminance of whatever image is on screen.
package backdrop

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	pigo "github.com/esimov/pigo/core"

	"github.com/dovenav/dove/asset"
	"github.com/dovenav/dove/pkg/prefs"
	"github.com/dovenav/dove/util/log"
)

// Options configures a new Engine. Prefs, Front and Back are required.
type Options struct {
	Prefs prefs.Preferences
	Theme ThemeSink // may be nil
	Front Surface   // initially visible surface
	Back  Surface   // initially hidden surface

	Metrics     *Metrics      // nil disables metrics
	Client      *http.Client  // nil uses NewHTTPClient
	Tuning      *TuningConfig // nil uses DefaultTuningConfig
	Providers   []Provider    // nil instantiates the configured providers
	Fallback    FallbackFunc  // nil decodes the embedded fallback asset
	CascadePath string        // path to a pigo facefinder cascade, empty disables face boost
}

// Engine owns the whole rotation pipeline. All mutable rotation state sits
// behind one mutex; swap execution itself is serialized by the switching
// flag, never by holding the lock across I/O.
type Engine struct {
	cfg      *Config
	tuning   TuningConfig
	registry *Registry
	resolver *Resolver
	preload  *PreloadCache
	proc     *processor
	buffers  *doubleBuffer
	theme    ThemeSink
	sched    *Scheduler
	metrics  *Metrics
	assets   *asset.Manager

	mu           sync.Mutex
	switching    bool
	queued       bool
	tone         ToneClass
	viewportW    int
	viewportH    int
	paused       bool
	lastInterval int
	runCtx       context.Context
	runCancel    context.CancelFunc

	wg sync.WaitGroup
}

// New assembles an engine from the given options. The engine is inert until
// Start is called.
func New(opts Options) (*Engine, error) {
	if opts.Prefs == nil {
		return nil, fmt.Errorf("preferences are required")
	}
	if opts.Front == nil || opts.Back == nil {
		return nil, fmt.Errorf("front and back surfaces are required")
	}

	cfg, err := NewConfig(opts.Prefs)
	if err != nil {
		return nil, err
	}

	tuning := DefaultTuningConfig()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	client := opts.Client
	if client == nil {
		client = NewHTTPClient()
	}

	providers := opts.Providers
	if providers == nil {
		providers = ProvidersFromConfig(cfg, client)
	}
	registry := NewRegistry(providers)

	assets := asset.NewManager()
	fallback := opts.Fallback
	if fallback == nil {
		fallback = func() (*LoadResult, error) {
			bitmap, err := assets.GetImage(asset.FallbackImageName)
			if err != nil {
				return nil, err
			}
			raw, err := assets.GetRawImage(asset.FallbackImageName)
			if err != nil {
				return nil, err
			}
			return NewLoadResult(bitmap, raw, "image/png", fallbackSourceURL, ""), nil
		}
	}

	e := &Engine{
		cfg:       cfg,
		tuning:    tuning,
		registry:  registry,
		preload:   NewPreloadCache(),
		proc:      newProcessor(tuning, loadFaceDetector(opts.CascadePath)),
		buffers:   newDoubleBuffer(opts.Front, opts.Back),
		theme:     opts.Theme,
		metrics:   opts.Metrics,
		assets:    assets,
		tone:      ToneUnknown,
		viewportW: DefaultViewportWidth,
		viewportH: DefaultViewportHeight,
		runCtx:    context.Background(),
		runCancel: func() {},
	}
	e.resolver = NewResolver(registry, NewLoader(client, tuning), client, fallback, opts.Metrics)
	return e, nil
}

// Start brings the engine online: it schedules rotation at the persisted
// interval, applies the persisted blur, subscribes to preference changes and
// requests the first backdrop.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	interval := e.cfg.GetInterval()

	e.mu.Lock()
	e.runCtx = runCtx
	e.runCancel = cancel
	e.lastInterval = interval
	e.mu.Unlock()

	sched, err := NewScheduler(e.RequestSwap)
	if err != nil {
		return fmt.Errorf("starting rotation scheduler: %w", err)
	}
	e.sched = sched
	if err := e.sched.Reschedule(interval); err != nil {
		return fmt.Errorf("scheduling rotation: %w", err)
	}

	if e.theme != nil {
		e.theme.ApplyBlur(e.cfg.GetBlur())
	}
	e.cfg.OnChange(e.onPrefsChanged)

	log.Printf("Backdrop engine started (providers: %v)", e.registry.Names())
	e.RequestSwap()
	return nil
}

// Stop cancels in-flight work and waits for it to drain.
func (e *Engine) Stop() {
	if e.sched != nil {
		if err := e.sched.Shutdown(); err != nil {
			log.Printf("Scheduler shutdown: %v", err)
		}
	}
	e.mu.Lock()
	cancel := e.runCancel
	e.mu.Unlock()
	cancel()
	e.wg.Wait()
}

// Run starts the engine and blocks until ctx is canceled, then shuts down.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	e.Stop()
	return nil
}

// Config exposes the engine's persisted settings.
func (e *Engine) Config() *Config {
	return e.cfg
}

// Tone returns the most recent tone classification.
func (e *Engine) Tone() ToneClass {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tone
}

// SetInterval clamps and persists a new rotation interval, reschedules the
// timer immediately and returns the applied value.
func (e *Engine) SetInterval(seconds int) int {
	applied := clampInterval(seconds)

	e.mu.Lock()
	e.lastInterval = applied
	paused := e.paused
	e.mu.Unlock()

	e.cfg.SetInterval(seconds)
	if e.sched != nil && !paused {
		if err := e.sched.Reschedule(applied); err != nil {
			log.Printf("Failed to reschedule rotation: %v", err)
		}
	}
	return applied
}

// SetBlur clamps and persists a new blur radius, pushes it to the theme
// immediately and returns the applied value.
func (e *Engine) SetBlur(pixels int) int {
	applied := e.cfg.SetBlur(pixels)
	if e.theme != nil {
		e.theme.ApplyBlur(applied)
	}
	return applied
}

// SetViewport records the client viewport used to size provider requests.
func (e *Engine) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	e.viewportW = width
	e.viewportH = height
	e.mu.Unlock()
}

// SetDeviceClass updates the device class hint. The blur ceiling may shrink
// with it, so the clamped blur is re-pushed to the theme.
func (e *Engine) SetDeviceClass(device DeviceClass) {
	e.cfg.SetDeviceClass(device)
	if e.theme != nil {
		e.theme.ApplyBlur(e.cfg.GetBlur())
	}
}

// SetPaused suspends or resumes automatic rotation. Manual swaps keep
// working while paused.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	if e.paused == paused {
		e.mu.Unlock()
		return
	}
	e.paused = paused
	e.mu.Unlock()

	if e.sched == nil {
		return
	}
	interval := IntervalDisabled
	if !paused {
		interval = e.cfg.GetInterval()
	}
	if err := e.sched.Reschedule(interval); err != nil {
		log.Printf("Failed to reschedule rotation: %v", err)
	}
}

// IsPaused reports whether automatic rotation is suspended.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// TogglePaused flips the pause state and returns the new value.
func (e *Engine) TogglePaused() bool {
	paused := !e.IsPaused()
	e.SetPaused(paused)
	return paused
}

// onPrefsChanged reapplies settings after the preference store changes
// underneath us, e.g. when the settings file is edited externally.
func (e *Engine) onPrefsChanged() {
	interval := e.cfg.GetInterval()

	e.mu.Lock()
	changed := interval != e.lastInterval
	e.lastInterval = interval
	paused := e.paused
	e.mu.Unlock()

	if changed && e.sched != nil && !paused {
		if err := e.sched.Reschedule(interval); err != nil {
			log.Printf("Failed to reschedule rotation: %v", err)
		}
	}
	if e.theme != nil {
		e.theme.ApplyBlur(e.cfg.GetBlur())
	}
}

func (e *Engine) viewport() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewportW, e.viewportH
}

// loadFaceDetector reads and unpacks a pigo cascade. Any failure disables
// face boost rather than failing engine construction.
func loadFaceDetector(path string) *pigo.Pigo {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Failed to load face detection model: %v. Face boost will be disabled.", err)
		return nil
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		log.Printf("Failed to unpack face detection model: %v. Face boost will be disabled.", err)
		return nil
	}
	return classifier
}
