package backdrop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dovenav/dove/asset"
	"github.com/dovenav/dove/util/log"
)

// fallbackSourceURL marks a backdrop as coming from the embedded asset
// rather than a provider.
const fallbackSourceURL = "asset://" + asset.FallbackImageName

// RequestSwap asks for the next backdrop. It never blocks and no failure
// ever propagates to the caller. In the idle state it starts a swap; while
// one is in flight it queues at most a single follow-up, and anything past
// that is dropped. Scheduler ticks and manual triggers go through this same
// path, so both coalesce identically.
func (e *Engine) RequestSwap() {
	e.mu.Lock()
	if e.switching {
		if e.queued {
			e.mu.Unlock()
			e.metrics.IncSwapRequest("dropped")
			return
		}
		e.queued = true
		e.mu.Unlock()
		e.metrics.IncSwapRequest("queued")
		return
	}
	e.switching = true
	ctx := e.runCtx
	e.mu.Unlock()
	e.metrics.IncSwapRequest("started")

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runSwap(ctx)
	}()
}

// runSwap executes one swap cycle: obtain an image (preloaded or freshly
// resolved), crossfade it in, then leave the switching state and serve the
// queued request if one arrived.
func (e *Engine) runSwap(ctx context.Context) {
	w, h := e.viewport()

	res, cached := e.preload.Take()
	if cached {
		e.metrics.IncPreload("hit")
	} else {
		e.metrics.IncPreload("miss")
		var err error
		res, err = e.resolvePrepared(ctx, w, h)
		if err != nil {
			e.swapFailed(ctx, err)
			return
		}
	}

	e.displayWithFade(ctx, res)
	e.finishSwap(ctx)
}

// resolvePrepared resolves the next backdrop and fits it to the viewport.
func (e *Engine) resolvePrepared(ctx context.Context, width, height int) (*LoadResult, error) {
	res, err := e.resolver.LoadNext(ctx, width, height)
	if err != nil {
		return nil, err
	}
	return e.prepare(ctx, res, width, height), nil
}

// prepare runs the fit pipeline. Fitting failures degrade to the original
// image rather than failing the swap.
func (e *Engine) prepare(ctx context.Context, res *LoadResult, width, height int) *LoadResult {
	if res.Bitmap == nil || !e.cfg.GetFitEnabled() {
		return res
	}
	fitted, err := e.proc.Fit(ctx, res, width, height, e.cfg.GetFaceBoostEnabled())
	if err != nil {
		log.Printf("Backdrop fit failed, using original: %v", err)
		return res
	}
	return fitted
}

// swapFailed handles a swap whose resolve stage produced no image. Total
// exhaustion paints the bundled fallback directly, without a crossfade, and
// rotation resumes on the next tick. Cancellation abandons the cycle.
func (e *Engine) swapFailed(ctx context.Context, err error) {
	if !errors.Is(err, ErrAllProvidersExhausted) {
		log.Printf("Swap aborted: %v", err)
		e.metrics.IncSwap("aborted")
		e.mu.Lock()
		e.switching = false
		e.queued = false
		e.mu.Unlock()
		return
	}

	log.Print("All backdrop providers exhausted, painting fallback")
	e.showFallbackDirect(ctx)
	e.metrics.IncSwap("fallback")
	e.finishSwap(ctx)
}

// showFallbackDirect puts the embedded fallback bytes straight onto the
// visible surface. No fade, no tone change; the previous theme stays.
func (e *Engine) showFallbackDirect(ctx context.Context) {
	raw, err := e.assets.GetRawImage(asset.FallbackImageName)
	if err != nil {
		// Nothing left to show; keep whatever is on screen.
		log.Printf("Fallback asset unavailable: %v", err)
		return
	}
	res := &LoadResult{
		ID:          uuid.NewString(),
		Bytes:       raw,
		ContentType: "image/png",
		SourceURL:   fallbackSourceURL,
	}

	primary := e.buffers.Primary()
	if err := primary.Surface.SetImage(ctx, res); err != nil {
		log.Printf("Failed to paint fallback backdrop: %v", err)
		return
	}
	primary.CurrentURL = res.SourceURL
}

// displayWithFade stages res on the hidden surface, retunes the theme, then
// cross dissolves both surfaces at once. Completion is whichever comes
// first: the client's fade-done report or the safety net timer, so a lost
// event can never wedge the state machine.
func (e *Engine) displayWithFade(ctx context.Context, res *LoadResult) {
	e.applyTone(res)

	hidden := e.buffers.Hidden()
	if err := hidden.Surface.SetImage(ctx, res); err != nil {
		log.Printf("Failed to stage backdrop: %v", err)
		e.metrics.IncSwap("aborted")
		return
	}
	hidden.CurrentURL = res.SourceURL

	done := hidden.Surface.SetVisible(true)
	e.buffers.Primary().Surface.SetVisible(false)
	hidden.Visible = true

	timer := time.NewTimer(e.tuning.FadeTimeout())
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		e.metrics.IncFadeTimeout()
	case <-ctx.Done():
	}

	e.buffers.Swap()
	e.metrics.IncSwap("ok")
}

// applyTone classifies the staged backdrop and pushes the result to the
// theme. An unclassifiable image keeps the previous tone.
func (e *Engine) applyTone(res *LoadResult) {
	tone := NewToneAnalyzer(e.cfg.GetDeviceClass()).Classify(res.Bitmap)
	e.metrics.IncTone(tone)
	if tone == ToneUnknown {
		return
	}

	e.mu.Lock()
	e.tone = tone
	e.mu.Unlock()
	if e.theme != nil {
		e.theme.ApplyTone(tone)
	}
}

// finishSwap leaves the switching state, re-issues the one queued request if
// any, then unconditionally schedules the next preload refill.
func (e *Engine) finishSwap(ctx context.Context) {
	e.mu.Lock()
	e.switching = false
	queued := e.queued
	e.queued = false
	e.mu.Unlock()

	if queued && ctx.Err() == nil {
		e.RequestSwap()
	}
	e.scheduleRefill(ctx)
}

// scheduleRefill starts an asynchronous preload so the next swap can begin
// with zero fetch latency. The refill presents the generation it started
// under; if a swap empties the slot meanwhile, the late result is dropped
// instead of adopted.
func (e *Engine) scheduleRefill(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	gen := e.preload.Generation()
	w, h := e.viewport()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		res, err := e.resolvePrepared(ctx, w, h)
		if err != nil {
			log.Printf("Preload refill failed: %v", err)
			return
		}
		if e.preload.Put(gen, res) {
			e.metrics.IncPreload("stored")
		} else {
			e.metrics.IncPreload("stale")
		}
	}()
}
