package backdrop

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes swap pipeline counters on a Prometheus registry. A nil
// *Metrics records nothing, so callers and tests can opt out.
type Metrics struct {
	once          sync.Once
	swaps         *prom.CounterVec
	swapRequests  *prom.CounterVec
	loadAttempts  *prom.CounterVec
	loadDuration  *prom.HistogramVec
	preloadEvents *prom.CounterVec
	tones         *prom.CounterVec
	fadeTimeouts  prom.Counter
}

// NewMetrics constructs and registers backdrop metrics (idempotent).
func NewMetrics(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{}
	m.once.Do(func() {
		m.swaps = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "swaps_total",
			Help:      "Completed swap cycles by result",
		}, []string{"result"})
		m.swapRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "swap_requests_total",
			Help:      "Swap requests by disposition",
		}, []string{"disposition"})
		m.loadAttempts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "load_attempts_total",
			Help:      "Image load attempts by provider and result",
		}, []string{"provider", "result"})
		m.loadDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "load_duration_seconds",
			Help:      "Duration of image load attempts",
			Buckets:   prom.DefBuckets,
		}, []string{"provider"})
		m.preloadEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "preload_events_total",
			Help:      "Preload cache activity by event",
		}, []string{"event"})
		m.tones = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "tone_classifications_total",
			Help:      "Tone analysis outcomes",
		}, []string{"tone"})
		m.fadeTimeouts = prom.NewCounter(prom.CounterOpts{
			Namespace: "dove",
			Subsystem: "backdrop",
			Name:      "fade_timeouts_total",
			Help:      "Crossfades finished by the safety net timer instead of a client event",
		})
		reg.MustRegister(m.swaps, m.swapRequests, m.loadAttempts, m.loadDuration, m.preloadEvents, m.tones, m.fadeTimeouts)
	})
	return m
}

// IncSwap counts a completed swap cycle. Result is ok, fallback or aborted.
func (m *Metrics) IncSwap(result string) {
	if m == nil || m.swaps == nil {
		return
	}
	m.swaps.WithLabelValues(result).Inc()
}

// IncSwapRequest counts an incoming swap request. Disposition is started,
// queued or dropped.
func (m *Metrics) IncSwapRequest(disposition string) {
	if m == nil || m.swapRequests == nil {
		return
	}
	m.swapRequests.WithLabelValues(disposition).Inc()
}

// ObserveLoad records one load attempt against a provider.
func (m *Metrics) ObserveLoad(provider, result string, d time.Duration) {
	if m == nil || m.loadAttempts == nil {
		return
	}
	m.loadAttempts.WithLabelValues(provider, result).Inc()
	m.loadDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncPreload counts preload cache activity. Event is hit, miss, stored or
// stale.
func (m *Metrics) IncPreload(event string) {
	if m == nil || m.preloadEvents == nil {
		return
	}
	m.preloadEvents.WithLabelValues(event).Inc()
}

// IncTone counts a tone classification outcome.
func (m *Metrics) IncTone(tone ToneClass) {
	if m == nil || m.tones == nil {
		return
	}
	m.tones.WithLabelValues(tone.String()).Inc()
}

// IncFadeTimeout counts a crossfade that needed the safety net timer.
func (m *Metrics) IncFadeTimeout() {
	if m == nil || m.fadeTimeouts == nil {
		return
	}
	m.fadeTimeouts.Inc()
}
