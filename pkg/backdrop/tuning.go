package backdrop

import "time"

// TuningConfig holds the internal magic numbers and thresholds for the swap
// pipeline. These are currently static but centralized here to allow for
// future remote configuration.
type TuningConfig struct {
	// Fitting
	AspectThreshold float64 `json:"aspect_threshold"` // Default: 0.9 (aspect ratio tolerance before cropping)
	EncodingQuality int     `json:"encoding_quality"` // Default: 90 (JPEG quality for processed backdrops)

	// Crossfade
	FadeDurationMS int `json:"fade_duration_ms"` // Default: 700 (client side cross dissolve length)
	FadeTimeoutMS  int `json:"fade_timeout_ms"`  // Default: 750 (safety net when no completion event arrives)

	// Face detection (pigo)
	FaceDetectConfidence float64 `json:"face_detect_confidence"` // Default: 10.0 (base filter)
	FaceDetectMinSizePct int     `json:"face_detect_min_size_pct"`
	FaceDetectShift      float64 `json:"face_detect_shift"`
	FaceScaleFactor      float64 `json:"face_scale_factor"`
	FaceIoUThreshold     float64 `json:"face_iou_threshold"` // Default: 0.2 (detection clustering)

	// Provider traffic
	RequestsPerSecond float64 `json:"requests_per_second"` // Default: 2 (upstream fetch rate limit)
	RequestBurst      int     `json:"request_burst"`       // Default: 4
}

// DefaultTuningConfig returns the standard values.
func DefaultTuningConfig() TuningConfig {
	return TuningConfig{
		AspectThreshold:      0.9,
		EncodingQuality:      90,
		FadeDurationMS:       700,
		FadeTimeoutMS:        750,
		FaceDetectConfidence: 10.0,
		FaceDetectMinSizePct: 1,
		FaceDetectShift:      0.1,
		FaceScaleFactor:      1.1,
		FaceIoUThreshold:     0.2,
		RequestsPerSecond:    2,
		RequestBurst:         4,
	}
}

// FadeDuration returns the crossfade length as a time.Duration.
func (t TuningConfig) FadeDuration() time.Duration {
	return time.Duration(t.FadeDurationMS) * time.Millisecond
}

// FadeTimeout returns the completion safety net as a time.Duration.
func (t TuningConfig) FadeTimeout() time.Duration {
	return time.Duration(t.FadeTimeoutMS) * time.Millisecond
}
