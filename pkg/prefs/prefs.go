// Package prefs provides a small key-value preference store persisted as a
// JSON document. It is the settings backend for the daemon: typed accessors
// with fallbacks, debounced atomic saves, and live reload of external edits.
package prefs

// Preferences describes the read/write surface consumed by configuration
// layers. All accessors are safe for concurrent use.
type Preferences interface {
	Bool(key string) bool
	BoolWithFallback(key string, fallback bool) bool
	SetBool(key string, value bool)

	Int(key string) int
	IntWithFallback(key string, fallback int) int
	SetInt(key string, value int)

	Float(key string) float64
	FloatWithFallback(key string, fallback float64) float64
	SetFloat(key string, value float64)

	String(key string) string
	StringWithFallback(key, fallback string) string
	SetString(key string, value string)

	RemoveValue(key string)

	// AddChangeListener registers a function invoked after any change to the
	// store, including reloads triggered by external edits of the backing file.
	AddChangeListener(listener func())
}
