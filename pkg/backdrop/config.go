package backdrop

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/dovenav/dove/asset"
	"github.com/dovenav/dove/config"
	"github.com/dovenav/dove/pkg/prefs"
	"github.com/dovenav/dove/util/log"
)

// Keyring hooks, swappable in tests where no system keyring exists.
var (
	keyringGet = keyring.Get
	keyringSet = keyring.Set
)

// Config holds the rotation engine's persisted settings. Interval and blur
// are clamped against the current device class on both read and write, so a
// device downgrade can never resurrect an over-limit value. All accessors
// are safe for concurrent use.
type Config struct {
	prefs    prefs.Preferences
	defaults configDefaults
	device   DeviceClass
	userid   string
	mu       sync.RWMutex
}

// configDefaults mirrors the bundled default settings document.
type configDefaults struct {
	IntervalSeconds  int    `json:"backdrop_interval_seconds"`
	BlurPixels       int    `json:"backdrop_blur_pixels"`
	Providers        string `json:"backdrop_providers"`
	FitEnabled       bool   `json:"backdrop_fit_enabled"`
	FaceBoostEnabled bool   `json:"backdrop_face_boost_enabled"`
	DeviceClass      string `json:"backdrop_device_class"`
}

// NewConfig creates a Config over the given preference store, seeded with
// the bundled default settings.
func NewConfig(p prefs.Preferences) (*Config, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}

	defaults := configDefaults{
		IntervalSeconds: DefaultIntervalSeconds,
		BlurPixels:      DefaultBlurPixels,
		DeviceClass:     DeviceDesktop.String(),
	}
	if text, err := asset.NewManager().GetText(asset.DefaultSettingsName); err != nil {
		log.Printf("Failed to load default settings: %v", err)
	} else if err := json.Unmarshal([]byte(text), &defaults); err != nil {
		log.Printf("Failed to parse default settings: %v", err)
	}

	c := &Config{
		prefs:    p,
		defaults: defaults,
		userid:   u.Uid,
	}
	c.device = ParseDeviceClass(p.StringWithFallback(DeviceClassPrefKey, defaults.DeviceClass))
	return c, nil
}

// GetInterval returns the rotation interval in seconds, clamped. Zero means
// rotation is disabled.
func (c *Config) GetInterval() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clampInterval(c.prefs.IntWithFallback(IntervalPrefKey, c.defaults.IntervalSeconds))
}

// SetInterval clamps, persists and returns the applied interval.
func (c *Config) SetInterval(seconds int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied := clampInterval(seconds)
	c.prefs.SetInt(IntervalPrefKey, applied)
	return applied
}

// GetBlur returns the backdrop blur radius in pixels, clamped to the device
// class ceiling.
func (c *Config) GetBlur() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clampBlur(c.prefs.IntWithFallback(BlurPrefKey, c.defaults.BlurPixels), c.device)
}

// SetBlur clamps, persists and returns the applied blur radius.
func (c *Config) SetBlur(pixels int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied := clampBlur(pixels, c.device)
	c.prefs.SetInt(BlurPrefKey, applied)
	return applied
}

// GetDeviceClass returns the current device class hint.
func (c *Config) GetDeviceClass() DeviceClass {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.device
}

// SetDeviceClass updates and persists the device class hint reported by the
// client.
func (c *Config) SetDeviceClass(device DeviceClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.device = device
	c.prefs.SetString(DeviceClassPrefKey, device.String())
}

// GetEnabledProviders returns the provider rotation order.
func (c *Config) GetEnabledProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	csv := c.prefs.StringWithFallback(ProvidersPrefKey, c.defaults.Providers)
	var names []string
	for _, name := range strings.Split(csv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SetEnabledProviders persists a new provider rotation order.
func (c *Config) SetEnabledProviders(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetString(ProvidersPrefKey, strings.Join(names, ","))
}

// GetFitEnabled returns whether backdrops are fitted to the viewport before
// display.
func (c *Config) GetFitEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefs.BoolWithFallback(FitPrefKey, c.defaults.FitEnabled)
}

// SetFitEnabled sets the viewport fitting preference.
func (c *Config) SetFitEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetBool(FitPrefKey, enabled)
}

// GetFaceBoostEnabled returns whether crops are biased toward detected
// faces.
func (c *Config) GetFaceBoostEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefs.BoolWithFallback(FaceBoostPrefKey, c.defaults.FaceBoostEnabled)
}

// SetFaceBoostEnabled sets the face boost preference.
func (c *Config) SetFaceBoostEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetBool(FaceBoostPrefKey, enabled)
}

// GetAPIKey returns the API key for a provider, from the system keyring
// first and the environment second. Empty means the provider is not
// configured.
func (c *Config) GetAPIKey(provider string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key, err := keyringGet(apiKeyService(provider), c.userid)
	if err == nil && key != "" {
		return key
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Printf("Failed to read %s API key from keyring: %v", provider, err)
	}
	return os.Getenv(apiKeyEnvVar(provider))
}

// SetAPIKey stores the API key for a provider in the system keyring.
func (c *Config) SetAPIKey(provider, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := keyringSet(apiKeyService(provider), c.userid, key); err != nil {
		log.Printf("Failed to save %s API key to keyring: %v", provider, err)
	}
}

// OnChange registers a listener fired whenever any preference changes,
// including external edits to the settings file.
func (c *Config) OnChange(listener func()) {
	c.prefs.AddChangeListener(listener)
}

func apiKeyService(provider string) string {
	return enginePrefix + strings.ToLower(provider) + "_api_key"
}

func apiKeyEnvVar(provider string) string {
	return strings.ToUpper(config.AppName) + "_" + strings.ToUpper(provider) + "_API_KEY"
}

// clampInterval forces seconds into the allowed rotation range. Zero and
// below disable rotation entirely.
func clampInterval(seconds int) int {
	switch {
	case seconds <= IntervalDisabled:
		return IntervalDisabled
	case seconds < MinIntervalSeconds:
		return MinIntervalSeconds
	case seconds > MaxIntervalSeconds:
		return MaxIntervalSeconds
	default:
		return seconds
	}
}

// clampBlur forces pixels into the range the device class can afford.
func clampBlur(pixels int, device DeviceClass) int {
	if pixels < 0 {
		return 0
	}
	if limit := device.MaxBlurPixels(); pixels > limit {
		return limit
	}
	return pixels
}
