package config

import "github.com/dovenav/dove/pkg/prefs"

// AppUpdateCheckEnabledKey is the key for the app update check enabled preference
const AppUpdateCheckEnabledKey = "app_update_check_enabled"

// AppHotkeysEnabledKey is the key for the global hotkeys enabled preference
const AppHotkeysEnabledKey = "app_hotkeys_enabled"

// AppConfig holds the application-wide configuration
type AppConfig struct {
	prefs prefs.Preferences
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p prefs.Preferences) *AppConfig {
	return &AppConfig{prefs: p}
}

// GetUpdateCheckEnabled returns whether the daemon should check for updates at startup
func (c *AppConfig) GetUpdateCheckEnabled() bool {
	return c.prefs.BoolWithFallback(AppUpdateCheckEnabledKey, true)
}

// SetUpdateCheckEnabled sets whether the daemon should check for updates at startup
func (c *AppConfig) SetUpdateCheckEnabled(enabled bool) {
	c.prefs.SetBool(AppUpdateCheckEnabledKey, enabled)
}

// GetHotkeysEnabled returns whether global hotkeys are registered
func (c *AppConfig) GetHotkeysEnabled() bool {
	return c.prefs.BoolWithFallback(AppHotkeysEnabledKey, false)
}

// SetHotkeysEnabled sets whether global hotkeys are registered
func (c *AppConfig) SetHotkeysEnabled(enabled bool) {
	c.prefs.SetBool(AppHotkeysEnabledKey, enabled)
}
