package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dovenav/dove/pkg/prefs"
)

// MockPreferences implements prefs.Preferences for testing
type MockPreferences struct {
	data map[string]any
}

func NewMockPreferences() *MockPreferences {
	return &MockPreferences{data: make(map[string]any)}
}

var _ prefs.Preferences = (*MockPreferences)(nil)

func (m *MockPreferences) Bool(key string) bool { return m.BoolWithFallback(key, false) }

func (m *MockPreferences) BoolWithFallback(key string, fallback bool) bool {
	if v, ok := m.data[key].(bool); ok {
		return v
	}
	return fallback
}

func (m *MockPreferences) SetBool(key string, value bool) { m.data[key] = value }

func (m *MockPreferences) Int(key string) int { return m.IntWithFallback(key, 0) }

func (m *MockPreferences) IntWithFallback(key string, fallback int) int {
	if v, ok := m.data[key].(int); ok {
		return v
	}
	return fallback
}

func (m *MockPreferences) SetInt(key string, value int) { m.data[key] = value }

func (m *MockPreferences) Float(key string) float64 { return m.FloatWithFallback(key, 0) }

func (m *MockPreferences) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := m.data[key].(float64); ok {
		return v
	}
	return fallback
}

func (m *MockPreferences) SetFloat(key string, value float64) { m.data[key] = value }

func (m *MockPreferences) String(key string) string { return m.StringWithFallback(key, "") }

func (m *MockPreferences) StringWithFallback(key, fallback string) string {
	if v, ok := m.data[key].(string); ok {
		return v
	}
	return fallback
}

func (m *MockPreferences) SetString(key string, value string) { m.data[key] = value }

func (m *MockPreferences) RemoveValue(key string) { delete(m.data, key) }

func (m *MockPreferences) AddChangeListener(listener func()) {}

func TestAppConfigDefaults(t *testing.T) {
	cfg := NewAppConfig(NewMockPreferences())

	assert.True(t, cfg.GetUpdateCheckEnabled(), "update check defaults on")
	assert.False(t, cfg.GetHotkeysEnabled(), "hotkeys default off")
}

func TestAppConfigUpdateCheckToggle(t *testing.T) {
	p := NewMockPreferences()
	cfg := NewAppConfig(p)

	cfg.SetUpdateCheckEnabled(false)
	assert.False(t, cfg.GetUpdateCheckEnabled())
	assert.Equal(t, false, p.data[AppUpdateCheckEnabledKey])

	cfg.SetUpdateCheckEnabled(true)
	assert.True(t, cfg.GetUpdateCheckEnabled())
}

func TestAppConfigHotkeysToggle(t *testing.T) {
	p := NewMockPreferences()
	cfg := NewAppConfig(p)

	cfg.SetHotkeysEnabled(true)
	assert.True(t, cfg.GetHotkeysEnabled())

	cfg.SetHotkeysEnabled(false)
	assert.False(t, cfg.GetHotkeysEnabled())
}
