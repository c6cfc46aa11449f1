package backdrop

import (
	"sync"

	"github.com/dovenav/dove/pkg/prefs"
)

// MockPreferences is a map backed prefs.Preferences for tests.
type MockPreferences struct {
	mu        sync.Mutex
	data      map[string]any
	listeners []func()
}

// NewMockPreferences creates an empty mock preference store.
func NewMockPreferences() *MockPreferences {
	return &MockPreferences{data: make(map[string]any)}
}

var _ prefs.Preferences = (*MockPreferences)(nil)

func (m *MockPreferences) get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MockPreferences) set(key string, value any) {
	m.mu.Lock()
	m.data[key] = value
	ls := make([]func(), len(m.listeners))
	copy(ls, m.listeners)
	m.mu.Unlock()
	for _, l := range ls {
		l()
	}
}

func (m *MockPreferences) Bool(key string) bool { return m.BoolWithFallback(key, false) }

func (m *MockPreferences) BoolWithFallback(key string, fallback bool) bool {
	if v, ok := m.get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func (m *MockPreferences) SetBool(key string, value bool) { m.set(key, value) }

func (m *MockPreferences) Int(key string) int { return m.IntWithFallback(key, 0) }

func (m *MockPreferences) IntWithFallback(key string, fallback int) int {
	if v, ok := m.get(key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return fallback
}

func (m *MockPreferences) SetInt(key string, value int) { m.set(key, value) }

func (m *MockPreferences) Float(key string) float64 { return m.FloatWithFallback(key, 0) }

func (m *MockPreferences) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := m.get(key); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return fallback
}

func (m *MockPreferences) SetFloat(key string, value float64) { m.set(key, value) }

func (m *MockPreferences) String(key string) string { return m.StringWithFallback(key, "") }

func (m *MockPreferences) StringWithFallback(key, fallback string) string {
	if v, ok := m.get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func (m *MockPreferences) SetString(key string, value string) { m.set(key, value) }

func (m *MockPreferences) RemoveValue(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *MockPreferences) AddChangeListener(listener func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}
