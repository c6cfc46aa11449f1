package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dovenav/dove/util/log"
)

const (
	saveDebounce   = 500 * time.Millisecond
	reloadDebounce = 250 * time.Millisecond
)

// Store is a file-backed Preferences implementation. Values live in memory;
// mutations schedule a debounced save that writes the JSON document atomically
// (temp file + rename). Watch keeps the store in sync with external edits.
type Store struct {
	mu        sync.RWMutex
	path      string
	values    map[string]any
	listeners []func()

	saveMu    sync.Mutex
	saveTimer *time.Timer
	asyncSave bool
	saveFunc  func() // test hook, invoked on every physical save

	lastWritten []byte // last serialization written by us, to ignore self-triggered watch events
}

// NewStore opens the store backed by the given file path. A missing file is
// not an error; the store starts empty and the file is created on first save.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:      path,
		values:    make(map[string]any),
		asyncSave: true,
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	s.lastWritten = data
	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

// SetAsyncSave toggles debounced saving. Tests disable it so every mutation
// hits the disk synchronously.
func (s *Store) SetAsyncSave(enabled bool) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.asyncSave = enabled
}

// SetSaveFunc installs a hook called on each physical save.
func (s *Store) SetSaveFunc(f func()) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.saveFunc = f
}

func (s *Store) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) set(key string, value any) {
	s.mu.Lock()
	old, had := s.values[key]
	if had && reflect.DeepEqual(old, value) {
		s.mu.Unlock()
		return
	}
	s.values[key] = value
	s.mu.Unlock()
	s.scheduleSave()
	s.notify()
}

// Bool returns the boolean value for key, or false.
func (s *Store) Bool(key string) bool { return s.BoolWithFallback(key, false) }

// BoolWithFallback returns the boolean value for key, or fallback.
func (s *Store) BoolWithFallback(key string, fallback bool) bool {
	v, ok := s.get(key)
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// SetBool stores a boolean value under key.
func (s *Store) SetBool(key string, value bool) { s.set(key, value) }

// Int returns the integer value for key, or zero.
func (s *Store) Int(key string) int { return s.IntWithFallback(key, 0) }

// IntWithFallback returns the integer value for key, or fallback. Values read
// back from the JSON document arrive as float64 and are coerced.
func (s *Store) IntWithFallback(key string, fallback int) int {
	v, ok := s.get(key)
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// SetInt stores an integer value under key.
func (s *Store) SetInt(key string, value int) { s.set(key, value) }

// Float returns the float value for key, or zero.
func (s *Store) Float(key string) float64 { return s.FloatWithFallback(key, 0) }

// FloatWithFallback returns the float value for key, or fallback.
func (s *Store) FloatWithFallback(key string, fallback float64) float64 {
	v, ok := s.get(key)
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}

// SetFloat stores a float value under key.
func (s *Store) SetFloat(key string, value float64) { s.set(key, value) }

// String returns the string value for key, or the empty string.
func (s *Store) String(key string) string { return s.StringWithFallback(key, "") }

// StringWithFallback returns the string value for key, or fallback.
func (s *Store) StringWithFallback(key, fallback string) string {
	v, ok := s.get(key)
	if !ok {
		return fallback
	}
	str, ok := v.(string)
	if !ok {
		return fallback
	}
	return str
}

// SetString stores a string value under key.
func (s *Store) SetString(key string, value string) { s.set(key, value) }

// RemoveValue deletes key from the store.
func (s *Store) RemoveValue(key string) {
	s.mu.Lock()
	if _, ok := s.values[key]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.values, key)
	s.mu.Unlock()
	s.scheduleSave()
	s.notify()
}

// AddChangeListener registers a function invoked after any change.
func (s *Store) AddChangeListener(listener func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Store) notify() {
	s.mu.RLock()
	ls := make([]func(), len(s.listeners))
	copy(ls, s.listeners)
	s.mu.RUnlock()
	for _, l := range ls {
		l()
	}
}

func (s *Store) scheduleSave() {
	s.saveMu.Lock()
	if !s.asyncSave {
		s.saveMu.Unlock()
		if err := s.Save(); err != nil {
			log.Printf("Settings: save failed: %v", err)
		}
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(saveDebounce, func() {
		if err := s.Save(); err != nil {
			log.Printf("Settings: save failed: %v", err)
		}
	})
	s.saveMu.Unlock()
}

// Save writes the current values to disk immediately.
func (s *Store) Save() error {
	s.saveMu.Lock()
	hook := s.saveFunc
	s.saveMu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}

	s.mu.Lock()
	s.lastWritten = data
	s.mu.Unlock()
	return nil
}

// Reload re-reads the backing file and replaces the in-memory values if the
// document differs. Listeners fire when anything changed.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings file %s: %w", s.path, err)
	}

	s.mu.Lock()
	if bytes.Equal(data, s.lastWritten) {
		s.mu.Unlock()
		return nil
	}
	var incoming map[string]any
	if err := json.Unmarshal(data, &incoming); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("parsing settings file %s: %w", s.path, err)
	}
	if reflect.DeepEqual(incoming, s.values) {
		s.lastWritten = data
		s.mu.Unlock()
		return nil
	}
	s.values = incoming
	s.lastWritten = data
	s.mu.Unlock()

	log.Printf("Settings: reloaded %s", s.path)
	s.notify()
	return nil
}

// Watch monitors the settings file for external edits until ctx is done.
// The directory is watched rather than the file itself so editors that
// replace the file (rename over it) keep being tracked.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching settings directory %s: %w", dir, err)
	}

	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDebounce, func() {
				if err := s.Reload(); err != nil {
					log.Printf("Settings: reload failed: %v", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Settings: watcher error: %v", err)
		}
	}
}
