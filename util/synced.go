package util

import "sync/atomic"

// SafeCounter is an integer counter safe for concurrent use.
type SafeCounter struct {
	value atomic.Int64
}

// NewSafeCounter creates a new SafeCounter.
func NewSafeCounter() *SafeCounter {
	return &SafeCounter{}
}

// NewSafeCounterWithValue creates a new SafeCounter with an initial value.
func NewSafeCounterWithValue(initialValue int) *SafeCounter {
	c := &SafeCounter{}
	c.value.Store(int64(initialValue))
	return c
}

// Increment increments the counter's value and returns the new value.
func (sc *SafeCounter) Increment() int {
	return int(sc.value.Add(1))
}

// Decrement decrements the counter's value and returns the new value.
func (sc *SafeCounter) Decrement() int {
	return int(sc.value.Add(-1))
}

// Add adds a delta to the counter's value and returns the new value.
func (sc *SafeCounter) Add(delta int) int {
	return int(sc.value.Add(int64(delta)))
}

// Set sets the value of the counter.
func (sc *SafeCounter) Set(newValue int) {
	sc.value.Store(int64(newValue))
}

// Value returns the current value of the counter.
func (sc *SafeCounter) Value() int {
	return int(sc.value.Load())
}

// SafeFlag is a boolean flag safe for concurrent use.
type SafeFlag struct {
	value atomic.Bool
}

// NewSafeFlag creates a new SafeFlag.
func NewSafeFlag() *SafeFlag {
	return &SafeFlag{}
}

// NewSafeFlagWithValue creates a new SafeFlag with an initial value.
func NewSafeFlagWithValue(initialValue bool) *SafeFlag {
	f := &SafeFlag{}
	f.value.Store(initialValue)
	return f
}

// Set sets the value of the flag and returns the new value.
func (sf *SafeFlag) Set(newValue bool) bool {
	sf.value.Store(newValue)
	return newValue
}

// Value returns the current value of the flag.
func (sf *SafeFlag) Value() bool {
	return sf.value.Load()
}

// Toggle flips the value of the flag and returns the new value.
func (sf *SafeFlag) Toggle() bool {
	for {
		old := sf.value.Load()
		if sf.value.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
