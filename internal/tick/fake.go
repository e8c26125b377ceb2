package tick

import (
	"errors"
	"sync"
	"time"
)

// FakeSource is a test double whose ticks are fired by hand.
type FakeSource struct {
	mu       sync.Mutex
	callback func()

	// Period records the period passed to Start.
	Period time.Duration

	// StartError, if set, will be returned by Start.
	StartError error

	// Stopped tracks if Stop was called.
	Stopped bool
}

// NewFakeSource creates an unstarted FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

// Start records the callback.
func (f *FakeSource) Start(period time.Duration, callback func()) error {
	if f.StartError != nil {
		return f.StartError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.callback != nil {
		return errors.New("tick: already started")
	}
	f.Period = period
	f.callback = callback
	return nil
}

// Fire invokes the callback once, synchronously. It is a no-op before Start
// and after Stop.
func (f *FakeSource) Fire() {
	f.mu.Lock()
	cb := f.callback
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Stop drops the callback.
func (f *FakeSource) Stop() {
	f.mu.Lock()
	f.callback = nil
	f.Stopped = true
	f.mu.Unlock()
}
