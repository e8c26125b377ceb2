// Package tick provides the periodic base tick that drives the control loop.
package tick

import (
	"errors"
	"sync"
	"time"
)

// Source invokes a callback once per period from its own goroutine.
type Source interface {
	// Start begins ticking. It fails if period <= 0 or the source is already running.
	Start(period time.Duration, callback func()) error

	// Stop halts ticking. It is safe to call more than once.
	Stop()
}

// Ticker is a Source backed by time.Ticker.
type Ticker struct {
	mu   sync.Mutex
	t    *time.Ticker
	done chan struct{}
}

// NewTicker creates an idle Ticker.
func NewTicker() *Ticker {
	return &Ticker{}
}

// Start begins calling callback every period.
func (k *Ticker) Start(period time.Duration, callback func()) error {
	if period <= 0 {
		return errors.New("tick: period must be > 0")
	}
	if callback == nil {
		return errors.New("tick: callback required")
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.t != nil {
		return errors.New("tick: already started")
	}

	k.t = time.NewTicker(period)
	k.done = make(chan struct{})
	go func(c <-chan time.Time, done <-chan struct{}) {
		for {
			select {
			case <-c:
				callback()
			case <-done:
				return
			}
		}
	}(k.t.C, k.done)
	return nil
}

// Stop halts the ticker goroutine.
func (k *Ticker) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.t == nil {
		return
	}
	k.t.Stop()
	close(k.done)
	k.t = nil
}
