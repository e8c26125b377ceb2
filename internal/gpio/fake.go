package gpio

import (
	"fmt"
	"sync"
)

// FakeInterrupts is a test double whose edges are triggered by hand.
type FakeInterrupts struct {
	mu        sync.Mutex
	callbacks map[int]func(int)
	enabled   map[int]bool

	// RegisterError, if set, will be returned by RegisterCallback.
	RegisterError error

	// EnableError, if set, will be returned by Enable.
	EnableError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeInterrupts creates an empty FakeInterrupts.
func NewFakeInterrupts() *FakeInterrupts {
	return &FakeInterrupts{
		callbacks: make(map[int]func(int)),
		enabled:   make(map[int]bool),
	}
}

// RegisterCallback records cb for line.
func (f *FakeInterrupts) RegisterCallback(line int, cb func(line int)) error {
	if f.RegisterError != nil {
		return f.RegisterError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks[line] = cb
	return nil
}

// Enable marks line as enabled.
func (f *FakeInterrupts) Enable(line int) error {
	if f.EnableError != nil {
		return f.EnableError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.callbacks[line]; !ok {
		return fmt.Errorf("enable line %d: no callback registered", line)
	}
	f.enabled[line] = true
	return nil
}

// Enabled reports whether line was enabled.
func (f *FakeInterrupts) Enabled(line int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled[line]
}

// Trigger simulates a falling edge on line. Edges on lines that are not
// enabled are dropped, as the hardware would.
func (f *FakeInterrupts) Trigger(line int) {
	f.mu.Lock()
	cb := f.callbacks[line]
	on := f.enabled[line]
	f.mu.Unlock()
	if cb != nil && on {
		cb(line)
	}
}

// Close marks the interrupts as closed and disables every line.
func (f *FakeInterrupts) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	f.enabled = make(map[int]bool)
	return nil
}

// FakeOutput records every level written.
type FakeOutput struct {
	mu     sync.Mutex
	levels []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.mu.Lock()
	f.levels = append(f.levels, on)
	f.mu.Unlock()
	return nil
}

// Levels returns a copy of the levels written so far.
func (f *FakeOutput) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.levels))
	copy(out, f.levels)
	return out
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded levels.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	f.levels = nil
	f.mu.Unlock()
	f.Closed = false
	f.SetError = nil
}
