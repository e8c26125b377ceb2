//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealInterrupts watches button lines on a Linux GPIO character device.
type RealInterrupts struct {
	mu        sync.Mutex
	chip      string
	debounce  time.Duration
	callbacks map[int]func(int)
	lines     map[int]*gpiocdev.Line
}

// NewRealInterrupts prepares edge detection on the named chip.
// Lines are only requested on Enable.
func NewRealInterrupts(chip string, debounce time.Duration) *RealInterrupts {
	return &RealInterrupts{
		chip:      chip,
		debounce:  debounce,
		callbacks: make(map[int]func(int)),
		lines:     make(map[int]*gpiocdev.Line),
	}
}

// RegisterCallback installs cb for line.
func (r *RealInterrupts) RegisterCallback(line int, cb func(line int)) error {
	if cb == nil {
		return fmt.Errorf("register line %d: nil callback", line)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[line] = cb
	return nil
}

// Enable requests line as a pulled-up input with falling-edge events.
// Buttons pull the line low when pressed.
func (r *RealInterrupts) Enable(line int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.callbacks[line]
	if !ok {
		return fmt.Errorf("enable line %d: no callback registered", line)
	}
	if _, ok := r.lines[line]; ok {
		return nil
	}

	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventFallingEdge {
			return
		}
		cb(evt.Offset)
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
	}
	if r.debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(r.debounce))
	}

	l, err := gpiocdev.RequestLine(r.chip, line, opts...)
	if err != nil {
		return fmt.Errorf("request button pin %d: %w", line, err)
	}
	r.lines[line] = l
	return nil
}

// Close releases every enabled line.
func (r *RealInterrupts) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for offset, l := range r.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin %d: %w", offset, err))
		}
		delete(r.lines, offset)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives the heat indicator line.
type RealOutput struct {
	line *gpiocdev.Line
	pin  int
}

// NewRealOutput requests pin as an output, initially inactive.
func NewRealOutput(chip string, pin int) (*RealOutput, error) {
	l, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request heat pin %d: %w", pin, err)
	}
	return &RealOutput{line: l, pin: pin}, nil
}

// Set drives the line high for on, low for off.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set heat pin %d: %w", o.pin, err)
	}
	return nil
}

// Close turns the output off and returns the pin to the Pi boot default
// (input with pull-down) before releasing it, so a relay is never left energised.
func (o *RealOutput) Close() error {
	if o.line == nil {
		return nil
	}
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear heat pin: %w", err))
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure heat pin: %w", err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close heat pin: %w", err))
	}
	o.line = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
