//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInterrupts is not available on non-Linux platforms.
type RealInterrupts struct{}

// NewRealInterrupts returns a RealInterrupts whose methods all fail.
func NewRealInterrupts(chip string, debounce time.Duration) *RealInterrupts {
	return &RealInterrupts{}
}

// RegisterCallback is not implemented on non-Linux platforms.
func (r *RealInterrupts) RegisterCallback(line int, cb func(line int)) error {
	return errUnsupported
}

// Enable is not implemented on non-Linux platforms.
func (r *RealInterrupts) Enable(line int) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealInterrupts) Close() error {
	return nil
}

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chip string, pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (o *RealOutput) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutput) Close() error {
	return nil
}
