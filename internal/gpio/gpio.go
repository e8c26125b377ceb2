// Package gpio provides button edge interrupts and the heat indicator output
// with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Interrupts delivers falling edges on input lines to registered callbacks.
type Interrupts interface {
	// RegisterCallback installs cb for line. It must be called before Enable.
	// cb runs on the service's own goroutine and must only do minimal,
	// non-blocking work (set a flag).
	RegisterCallback(line int, cb func(line int)) error

	// Enable starts edge detection on line.
	Enable(line int) error

	// Close releases all requested lines.
	Close() error
}

// Output drives a single digital output line.
type Output interface {
	// Set drives the line active (on) or inactive.
	Set(on bool) error

	// Close releases the line.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinUp   = 17 // setpoint increase button
	DefaultPinDown = 27 // setpoint decrease button
	DefaultPinHeat = 22 // heating indicator LED / relay
)

// DefaultDebounce is the kernel debounce period applied to button lines.
const DefaultDebounce = 50 * time.Millisecond

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"
