//go:build !linux

package sensor

import "errors"

// BusCloser is a Bus that must be closed.
type BusCloser interface {
	Bus
	Close() error
}

// OpenI2CBus returns an error on non-Linux platforms.
func OpenI2CBus() (BusCloser, error) {
	return nil, errors.New("i2c: not supported on this platform (requires Linux)")
}
