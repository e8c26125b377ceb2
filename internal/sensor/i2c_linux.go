//go:build linux

package sensor

import (
	"fmt"

	"github.com/reef-pi/rpi/i2c"
)

// BusCloser is a Bus that must be closed.
type BusCloser interface {
	Bus
	Close() error
}

// OpenI2CBus opens the Raspberry Pi I2C bus.
func OpenI2CBus() (BusCloser, error) {
	bus, err := i2c.New()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return bus, nil
}
