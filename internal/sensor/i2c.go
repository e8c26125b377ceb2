package sensor

import (
	"fmt"
	"io"
)

// Bus is the subset of an I2C bus the sensor needs.
type Bus interface {
	WriteBytes(addr byte, value []byte) error
	ReadBytes(addr byte, num int) ([]byte, error)
}

// I2CSensor reads a TMP-family sensor over I2C.
type I2CSensor struct {
	bus        Bus
	candidates []Candidate
	found      *Candidate

	// Trace, if set, receives the probe narration written during Identify.
	Trace io.Writer
}

// NewI2CSensor creates a sensor that will probe candidates on bus.
// A nil or empty candidates list uses DefaultCandidates.
func NewI2CSensor(bus Bus, candidates []Candidate) *I2CSensor {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	return &I2CSensor{bus: bus, candidates: candidates}
}

// Identify writes each candidate's result register pointer and keeps the
// first address that acknowledges.
func (s *I2CSensor) Identify() (Descriptor, error) {
	for i := range s.candidates {
		c := s.candidates[i]
		s.tracef("Is this %s? ", c.ID)
		if err := s.bus.WriteBytes(c.Address, []byte{c.Register}); err != nil {
			s.tracef("No\n\r")
			continue
		}
		s.tracef("Found\n\r")
		s.found = &c
		d := s.descriptor(c)
		s.tracef("Detected TMP%s I2C address: %x\n\r", c.ID, c.Address)
		return d, nil
	}

	s.found = nil
	s.tracef("Temperature sensor not found, contact professor\n\r")
	return Descriptor{}, ErrNotFound
}

// ReadTemperature points at the result register and reads two bytes.
func (s *I2CSensor) ReadTemperature() (RawReading, error) {
	if s.found == nil {
		return RawReading{}, fmt.Errorf("%w: %w", ErrTransaction, ErrNotFound)
	}
	c := s.found

	if err := s.bus.WriteBytes(c.Address, []byte{c.Register}); err != nil {
		return RawReading{}, fmt.Errorf("%w: write register 0x%02x@0x%02x: %w", ErrTransaction, c.Register, c.Address, err)
	}
	buf, err := s.bus.ReadBytes(c.Address, 2)
	if err != nil {
		return RawReading{}, fmt.Errorf("%w: read 0x%02x: %w", ErrTransaction, c.Address, err)
	}
	if len(buf) != 2 {
		return RawReading{}, fmt.Errorf("%w: read 0x%02x: short read (%d bytes)", ErrTransaction, c.Address, len(buf))
	}
	return RawReading{Hi: buf[0], Lo: buf[1]}, nil
}

func (s *I2CSensor) descriptor(c Candidate) Descriptor {
	return Descriptor{
		Bus:      "i2c",
		Model:    "TMP" + c.ID,
		Address:  c.Address,
		Register: uint16(c.Register),
	}
}

func (s *I2CSensor) tracef(format string, args ...interface{}) {
	if s.Trace != nil {
		fmt.Fprintf(s.Trace, format, args...)
	}
}
