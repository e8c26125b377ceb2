package sensor

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// RegisterReader is the subset of a Modbus client the sensor needs.
type RegisterReader interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// ModbusConfig selects a Modbus TCP temperature transmitter.
type ModbusConfig struct {
	Endpoint string
	Units    []byte // unit ids probed in order
	Register uint16 // input register holding the 1/128 °C word
	Timeout  time.Duration
}

// ModbusSensor reads the same two's complement word from an input register of
// a Modbus transmitter. The client is serialized because probing mutates the
// unit id on the shared handler.
type ModbusSensor struct {
	mu       sync.Mutex
	client   RegisterReader
	setUnit  func(id byte)
	closer   io.Closer
	units    []byte
	register uint16
	unit     byte
	found    bool

	// Trace, if set, receives the probe narration written during Identify.
	Trace io.Writer
}

// DialModbus connects to a Modbus TCP endpoint.
func DialModbus(cfg ModbusConfig) (*ModbusSensor, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus sensor: endpoint required")
	}
	if len(cfg.Units) == 0 {
		return nil, errors.New("modbus sensor: at least one unit id required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.Units[0]
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("connect modbus %s: %w", cfg.Endpoint, err)
	}

	s := NewModbusSensor(modbus.NewClient(h), func(id byte) { h.SlaveId = id }, cfg.Units, cfg.Register)
	s.closer = h
	return s, nil
}

// NewModbusSensor builds a sensor over an existing client. setUnit switches
// the unit id used by subsequent requests.
func NewModbusSensor(client RegisterReader, setUnit func(id byte), units []byte, register uint16) *ModbusSensor {
	return &ModbusSensor{
		client:   client,
		setUnit:  setUnit,
		units:    units,
		register: register,
	}
}

// Identify reads the register from each unit id until one answers.
func (s *ModbusSensor) Identify() (Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.units {
		s.tracef("Is this unit %d? ", id)
		s.setUnit(id)
		if _, err := s.client.ReadInputRegisters(s.register, 1); err != nil {
			s.tracef("No\n\r")
			continue
		}
		s.tracef("Found\n\r")
		s.unit = id
		s.found = true
		s.tracef("Detected Modbus unit %d register %d\n\r", id, s.register)
		return Descriptor{Bus: "modbus", Model: "MODBUS", Address: id, Register: s.register}, nil
	}

	s.found = false
	s.tracef("Temperature sensor not found, contact professor\n\r")
	return Descriptor{}, ErrNotFound
}

// ReadTemperature reads one input register.
func (s *ModbusSensor) ReadTemperature() (RawReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.found {
		return RawReading{}, fmt.Errorf("%w: %w", ErrTransaction, ErrNotFound)
	}
	s.setUnit(s.unit)
	b, err := s.client.ReadInputRegisters(s.register, 1)
	if err != nil {
		return RawReading{}, fmt.Errorf("%w: unit %d register %d: %w", ErrTransaction, s.unit, s.register, err)
	}
	if len(b) != 2 {
		return RawReading{}, fmt.Errorf("%w: unit %d: short response (%d bytes)", ErrTransaction, s.unit, len(b))
	}
	return RawReading{Hi: b[0], Lo: b[1]}, nil
}

// Close releases the TCP connection.
func (s *ModbusSensor) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *ModbusSensor) tracef(format string, args ...interface{}) {
	if s.Trace != nil {
		fmt.Fprintf(s.Trace, format, args...)
	}
}
