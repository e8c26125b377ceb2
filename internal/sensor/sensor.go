// Package sensor identifies and reads the ambient temperature sensor.
package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Identify when no candidate answers.
	ErrNotFound = errors.New("temperature sensor not found")

	// ErrTransaction wraps every failed bus read.
	ErrTransaction = errors.New("sensor transaction failed")
)

// Sensor is the bus sensor service.
type Sensor interface {
	// Identify probes the candidate addresses once at startup.
	// It returns ErrNotFound if nothing answers.
	Identify() (Descriptor, error)

	// ReadTemperature performs one bus transaction.
	// Failures wrap ErrTransaction.
	ReadTemperature() (RawReading, error)
}

// Descriptor names the sensor that answered the probe.
type Descriptor struct {
	Bus      string // "i2c", "modbus", "fake"
	Model    string // e.g. "TMP116"
	Address  byte   // bus address or Modbus unit id
	Register uint16 // result register
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s@0x%02x", d.Bus, d.Model, d.Address)
}

// RawReading is the two result bytes exactly as read from the sensor.
type RawReading struct {
	Hi byte
	Lo byte
}

// Word returns the big-endian 16-bit value.
func (r RawReading) Word() uint16 {
	return uint16(r.Hi)<<8 | uint16(r.Lo)
}

// Candidate is one address/register pair to probe.
type Candidate struct {
	Address  byte
	Register byte
	ID       string
}

// DefaultCandidates are the TMP-family parts shipped on the board revisions
// we know about, in probe order.
var DefaultCandidates = []Candidate{
	{Address: 0x48, Register: 0x00, ID: "11X"},
	{Address: 0x49, Register: 0x00, ID: "116"},
	{Address: 0x41, Register: 0x01, ID: "006"},
}

// Decode converts a raw reading to whole degrees Celsius.
// The word is two's complement with 1/128 °C resolution; negative values are
// sign extended and rounded toward minus infinity, so 0xFFF0 is -1.
func Decode(r RawReading) int16 {
	word := int32(r.Word())
	if r.Hi&0x80 != 0 {
		word -= 1 << 16
	}
	return int16(word >> 7)
}

// Encode is the inverse of Decode for whole degrees. Used by fakes and tests.
func Encode(celsius int16) RawReading {
	w := uint16(int32(celsius) << 7)
	return RawReading{Hi: byte(w >> 8), Lo: byte(w)}
}

// Thermometer adapts a Sensor to whole-degree readings.
type Thermometer struct {
	sensor Sensor
}

// NewThermometer wraps s.
func NewThermometer(s Sensor) *Thermometer {
	return &Thermometer{sensor: s}
}

// ReadCelsius reads and decodes one sample.
func (t *Thermometer) ReadCelsius() (int16, error) {
	raw, err := t.sensor.ReadTemperature()
	if err != nil {
		return 0, err
	}
	return Decode(raw), nil
}
