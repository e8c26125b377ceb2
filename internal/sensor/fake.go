package sensor

import "fmt"

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Descriptor is returned by Identify.
	Descriptor Descriptor

	// IdentifyError, if set, will be returned by Identify.
	IdentifyError error

	// Readings contains scripted values. Each call to ReadTemperature
	// consumes the next one; the last is repeated when exhausted.
	Readings []RawReading

	// Errors is consulted per call index; a non-nil entry fails that call
	// with the error wrapped in ErrTransaction.
	Errors []error

	index int
	calls int
}

// NewFakeSensor creates a FakeSensor that reports the given whole-degree temperatures.
func NewFakeSensor(celsius ...int16) *FakeSensor {
	f := &FakeSensor{Descriptor: Descriptor{Bus: "fake", Model: "FAKE", Address: 0x48}}
	for _, c := range celsius {
		f.Readings = append(f.Readings, Encode(c))
	}
	return f
}

// Identify returns the scripted descriptor.
func (f *FakeSensor) Identify() (Descriptor, error) {
	if f.IdentifyError != nil {
		return Descriptor{}, f.IdentifyError
	}
	return f.Descriptor, nil
}

// ReadTemperature returns the next scripted reading.
func (f *FakeSensor) ReadTemperature() (RawReading, error) {
	i := f.calls
	f.calls++
	if i < len(f.Errors) && f.Errors[i] != nil {
		return RawReading{}, fmt.Errorf("%w: %w", ErrTransaction, f.Errors[i])
	}
	if len(f.Readings) == 0 {
		return RawReading{}, fmt.Errorf("%w: no readings configured", ErrTransaction)
	}

	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}

// Calls returns how many reads were attempted.
func (f *FakeSensor) Calls() int {
	return f.calls
}
