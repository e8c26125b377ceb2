// Package logic contains the thermostat control state and the two state machines
// that act on it.
// This package has NO external dependencies (no GPIO, bus, serial, or time.Sleep).
// Hardware is reached only through the small interfaces declared here.
package logic

// ButtonPhase is the state of the setpoint (button) state machine.
type ButtonPhase int

const (
	ButtonStart ButtonPhase = iota
	ButtonIdle
	ButtonIncrease
	ButtonDecrease
)

func (p ButtonPhase) String() string {
	switch p {
	case ButtonStart:
		return "START"
	case ButtonIdle:
		return "IDLE"
	case ButtonIncrease:
		return "INCREASE"
	case ButtonDecrease:
		return "DECREASE"
	}
	return "UNKNOWN"
}

// ButtonEvent is the pair of edge flags taken by the setpoint machine in one cycle.
type ButtonEvent struct {
	Increase bool
	Decrease bool
}

// ThermoPhase is the state of the heat control state machine.
type ThermoPhase int

const (
	ThermoStart   ThermoPhase = iota
	ThermoWarmUp              // S0
	ThermoSample              // S1: read sensor, decide
	ThermoHeatOn              // S2: drive output on
	ThermoHeatOff             // S3: drive output off
)

func (p ThermoPhase) String() string {
	switch p {
	case ThermoStart:
		return "START"
	case ThermoWarmUp:
		return "WARMUP"
	case ThermoSample:
		return "SAMPLE"
	case ThermoHeatOn:
		return "HEAT_ON"
	case ThermoHeatOff:
		return "HEAT_OFF"
	}
	return "UNKNOWN"
}

// ThermoEvent is the outcome of the last sample, consumed by the transition out of ThermoSample.
type ThermoEvent struct {
	SampleFailed bool
	Heat         bool
}

// Snapshot is a point-in-time copy of the control state.
type Snapshot struct {
	Temperature int16
	Setpoint    int16
	Heat        bool
	Seconds     uint32
}

// Thermometer reads the ambient temperature in whole degrees Celsius.
type Thermometer interface {
	ReadCelsius() (int16, error)
}

// Actuator drives the heating indicator output.
type Actuator interface {
	Set(on bool) error
}

// FaultReporter receives sensor transaction errors.
type FaultReporter interface {
	ReportFault(err error)
}
