package logic

import "fmt"

// NextThermoPhase is the pure transition function of the heat control machine.
// A failed sample skips actuation and goes straight back to WarmUp.
func NextThermoPhase(p ThermoPhase, ev ThermoEvent) ThermoPhase {
	switch p {
	case ThermoStart:
		return ThermoWarmUp
	case ThermoWarmUp:
		return ThermoSample
	case ThermoSample:
		if ev.SampleFailed {
			return ThermoWarmUp
		}
		if ev.Heat {
			return ThermoHeatOn
		}
		return ThermoHeatOff
	case ThermoHeatOn, ThermoHeatOff:
		return ThermoWarmUp
	}
	return ThermoStart
}

// HeatMachine samples the temperature, decides heat against the setpoint and
// drives the actuator. Each temperature-check cycle walks the phases from
// WarmUp through the actuation phase.
type HeatMachine struct {
	state    *State
	therm    Thermometer
	out      Actuator
	faults   FaultReporter
	phase    ThermoPhase
	lastFail bool
}

// NewHeatMachine creates a machine in ThermoStart. faults may be nil.
func NewHeatMachine(state *State, therm Thermometer, out Actuator, faults FaultReporter) *HeatMachine {
	return &HeatMachine{
		state:  state,
		therm:  therm,
		out:    out,
		faults: faults,
		phase:  ThermoStart,
	}
}

// Phase returns the current phase.
func (m *HeatMachine) Phase() ThermoPhase {
	return m.phase
}

// Step runs one temperature-check cycle: WarmUp, Sample, then HeatOn or
// HeatOff, so every check reads the sensor and drives the output. A failed
// sample ends the cycle in ThermoSample without actuation and the next Step
// starts over from WarmUp. The returned error is informational.
func (m *HeatMachine) Step() (ThermoPhase, error) {
	for {
		ev := ThermoEvent{
			SampleFailed: m.lastFail,
			Heat:         m.state.HeatActive(),
		}
		m.phase = NextThermoPhase(m.phase, ev)
		err := m.enter(m.phase)

		switch m.phase {
		case ThermoHeatOn, ThermoHeatOff:
			return m.phase, err
		case ThermoSample:
			if err != nil {
				return m.phase, err
			}
		}
	}
}

// LastSampleFailed reports whether the most recent sensor read failed.
func (m *HeatMachine) LastSampleFailed() bool {
	return m.lastFail
}

func (m *HeatMachine) enter(p ThermoPhase) error {
	switch p {
	case ThermoSample:
		return m.sample()
	case ThermoHeatOn:
		if err := m.out.Set(true); err != nil {
			return fmt.Errorf("drive heat on: %w", err)
		}
	case ThermoHeatOff:
		if err := m.out.Set(false); err != nil {
			return fmt.Errorf("drive heat off: %w", err)
		}
	}
	return nil
}

// sample is the ThermoSample entry action. On a read failure the previous
// temperature and heat decision are kept and the fault is reported.
func (m *HeatMachine) sample() error {
	t, err := m.therm.ReadCelsius()
	if err != nil {
		m.lastFail = true
		if m.faults != nil {
			m.faults.ReportFault(err)
		}
		return fmt.Errorf("sample temperature: %w", err)
	}

	m.lastFail = false
	m.state.setTemperature(t)
	m.state.setHeat(t < m.state.Setpoint())
	return nil
}
