package logic

// NextButtonPhase is the pure transition function of the setpoint machine.
// Increase has priority when both edges are pending.
func NextButtonPhase(p ButtonPhase, ev ButtonEvent) ButtonPhase {
	switch p {
	case ButtonStart:
		return ButtonIdle
	case ButtonIdle:
		if ev.Increase {
			return ButtonIncrease
		}
		if ev.Decrease {
			return ButtonDecrease
		}
		return ButtonIdle
	case ButtonIncrease, ButtonDecrease:
		return ButtonIdle
	}
	return ButtonStart
}

// SetpointMachine turns button edge flags into setpoint adjustments.
// It is the only place the setpoint changes and the only consumer of the flags.
type SetpointMachine struct {
	state *State
	phase ButtonPhase
}

// NewSetpointMachine creates a machine in ButtonStart bound to state.
func NewSetpointMachine(state *State) *SetpointMachine {
	return &SetpointMachine{state: state, phase: ButtonStart}
}

// Phase returns the current phase.
func (m *SetpointMachine) Phase() ButtonPhase {
	return m.phase
}

// Step runs one button-check cycle and returns the new phase.
func (m *SetpointMachine) Step() ButtonPhase {
	// Flags are only observed from Idle. In any other phase they stay pending
	// and are taken on the next Idle cycle.
	var ev ButtonEvent
	if m.phase == ButtonIdle {
		ev = m.state.takeButtonEvent()
	}

	m.phase = NextButtonPhase(m.phase, ev)
	m.enter(m.phase)
	return m.phase
}

// enter runs the entry action for p. Both flags were already cleared by the
// swap in Step, including the one that lost on priority.
func (m *SetpointMachine) enter(p ButtonPhase) {
	switch p {
	case ButtonIncrease:
		m.state.adjustSetpoint(+1)
	case ButtonDecrease:
		m.state.adjustSetpoint(-1)
	}
}
