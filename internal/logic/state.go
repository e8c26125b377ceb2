package logic

import (
	"context"
	"sync/atomic"
)

// State is the control state shared between interrupt callbacks, the tick
// callback and the scheduler loop. Every field is an atomic cell so that no
// reader ever sees a torn value.
type State struct {
	setpoint        atomic.Int32
	temperature     atomic.Int32
	heat            atomic.Bool
	increasePending atomic.Bool
	decreasePending atomic.Bool
	elapsedSeconds  atomic.Uint32
	tickElapsed     atomic.Bool

	// wake is signalled by TickElapsed so WaitTick does not spin.
	wake chan struct{}
}

// NewState creates the shared state with the given initial setpoint.
func NewState(setpoint int16) *State {
	s := &State{wake: make(chan struct{}, 1)}
	s.setpoint.Store(int32(setpoint))
	return s
}

// RequestIncrease is the increase-button interrupt callback body.
// It only raises the flag; the setpoint machine owns the adjustment and the clear.
func (s *State) RequestIncrease() {
	s.increasePending.Store(true)
}

// RequestDecrease is the decrease-button interrupt callback body.
func (s *State) RequestDecrease() {
	s.decreasePending.Store(true)
}

// takeButtonEvent reads and clears both edge flags, one atomic swap each, so an
// edge arriving between the read and the clear cannot be lost.
func (s *State) takeButtonEvent() ButtonEvent {
	return ButtonEvent{
		Increase: s.increasePending.Swap(false),
		Decrease: s.decreasePending.Swap(false),
	}
}

// Pending reports the current edge flags without clearing them.
func (s *State) Pending() (increase, decrease bool) {
	return s.increasePending.Load(), s.decreasePending.Load()
}

// TickElapsed is the tick source callback body. Safe to call from any goroutine.
func (s *State) TickElapsed() {
	s.tickElapsed.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// WaitTick blocks until the tick flag is raised, then lowers it.
// It returns early only when ctx is cancelled.
func (s *State) WaitTick(ctx context.Context) error {
	for {
		if s.tickElapsed.Swap(false) {
			return nil
		}
		select {
		case <-s.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Setpoint returns the current setpoint.
func (s *State) Setpoint() int16 {
	return int16(s.setpoint.Load())
}

func (s *State) adjustSetpoint(delta int32) {
	s.setpoint.Add(delta)
}

// Temperature returns the last successfully sampled temperature.
func (s *State) Temperature() int16 {
	return int16(s.temperature.Load())
}

func (s *State) setTemperature(t int16) {
	s.temperature.Store(int32(t))
}

// HeatActive returns the last heat decision.
func (s *State) HeatActive() bool {
	return s.heat.Load()
}

func (s *State) setHeat(on bool) {
	s.heat.Store(on)
}

// ElapsedSeconds returns the scheduler uptime in whole seconds.
func (s *State) ElapsedSeconds() uint32 {
	return s.elapsedSeconds.Load()
}

// SetElapsedSeconds is written by the scheduler only.
func (s *State) SetElapsedSeconds(n uint32) {
	s.elapsedSeconds.Store(n)
}

// Snapshot returns a copy of the reportable fields.
// Fields are loaded one by one. The main loop is their only writer, so a
// snapshot taken from the loop is consistent with the cycle that produced it.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Temperature: s.Temperature(),
		Setpoint:    s.Setpoint(),
		Heat:        s.HeatActive(),
		Seconds:     s.ElapsedSeconds(),
	}
}
