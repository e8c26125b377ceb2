// Package scheduler runs periodic tasks from a single base tick without preemption.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/thermostat/internal/logic"
)

// Task is a unit of periodic work. Run must not block.
type Task struct {
	Name   string
	Period time.Duration
	Run    func()
}

type entry struct {
	task  Task
	timer CadenceTimer
	fired uint64
}

// Scheduler advances one CadenceTimer per task against a shared base tick and
// runs due tasks in registration order.
type Scheduler struct {
	base    time.Duration
	state   *logic.State
	entries []*entry
	uptime  time.Duration
}

// New validates the task table and returns a Scheduler.
// Every period must be a positive integer multiple of base.
func New(base time.Duration, state *logic.State, tasks ...Task) (*Scheduler, error) {
	if base <= 0 {
		return nil, errors.New("scheduler: base tick must be > 0")
	}
	if state == nil {
		return nil, errors.New("scheduler: state required")
	}
	if len(tasks) == 0 {
		return nil, errors.New("scheduler: at least one task required")
	}

	s := &Scheduler{base: base, state: state}
	seen := make(map[string]bool)
	for _, t := range tasks {
		if t.Name == "" {
			return nil, errors.New("scheduler: task name required")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("scheduler: duplicate task %q", t.Name)
		}
		seen[t.Name] = true
		if t.Run == nil {
			return nil, fmt.Errorf("scheduler: task %q has no Run func", t.Name)
		}
		if t.Period <= 0 {
			return nil, fmt.Errorf("scheduler: task %q period must be > 0", t.Name)
		}
		if t.Period%base != 0 {
			return nil, fmt.Errorf("scheduler: task %q period %v is not a multiple of base tick %v", t.Name, t.Period, base)
		}
		s.entries = append(s.entries, &entry{task: t, timer: NewCadenceTimer(t.Period)})
	}
	return s, nil
}

// RunDue invokes every due task exactly once, in order, and resets its timer.
func (s *Scheduler) RunDue() {
	for _, e := range s.entries {
		if !e.timer.Due() {
			continue
		}
		e.task.Run()
		e.fired++
		e.timer.Reset()
	}
}

// Advance accounts for one base tick: every timer and the uptime clock move
// forward by the base period.
func (s *Scheduler) Advance() {
	for _, e := range s.entries {
		e.timer.Advance(s.base)
	}
	s.uptime += s.base
	s.state.SetElapsedSeconds(uint32(s.uptime / time.Second))
}

// Run is the control loop: run due tasks, wait for the tick, account for it.
// It returns only when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunDue()
		if err := s.state.WaitTick(ctx); err != nil {
			return err
		}
		s.Advance()
	}
}

// Fired returns how many times the named task has run.
func (s *Scheduler) Fired(name string) uint64 {
	for _, e := range s.entries {
		if e.task.Name == name {
			return e.fired
		}
	}
	return 0
}

// FiredCounts returns run counts keyed by task name.
func (s *Scheduler) FiredCounts() map[string]uint64 {
	out := make(map[string]uint64, len(s.entries))
	for _, e := range s.entries {
		out[e.task.Name] = e.fired
	}
	return out
}

// Base returns the base tick period.
func (s *Scheduler) Base() time.Duration {
	return s.base
}
