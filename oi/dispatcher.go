/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package oi binds operator-interface Triggers to Commands.
//
// A Dispatcher owns the fixed set of Triggers declared at wiring time
// and evaluates them, in declaration order, once per cycle before the
// Scheduler runs.  Wire declares the robot's actual controls.
package oi

import (
	"github.com/frc6135/botcore/core"

	"go.uber.org/zap"
)

// Factory makes a fresh Command each time it's called.
type Factory func() *core.Command

// Handle tracks the most recent Command a binding started.
//
// Rules that need to act on "the elevator-up command" hold a Handle
// rather than a Command, because every press makes a new instance.
type Handle struct {
	Name string

	current  *core.Command
	starts   int
	canceled int
}

// Current returns the latest instance started through this Handle,
// which may have already ended.
func (h *Handle) Current() *core.Command {
	return h.current
}

// Starts returns how many instances have been started.
func (h *Handle) Starts() int {
	return h.starts
}

// Cancels returns how many cancellation requests rules have issued
// through this Handle.
func (h *Handle) Cancels() int {
	return h.canceled
}

// Dispatcher evaluates Triggers and submits the resulting Commands to
// a Scheduler.
type Dispatcher struct {
	Scheduler *core.Scheduler
	Settings  *Settings

	// Verbose turns on logging of every binding that fires.
	Verbose bool

	logger   *zap.SugaredLogger
	triggers []*core.Trigger
	state    *core.InputState
}

// NewDispatcher makes a Dispatcher for the given Scheduler.  A nil
// logger is replaced with a no-op logger.
func NewDispatcher(s *core.Scheduler, settings *Settings, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings == nil {
		settings = NewSettings()
	}
	return &Dispatcher{
		Scheduler: s,
		Settings:  settings,
		logger:    logger.Named("oi").Sugar(),
		triggers:  make([]*core.Trigger, 0, 16),
		state:     core.EmptyInputState(),
	}
}

// Logf logs if d.Verbose.
func (d *Dispatcher) Logf(format string, args ...interface{}) {
	if !d.Verbose {
		return
	}
	d.logger.Infof(format, args...)
}

// Errorf always logs.
func (d *Dispatcher) Errorf(format string, args ...interface{}) {
	d.logger.Errorf(format, args...)
}

// Add declares a Trigger for the given Condition.
func (d *Dispatcher) Add(name string, c core.Condition) *core.Trigger {
	t := core.NewTrigger(name, c)
	d.triggers = append(d.triggers, t)
	return t
}

// Triggers returns the declared Triggers in evaluation order.
func (d *Dispatcher) Triggers() []*core.Trigger {
	acc := make([]*core.Trigger, len(d.triggers))
	copy(acc, d.triggers)
	return acc
}

// Poll makes the given snapshot current and evaluates every Trigger.
// A nil snapshot is treated as no input at all.
func (d *Dispatcher) Poll(s *core.InputState) {
	if s == nil {
		s = core.EmptyInputState()
	}
	d.state = s
	for _, t := range d.triggers {
		if edge, ran := t.Poll(s); 0 < ran {
			d.Logf("trigger %s edge %s ran %d actions", t.Name, edge, ran)
		}
	}
}

// Input returns the snapshot given to the latest Poll.  Default
// Commands read the sticks through this.
func (d *Dispatcher) Input() *core.InputState {
	return d.state
}

func (d *Dispatcher) start(h *Handle, f Factory) {
	c := f()
	if c == nil {
		return
	}
	if err := d.Scheduler.Start(c); err != nil {
		d.Logf("binding %s not started: %v", h.Name, err)
		return
	}
	h.current = c
	h.starts++
	d.Logf("binding %s started %s", h.Name, c.Id)
}

// WhenPressed starts a fresh Command each time the Trigger's condition
// becomes true.
func (d *Dispatcher) WhenPressed(t *core.Trigger, f Factory) *Handle {
	h := &Handle{Name: t.Name}
	t.Bind(core.BecomesTrue, func() { d.start(h, f) })
	return h
}

// WhenReleased starts a fresh Command each time the condition becomes
// false.
func (d *Dispatcher) WhenReleased(t *core.Trigger, f Factory) *Handle {
	h := &Handle{Name: t.Name}
	t.Bind(core.BecomesFalse, func() { d.start(h, f) })
	return h
}

// WhileHeld keeps a Command running while the condition holds: a
// fresh instance is started whenever the previous one has ended, and
// the current one is canceled when the condition becomes false.
func (d *Dispatcher) WhileHeld(t *core.Trigger, f Factory) *Handle {
	h := &Handle{Name: t.Name}
	t.Bind(core.WhileTrue, func() {
		if c := h.current; c == nil || c.Status().Terminal() {
			d.start(h, f)
		}
	})
	t.Bind(core.BecomesFalse, func() {
		h.current.RequestCancel()
	})
	return h
}

// Toggle runs the given read-negate-write each time the condition
// becomes true.
func (d *Dispatcher) Toggle(t *core.Trigger, flip func() bool) {
	t.Bind(core.BecomesTrue, func() {
		d.Logf("toggle %s now %v", t.Name, flip())
	})
}

// CancelWhileActive requests cancellation of the first Handle's
// current Command that is Running and not already being canceled.
// The check happens every cycle the condition holds.
//
// Commands that have already ended, or that already have a pending
// request, are left alone, so each Command receives at most one
// request from this rule.
func (d *Dispatcher) CancelWhileActive(t *core.Trigger, hs ...*Handle) {
	t.Bind(core.WhileTrue, func() {
		for _, h := range hs {
			c := h.current
			if c == nil || !c.IsRunning() || c.CancelRequested() {
				continue
			}
			c.RequestCancel()
			h.canceled++
			d.Logf("rule %s canceled %s %s", t.Name, c.Name, c.Id)
			return
		}
	})
}
