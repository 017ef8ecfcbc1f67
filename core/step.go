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

package core

import (
	"context"
)

var (
	// RunningInitialCap is the initial capacity for a Scheduler's
	// running and pending sets.
	RunningInitialCap = 16
)

// Scheduler is the cooperative executor.
//
// Call Run once per control cycle.  Start submits a Command, which is
// initialized at the next Run.  At most one Running Command owns a
// given Resource at any time: starting a Command that needs a
// Resource held by another Running Command cancels that owner
// (preemption, not queuing).
//
// A process normally has exactly one Scheduler, constructed at
// startup.
type Scheduler struct {
	running  []*Command
	pending  []*Command
	owners   map[Resource]*Command
	defaults map[Resource]func() *Command

	// defaultOrder keeps default submission deterministic.
	defaultOrder []Resource

	disabled bool
	cycle    uint64
}

// NewScheduler makes an enabled Scheduler with nothing running.
func NewScheduler() *Scheduler {
	return &Scheduler{
		running:  make([]*Command, 0, RunningInitialCap),
		pending:  make([]*Command, 0, RunningInitialCap),
		owners:   make(map[Resource]*Command, RunningInitialCap),
		defaults: make(map[Resource]func() *Command, 4),
	}
}

// Start submits the Command.  It will be initialized during the next
// Run.
//
// Starting a Command that is already pending or Running is a no-op.
// A Command that has ended returns a *TerminatedError, and a Command
// that belongs to a group returns a *GroupedError.  While the
// Scheduler is disabled, only Commands with RunsWhenDisabled are
// accepted.
func (s *Scheduler) Start(c *Command) error {
	switch {
	case c == nil:
		return ErrNilCommand
	case c.parent != nil:
		return &GroupedError{c}
	case c.status.Terminal():
		return &TerminatedError{c}
	case c.scheduled:
		return nil
	case s.disabled && !c.RunsWhenDisabled:
		return ErrDisabled
	}
	c.scheduled = true
	s.pending = append(s.pending, c)
	return nil
}

// Cancel requests the cancellation of the given Command.  Same as
// c.RequestCancel().
func (s *Scheduler) Cancel(c *Command) {
	c.RequestCancel()
}

// SetDefault registers a factory for the Command that should run
// whenever nothing else owns the Resource.  The factory is called
// each time a fresh default is needed, and the Commands it makes must
// require the Resource.
//
// A nil factory removes the default.
func (s *Scheduler) SetDefault(r Resource, factory func() *Command) {
	if factory == nil {
		delete(s.defaults, r)
		for i, have := range s.defaultOrder {
			if have == r {
				s.defaultOrder = append(s.defaultOrder[:i], s.defaultOrder[i+1:]...)
				break
			}
		}
		return
	}
	if _, have := s.defaults[r]; !have {
		s.defaultOrder = append(s.defaultOrder, r)
	}
	s.defaults[r] = factory
}

// Disable requests the cancellation of every pending or Running
// Command that doesn't run when disabled.  The requests are honored
// at the next Run.  Until Enable, Start rejects such Commands.
func (s *Scheduler) Disable() {
	s.disabled = true
	for _, c := range s.pending {
		if !c.RunsWhenDisabled {
			c.RequestCancel()
		}
	}
	for _, c := range s.running {
		if !c.RunsWhenDisabled {
			c.RequestCancel()
		}
	}
}

// Enable undoes Disable.
func (s *Scheduler) Enable() {
	s.disabled = false
}

// Enabled reports whether the Scheduler is enabled.
func (s *Scheduler) Enabled() bool {
	return !s.disabled
}

// CancelAll requests the cancellation of every pending or Running
// Command.
func (s *Scheduler) CancelAll() {
	for _, c := range s.pending {
		c.RequestCancel()
	}
	for _, c := range s.running {
		c.RequestCancel()
	}
}

// Cycle returns the number of completed calls to Run.
func (s *Scheduler) Cycle() uint64 {
	return s.cycle
}

// Running returns the Running Commands in start order.
func (s *Scheduler) Running() []*Command {
	acc := make([]*Command, len(s.running))
	copy(acc, s.running)
	return acc
}

// Owner returns the Running Command that owns the Resource, if any.
func (s *Scheduler) Owner(r Resource) *Command {
	return s.owners[r]
}

// IsScheduled reports whether the Command is pending or Running in
// this Scheduler.
func (s *Scheduler) IsScheduled(c *Command) bool {
	for _, have := range s.pending {
		if have == c {
			return true
		}
	}
	for _, have := range s.running {
		if have == c {
			return true
		}
	}
	return false
}

// Run is the per-cycle entry point.
//
// In order:
//
//  1. Running Commands with a cancellation request are ended
//     (interrupted) and release their Resources.  Pending Commands
//     with a request are dropped without ever running.
//  2. Pending Commands are initialized in submission order.  Any
//     other Running owner of a required Resource is ended
//     (interrupted) first.  A pending default that a later pending
//     Command would preempt is dropped instead.
//  3. Every Running Command is executed once.  One that is now
//     finished is ended and releases its Resources.  One that
//     received a cancellation request earlier in this step is ended
//     (interrupted) instead of executed.
//  4. A fresh default Command is submitted for each unowned Resource
//     that has one.  It is initialized next cycle.
//
// The returned Report lists every transition in the order it
// happened.
func (s *Scheduler) Run(ctx context.Context) *Report {
	s.cycle++
	r := newReport(s.cycle)

	s.processCancels(ctx, r)
	s.initializePending(ctx, r)
	s.executeRunning(ctx, r)
	s.submitDefaults(r)

	if 0 < len(s.running) {
		r.Running = make([]string, len(s.running))
		for i, c := range s.running {
			r.Running[i] = c.Name
		}
	}
	if 0 < len(s.owners) {
		r.Owners = make(map[Resource]string, len(s.owners))
		for res, c := range s.owners {
			r.Owners[res] = c.Name
		}
	}

	return r
}

func (s *Scheduler) processCancels(ctx context.Context, r *Report) {
	for _, c := range s.Running() {
		if c.cancelRequested {
			s.retire(ctx, r, c, true, EventInterrupt, nil)
		}
	}

	kept := s.pending[:0]
	for _, c := range s.pending {
		if c.cancelRequested {
			c.drop()
			r.add(EventDrop, c, nil)
			continue
		}
		kept = append(kept, c)
	}
	s.pending = kept
}

func (s *Scheduler) initializePending(ctx context.Context, r *Report) {
	pending := s.pending
	s.pending = make([]*Command, 0, RunningInitialCap)

	for i, c := range pending {
		if c.isDefault && claimedLater(c, pending[i+1:]) {
			c.drop()
			r.add(EventDrop, c, nil)
			continue
		}
		for _, res := range c.requires {
			if owner := s.owners[res]; owner != nil && owner != c {
				s.retire(ctx, r, owner, true, EventPreempt, c)
			}
		}
		for _, res := range c.requires {
			s.owners[res] = c
		}
		s.running = append(s.running, c)
		c.initialize(ctx)
		r.add(EventInit, c, nil)
	}
}

// claimedLater reports whether any of the later pending Commands
// requires one of c's Resources.
func claimedLater(c *Command, later []*Command) bool {
	for _, other := range later {
		for _, res := range c.requires {
			if other.RequiresResource(res) {
				return true
			}
		}
	}
	return false
}

func (s *Scheduler) executeRunning(ctx context.Context, r *Report) {
	for _, c := range s.Running() {
		if c.status != Running {
			continue
		}
		if c.cancelRequested {
			s.retire(ctx, r, c, true, EventInterrupt, nil)
			continue
		}
		if c.step(ctx) {
			s.retire(ctx, r, c, false, EventFinish, nil)
		}
	}
}

func (s *Scheduler) submitDefaults(r *Report) {
	if len(s.defaults) == 0 {
		return
	}
	claimed := make(map[Resource]bool, len(s.pending))
	for _, c := range s.pending {
		for _, res := range c.requires {
			claimed[res] = true
		}
	}
	for _, res := range s.defaultOrder {
		if s.owners[res] != nil || claimed[res] {
			continue
		}
		c := s.defaults[res]()
		if c == nil {
			continue
		}
		if !c.RequiresResource(res) {
			panic(&ConfigError{c.Name, "default command for " + string(res) + " doesn't require it"})
		}
		if err := s.Start(c); err != nil {
			continue
		}
		c.isDefault = true
		for _, other := range c.requires {
			claimed[other] = true
		}
		r.add(EventDefault, c, nil)
	}
}

// retire ends the Command, releases its Resources, and removes it
// from the running set.
func (s *Scheduler) retire(ctx context.Context, r *Report, c *Command, interrupted bool, kind EventKind, by *Command) {
	for i, have := range s.running {
		if have == c {
			s.running = append(s.running[:i], s.running[i+1:]...)
			break
		}
	}
	for _, res := range c.requires {
		if s.owners[res] == c {
			delete(s.owners, res)
		}
	}
	c.end(ctx, interrupted)
	r.add(kind, c, by)
}
