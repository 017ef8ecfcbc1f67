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
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// Resource names an exclusivity domain (typically a physical
// subsystem).  At most one Running Command holds a given Resource.
type Resource string

// Status is a Command's lifecycle state.
type Status int

const (
	Initialized Status = iota // Built but not yet started by a Scheduler.
	Running                   // Init has been called.
	Finished                  // Ended normally.
	Canceled                  // Ended by cancellation or preemption.
)

func (s Status) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the Status is Finished or Canceled.
func (s Status) Terminal() bool {
	return s == Finished || s == Canceled
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Behavior is what a Command does.
//
// Init is called exactly once when the Command starts Running.
// Execute is called every cycle the Command is Running (including the
// cycle of Init), and IsFinished is consulted right after each
// Execute.  End is called exactly once when the Command stops, with
// interrupted true when the Command was canceled or preempted.
//
// None of these methods should block.
type Behavior interface {
	Init(ctx context.Context)
	Execute(ctx context.Context)
	IsFinished() bool
	End(ctx context.Context, interrupted bool)
}

// Command is a unit of schedulable work: a Behavior, a fixed set of
// required Resources, and a lifecycle.
//
// Only a Scheduler (or a group that owns the Command) moves a Command
// through its lifecycle.  Everybody else can only RequestCancel.
//
// A Command that has Finished or been Canceled never runs again.
// Build a new one instead.
type Command struct {
	// Name is a human-readable name like "raise-elevator".
	Name string

	// Id is unique to this instance.
	Id string

	// RunsWhenDisabled lets this Command start, and keep running,
	// while its Scheduler is disabled.
	RunsWhenDisabled bool

	behavior        Behavior
	requires        []Resource
	status          Status
	cancelRequested bool

	// scheduled is true from Scheduler.Start until the Command
	// reaches a terminal Status.
	scheduled bool

	// parent is the group (if any) that owns this Command.
	parent *Command

	// isDefault marks a Command submitted as a Resource's default.
	isDefault bool
}

// NewCommand makes a Command with the given Behavior and required
// Resources.
//
// The Resources are fixed for the life of the Command.  Duplicates
// are ignored.  A nil Behavior or an empty Resource name is a
// programming error, and NewCommand panics with a *ConfigError.
func NewCommand(name string, b Behavior, requires ...Resource) *Command {
	if b == nil {
		panic(&ConfigError{Command: name, Problem: "nil behavior"})
	}
	set := make(map[Resource]bool, len(requires))
	rs := make([]Resource, 0, len(requires))
	for _, r := range requires {
		if r == "" {
			panic(&ConfigError{Command: name, Problem: "empty resource name"})
		}
		if set[r] {
			continue
		}
		set[r] = true
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })

	return &Command{
		Name:     name,
		Id:       uuid.NewString(),
		behavior: b,
		requires: rs,
	}
}

// Requires returns a copy of the Command's Resources in sorted order.
func (c *Command) Requires() []Resource {
	acc := make([]Resource, len(c.requires))
	copy(acc, c.requires)
	return acc
}

// RequiresResource reports whether the Command needs the given
// Resource.
func (c *Command) RequiresResource(r Resource) bool {
	for _, have := range c.requires {
		if have == r {
			return true
		}
	}
	return false
}

// Status returns the current lifecycle state.
func (c *Command) Status() Status {
	return c.status
}

// IsRunning reports whether the Command has been initialized and
// hasn't ended.
func (c *Command) IsRunning() bool {
	return c.status == Running
}

// CancelRequested reports whether RequestCancel has been called
// (and honored or not yet honored) for this instance.
func (c *Command) CancelRequested() bool {
	return c.cancelRequested
}

// Behavior returns the Command's Behavior.
func (c *Command) Behavior() Behavior {
	return c.behavior
}

// RequestCancel asks for the Command to be canceled.  The request is
// honored on the Command's next scheduled step.  Requesting
// cancellation of a Command that has already ended is a no-op.
func (c *Command) RequestCancel() {
	if c == nil || c.status.Terminal() {
		return
	}
	c.cancelRequested = true
}

func (c *Command) String() string {
	if c == nil {
		return "nil"
	}
	return c.Name + "/" + c.status.String()
}

func (c *Command) initialize(ctx context.Context) {
	c.status = Running
	c.behavior.Init(ctx)
}

// step executes the Command once and reports whether it is finished.
func (c *Command) step(ctx context.Context) bool {
	c.behavior.Execute(ctx)
	return c.behavior.IsFinished()
}

func (c *Command) end(ctx context.Context, interrupted bool) {
	if interrupted {
		c.status = Canceled
	} else {
		c.status = Finished
	}
	c.scheduled = false
	c.behavior.End(ctx, interrupted)
}

// drop cancels a Command that never started Running.  Neither Init
// nor End is called.
func (c *Command) drop() {
	c.status = Canceled
	c.scheduled = false
}
