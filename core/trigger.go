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

// Edge is what Trigger.Evaluate reports about a Condition's change
// since the previous cycle.
type Edge int

const (
	NoEdge      Edge = iota // Same value as last cycle.
	RisingEdge              // false to true.
	FallingEdge             // true to false.
)

func (e Edge) String() string {
	switch e {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	default:
		return "none"
	}
}

// Transition selects when a bound action runs.
type Transition int

const (
	// BecomesTrue runs the action once per rising edge.
	BecomesTrue Transition = iota

	// BecomesFalse runs the action once per falling edge.
	BecomesFalse

	// WhileTrue runs the action every cycle the condition holds,
	// regardless of edges.
	WhileTrue
)

func (t Transition) String() string {
	switch t {
	case BecomesTrue:
		return "becomesTrue"
	case BecomesFalse:
		return "becomesFalse"
	case WhileTrue:
		return "whileTrue"
	default:
		return "unknown"
	}
}

// Action is a bound procedure.  Typically an Action submits a fresh
// Command to a Scheduler or requests the cancellation of a specific
// Command.  An Action must not block.
type Action func()

type binding struct {
	transition Transition
	action     Action
}

// Trigger watches a Condition across cycles.
//
// A Trigger is created once during wiring and is evaluated every
// cycle for the life of the process.
type Trigger struct {
	// Name is used only for logging and diagnostics.
	Name string

	// FireOnStart makes the very first evaluation compare against
	// a previous value of false.  By default the first evaluation
	// only records the current value, so a condition that is
	// already true at the first cycle (say, a button held while
	// the robot boots) does not produce a RisingEdge.
	FireOnStart bool

	condition Condition
	bindings  []binding
	primed    bool
	last      bool
}

// NewTrigger makes a Trigger for the given Condition.
func NewTrigger(name string, c Condition) *Trigger {
	return &Trigger{
		Name:      name,
		condition: c,
	}
}

// Bind adds an action for the given transition.  Actions bound to
// the same transition run in the order they were bound.
//
// Returns the Trigger to allow chaining.
func (t *Trigger) Bind(tr Transition, a Action) *Trigger {
	t.bindings = append(t.bindings, binding{
		transition: tr,
		action:     a,
	})
	return t
}

// Last returns the value observed at the previous evaluation.
func (t *Trigger) Last() bool {
	return t.last
}

// Evaluate computes the Condition for this cycle, compares the result
// with the previous cycle's value, and remembers the new value.
//
// Evaluate does not run any actions.  See Poll.
func (t *Trigger) Evaluate(s *InputState) Edge {
	now := t.condition(s)

	if !t.primed {
		t.primed = true
		if !t.FireOnStart {
			t.last = now
			return NoEdge
		}
		// Otherwise compare with false.
	}

	previous := t.last
	t.last = now

	switch {
	case now && !previous:
		return RisingEdge
	case !now && previous:
		return FallingEdge
	default:
		return NoEdge
	}
}

// Poll evaluates the Trigger and runs the applicable bound actions in
// binding order.  Returns the Edge and the number of actions run.
func (t *Trigger) Poll(s *InputState) (Edge, int) {
	edge := t.Evaluate(s)
	ran := 0
	for _, b := range t.bindings {
		var fire bool
		switch b.transition {
		case BecomesTrue:
			fire = edge == RisingEdge
		case BecomesFalse:
			fire = edge == FallingEdge
		case WhileTrue:
			fire = t.last
		}
		if fire {
			b.action()
			ran++
		}
	}
	return edge, ran
}
