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
	"encoding/json"
	"math"
)

// POVNone is the angle reported for a POV (D-pad) that isn't pressed.
const POVNone = -1

// InputState is an immutable snapshot of an operator controller
// taken once per cycle.
//
// Axes hold readings in [-1,1].  Buttons are pressed or not.  POVs
// hold an angle in degrees (0 is up, 90 is right) or POVNone.
//
// Use NewInputState or ParseInputState to make one.  The maps given
// to NewInputState are copied, and nothing returned by an InputState
// exposes its internal maps, so an InputState can be shared freely
// within a cycle.
type InputState struct {
	axes    map[string]float64
	buttons map[string]bool
	povs    map[string]int
}

// inputStateJSON is the wire representation of an InputState.
type inputStateJSON struct {
	Axes    map[string]float64 `json:"axes,omitempty" yaml:",omitempty"`
	Buttons map[string]bool    `json:"buttons,omitempty" yaml:",omitempty"`
	POVs    map[string]int     `json:"povs,omitempty" yaml:",omitempty"`
}

// NewInputState makes an InputState from copies of the given
// readings.  Any argument can be nil.
//
// Axis readings outside [-1,1] are clamped.  NaN readings are treated
// as 0.
func NewInputState(axes map[string]float64, buttons map[string]bool, povs map[string]int) *InputState {
	s := &InputState{
		axes:    make(map[string]float64, len(axes)),
		buttons: make(map[string]bool, len(buttons)),
		povs:    make(map[string]int, len(povs)),
	}
	for name, x := range axes {
		s.axes[name] = clampAxis(x)
	}
	for name, b := range buttons {
		s.buttons[name] = b
	}
	for name, a := range povs {
		s.povs[name] = a
	}
	return s
}

// EmptyInputState returns a snapshot with no readings: every axis
// reads 0, every button is released, and every POV is POVNone.
func EmptyInputState() *InputState {
	return NewInputState(nil, nil, nil)
}

// ParseInputState parses the JSON representation
//
//	{"axes":{"lstick-y":0.5},"buttons":{"a":true},"povs":{"dpad":90}}
func ParseInputState(js []byte) (*InputState, error) {
	var x inputStateJSON
	if err := json.Unmarshal(js, &x); err != nil {
		return nil, err
	}
	return NewInputState(x.Axes, x.Buttons, x.POVs), nil
}

// MarshalJSON renders the snapshot in the form ParseInputState
// accepts.
func (s *InputState) MarshalJSON() ([]byte, error) {
	return json.Marshal(&inputStateJSON{
		Axes:    s.axes,
		Buttons: s.buttons,
		POVs:    s.povs,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *InputState) UnmarshalJSON(js []byte) error {
	parsed, err := ParseInputState(js)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

func clampAxis(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	case x < -1:
		return -1
	}
	return x
}

// Axis returns the reading for the named axis, which is 0 if the
// axis is unknown.
func (s *InputState) Axis(name string) float64 {
	if s == nil {
		return 0
	}
	return s.axes[name]
}

// Button reports whether the named button is pressed.
func (s *InputState) Button(name string) bool {
	if s == nil {
		return false
	}
	return s.buttons[name]
}

// POV returns the angle of the named POV or POVNone.
func (s *InputState) POV(name string) int {
	if s == nil {
		return POVNone
	}
	a, have := s.povs[name]
	if !have {
		return POVNone
	}
	return a
}

// With returns a copy of this snapshot with the given readings
// overlaid.  Handy for tests and for couplings that receive partial
// updates.
func (s *InputState) With(axes map[string]float64, buttons map[string]bool, povs map[string]int) *InputState {
	acc := NewInputState(s.axes, s.buttons, s.povs)
	for name, x := range axes {
		acc.axes[name] = clampAxis(x)
	}
	for name, b := range buttons {
		acc.buttons[name] = b
	}
	for name, a := range povs {
		acc.povs[name] = a
	}
	return acc
}

// Condition is a predicate over the current InputState.
//
// A Condition may also consult other live state (for example whether
// some Command is Running), but it must not block.
type Condition func(*InputState) bool

// Button is a Condition that holds while the named button is
// pressed.
func Button(name string) Condition {
	return func(s *InputState) bool {
		return s.Button(name)
	}
}

// AxisBeyond is a Condition that holds while the magnitude of the
// named axis exceeds the given deadzone.
func AxisBeyond(name string, deadzone float64) Condition {
	return func(s *InputState) bool {
		return math.Abs(s.Axis(name)) > deadzone
	}
}

// POV is a Condition that holds while the named POV reads exactly the
// given angle.
func POV(name string, angle int) Condition {
	return func(s *InputState) bool {
		return s.POV(name) == angle
	}
}

// And holds when all of the given conditions hold.  Evaluation stops
// at the first one that doesn't.
func And(cs ...Condition) Condition {
	return func(s *InputState) bool {
		for _, c := range cs {
			if !c(s) {
				return false
			}
		}
		return true
	}
}

// Or holds when any of the given conditions holds.
func Or(cs ...Condition) Condition {
	return func(s *InputState) bool {
		for _, c := range cs {
			if c(s) {
				return true
			}
		}
		return false
	}
}

// Not negates a Condition.
func Not(c Condition) Condition {
	return func(s *InputState) bool {
		return !c(s)
	}
}
