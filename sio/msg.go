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

package sio

import (
	"encoding/json"
	"fmt"

	"github.com/frc6135/botcore/auto"
	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/oi"
)

// Phase is the match phase chosen by the driver station.
type Phase string

const (
	Disabled   Phase = "disabled"
	Autonomous Phase = "autonomous"
	Teleop     Phase = "teleop"
)

// ParsePhase accepts "disabled", "autonomous" (or "auto"), and
// "teleop".
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "disabled":
		return Disabled, nil
	case "autonomous", "auto":
		return Autonomous, nil
	case "teleop":
		return Teleop, nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// Msg is one in-bound message.
//
// A Msg with a Phase enters that phase (the AutonomousContext fields
// are only used for the autonomous phase).  A Msg with Choose sets
// the autonomous routine.  A Msg with Input runs one cycle.  A single
// Msg can do all three, in that order.
//
//	{"phase":"autonomous","gameData":"LRL","station":2,"alliance":"red"}
//	{"input":{"axes":{"driver.lstick-y":0.5}}}
type Msg struct {
	Phase string `json:"phase,omitempty"`
	auto.AutonomousContext

	Choose string `json:"choose,omitempty"`

	Input *core.InputState `json:"input,omitempty"`

	// bad is set for input that couldn't be parsed, so the error
	// is reported in order with everything else.
	bad error
}

// ParseMsg parses a JSON Msg.
func ParseMsg(js []byte) (*Msg, error) {
	var m Msg
	if err := json.Unmarshal(js, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// BadMsg wraps an input error in a Msg so that Couplings can report
// it in order with everything else.
func BadMsg(err error) *Msg {
	return &Msg{bad: fmt.Errorf("bad input: %w", err)}
}

// Status is a read-only summary of the Robot, safe to hand to other
// goroutines.
type Status struct {
	Phase    Phase          `json:"phase"`
	Match    string         `json:"match,omitempty"`
	Cycle    uint64         `json:"cycle"`
	Running  []string       `json:"running,omitempty"`
	Chosen   auto.RoutineID `json:"chosen"`
	Plan     string         `json:"plan,omitempty"`
	Settings oi.Snapshot    `json:"settings"`
}

// Output represents all visible output from processing a Msg or from
// the diagnostics task.
type Output struct {
	Report *core.Report `json:"report,omitempty"`
	Status *Status      `json:"status,omitempty"`
	Diag   *Diagnostic  `json:"diag,omitempty"`
	Error  string       `json:"error,omitempty"`

	// Tunables holds the current values of the adjustable
	// constants, published when the debug switch flips.
	Tunables map[string]float64 `json:"tunables,omitempty"`
}
