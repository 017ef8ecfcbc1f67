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

package oi

import (
	"encoding/json"
	"fmt"

	"github.com/jsccast/yaml"
)

// Controls maps the robot's logical controls to input names in the
// InputState.
//
// The driver controller drives; the attachments controller runs the
// elevator, wrist, and intake.  Input names are conventionally
// prefixed with the controller ("driver.", "attach.").
type Controls struct {
	FwdRev          string `json:"fwdRev" yaml:"fwdRev"`
	LeftRight       string `json:"leftRight" yaml:"leftRight"`
	SlowGear        string `json:"slowGear" yaml:"slowGear"`
	FastGear        string `json:"fastGear" yaml:"fastGear"`
	PrecisionToggle string `json:"precisionToggle" yaml:"precisionToggle"`
	RampingToggle   string `json:"rampingToggle" yaml:"rampingToggle"`
	DebugToggle     string `json:"debugToggle" yaml:"debugToggle"`
	AutoAlign       string `json:"autoAlign" yaml:"autoAlign"`

	Elevator      string `json:"elevator" yaml:"elevator"`
	Wrist         string `json:"wrist" yaml:"wrist"`
	IntakeIn      string `json:"intakeIn" yaml:"intakeIn"`
	IntakeOut     string `json:"intakeOut" yaml:"intakeOut"`
	IntakeOpen    string `json:"intakeOpen" yaml:"intakeOpen"`
	IntakeClose   string `json:"intakeClose" yaml:"intakeClose"`
	ScalePosition string `json:"scalePosition" yaml:"scalePosition"`

	// ElevatorPOV is the D-pad used for one-press elevator moves.
	ElevatorPOV       string `json:"elevatorPOV" yaml:"elevatorPOV"`
	ElevatorUpAngle   int    `json:"elevatorUpAngle" yaml:"elevatorUpAngle"`
	ElevatorDownAngle int    `json:"elevatorDownAngle" yaml:"elevatorDownAngle"`

	// ElevatorSpeed is the speed for one-press elevator moves.
	ElevatorSpeed float64 `json:"elevatorSpeed" yaml:"elevatorSpeed"`

	// Deadzone is the stick magnitude that counts as the operator
	// taking over the elevator.
	Deadzone float64 `json:"deadzone" yaml:"deadzone"`

	// Conditions optionally replaces the Condition of a binding
	// (by binding name, see Wire) with a script.
	Conditions map[string]string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// DefaultControls returns the standard layout for two Xbox
// controllers.
func DefaultControls() *Controls {
	return &Controls{
		FwdRev:          "driver.lstick-y",
		LeftRight:       "driver.rstick-x",
		SlowGear:        "driver.lbumper",
		FastGear:        "driver.rbumper",
		PrecisionToggle: "driver.x",
		RampingToggle:   "driver.back",
		DebugToggle:     "driver.start",
		AutoAlign:       "driver.a",

		Elevator:      "attach.lstick-y",
		Wrist:         "attach.rstick-y",
		IntakeIn:      "attach.rtrigger",
		IntakeOut:     "attach.ltrigger",
		IntakeOpen:    "attach.rbumper",
		IntakeClose:   "attach.lbumper",
		ScalePosition: "attach.y",

		ElevatorPOV:       "attach.pov",
		ElevatorUpAngle:   0,
		ElevatorDownAngle: 180,
		ElevatorSpeed:     0.8,
		Deadzone:          0.1,
	}
}

// ParseControls overlays the given YAML (or JSON, if the first byte
// is '{') on DefaultControls.
func ParseControls(bs []byte) (*Controls, error) {
	c := DefaultControls()
	if len(bs) == 0 {
		return c, nil
	}
	var err error
	switch bs[0] {
	case '{':
		err = json.Unmarshal(bs, c)
	default:
		err = yaml.Unmarshal(bs, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing controls: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks for missing input names and nonsense numbers.
func (c *Controls) Validate() error {
	for _, ref := range c.Reference() {
		if ref.Input == "" {
			return fmt.Errorf("control %q has no input", ref.Control)
		}
	}
	if c.ElevatorPOV == "" {
		return fmt.Errorf("control %q has no input", "elevatorPOV")
	}
	if c.Deadzone < 0 || 1 <= c.Deadzone {
		return fmt.Errorf("deadzone %v not in [0,1)", c.Deadzone)
	}
	if c.ElevatorSpeed <= 0 || 1 < c.ElevatorSpeed {
		return fmt.Errorf("elevatorSpeed %v not in (0,1]", c.ElevatorSpeed)
	}
	return nil
}

// ControlRef documents one control.
type ControlRef struct {
	Section string `json:"section"`
	Control string `json:"control"`
	Input   string `json:"input"`
	Doc     string `json:"doc"`
}

// Reference lists every control with a description, in the order an
// operator would want to read them.
func (c *Controls) Reference() []ControlRef {
	pov := func(angle int) string {
		return fmt.Sprintf("%s@%d", c.ElevatorPOV, angle)
	}
	return []ControlRef{
		{"Drive", "fwdRev", c.FwdRev, "Forwards/backwards"},
		{"Drive", "leftRight", c.LeftRight, "Left/right"},
		{"Drive", "slowGear", c.SlowGear, "Shift gear to slower configuration"},
		{"Drive", "fastGear", c.FastGear, "Shift gear to faster configuration"},
		{"Drive", "precisionToggle", c.PrecisionToggle, "Toggle precision mode"},
		{"Drive", "rampingToggle", c.RampingToggle, "Toggle drive ramping"},
		{"Drive", "debugToggle", c.DebugToggle, "Toggle debug mode"},
		{"Drive", "autoAlign", c.AutoAlign, "Turn toward the vision target while held"},
		{"Attachments", "elevator", c.Elevator, "Elevator (cancels one-press elevator moves)"},
		{"Attachments", "wrist", c.Wrist, "Tilt wrist"},
		{"Attachments", "intakeIn", c.IntakeIn, "Intake in (analog)"},
		{"Attachments", "intakeOut", c.IntakeOut, "Intake out (analog)"},
		{"Attachments", "intakeOpen", c.IntakeOpen, "Open intake"},
		{"Attachments", "intakeClose", c.IntakeClose, "Close intake"},
		{"Attachments", "scalePosition", c.ScalePosition, "Raise the elevator and wrist to scale position"},
		{"Attachments", "elevatorUp", pov(c.ElevatorUpAngle), "Raise the elevator to the top"},
		{"Attachments", "elevatorDown", pov(c.ElevatorDownAngle), "Lower the elevator to the bottom"},
	}
}
