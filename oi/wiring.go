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
	"fmt"

	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/subsystems"
)

// Compiler turns a condition script into a Condition.
type Compiler interface {
	CompileCondition(name, src string) (core.Condition, error)
}

// Wiring holds what Wire declared.
type Wiring struct {
	ElevatorUp   *Handle
	ElevatorDown *Handle
	Align        *Handle
	Scale        *Handle

	// Triggers by binding name.
	Triggers map[string]*core.Trigger
}

// Wire declares the robot's bindings on the Dispatcher and registers
// the default Commands with its Scheduler.
//
// Binding names (usable as keys in Controls.Conditions) are
// gear-fast, gear-slow, precision, scale-position, intake-open,
// intake-close, ramping, debug, auto-align, elevator-up,
// elevator-down, and cancel-elevator.
//
// A Controls.Conditions script requires a non-nil Compiler.
func Wire(d *Dispatcher, c *Controls, subs *subsystems.Subsystems, compiler Compiler) (*Wiring, error) {
	w := &Wiring{
		Triggers: make(map[string]*core.Trigger, 16),
	}

	var err error
	add := func(name string, standard core.Condition) *core.Trigger {
		cond := standard
		if src, have := c.Conditions[name]; have && err == nil {
			if compiler == nil {
				err = fmt.Errorf("binding %s has a condition script but no compiler", name)
			} else if cond, err = compiler.CompileCondition(name, src); err != nil {
				err = fmt.Errorf("binding %s: %w", name, err)
			}
		}
		t := d.Add(name, cond)
		w.Triggers[name] = t
		return t
	}

	// Drive
	d.WhenPressed(add("gear-fast", core.Button(c.FastGear)), func() *core.Command {
		return subs.ShiftGear(subsystems.GearFast)
	})
	d.WhenPressed(add("gear-slow", core.Button(c.SlowGear)), func() *core.Command {
		return subs.ShiftGear(subsystems.GearSlow)
	})
	d.Toggle(add("precision", core.Button(c.PrecisionToggle)), d.Settings.TogglePrecision)
	d.Toggle(add("ramping", core.Button(c.RampingToggle)), d.Settings.ToggleRamping)
	d.Toggle(add("debug", core.Button(c.DebugToggle)), d.Settings.ToggleDebug)
	w.Align = d.WhileHeld(add("auto-align", core.Button(c.AutoAlign)), func() *core.Command {
		return subs.AlignToTarget(0.5)
	})

	// Attachments
	w.Scale = d.WhenPressed(add("scale-position", core.Button(c.ScalePosition)), subs.ScalingPosition)
	d.WhenPressed(add("intake-open", core.Button(c.IntakeOpen)), func() *core.Command {
		return subs.OperateIntake(true)
	})
	d.WhenPressed(add("intake-close", core.Button(c.IntakeClose)), func() *core.Command {
		return subs.OperateIntake(false)
	})
	w.ElevatorUp = d.WhenPressed(add("elevator-up", core.POV(c.ElevatorPOV, c.ElevatorUpAngle)), func() *core.Command {
		return subs.RaiseElevator(c.ElevatorSpeed)
	})
	w.ElevatorDown = d.WhenPressed(add("elevator-down", core.POV(c.ElevatorPOV, c.ElevatorDownAngle)), func() *core.Command {
		return subs.LowerElevator(c.ElevatorSpeed)
	})

	// The stick takes over from one-press elevator moves.
	d.CancelWhileActive(add("cancel-elevator", core.AxisBeyond(c.Elevator, c.Deadzone)), w.ElevatorUp, w.ElevatorDown)

	if err != nil {
		return nil, err
	}

	s := d.Scheduler
	s.SetDefault(subsystems.Drive, func() *core.Command {
		return subs.TeleopDrive(d.Input, c.FwdRev, c.LeftRight, d.Settings)
	})
	s.SetDefault(subsystems.Elevator, func() *core.Command {
		return subs.ElevatorAnalog(d.Input, c.Elevator)
	})
	s.SetDefault(subsystems.Wrist, func() *core.Command {
		return subs.WristAnalog(d.Input, c.Wrist)
	})
	s.SetDefault(subsystems.Rollers, func() *core.Command {
		return subs.IntakeAnalog(d.Input, c.IntakeIn, c.IntakeOut)
	})

	return w, nil
}
