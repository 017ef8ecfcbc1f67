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

package subsystems

import (
	"context"
	"math"

	"github.com/frc6135/botcore/core"
)

var (
	// ElevatorDeadzone is the stick magnitude below which the
	// analog elevator control is ignored.
	ElevatorDeadzone = 0.1

	// WristDeadzone is the same thing for the wrist.
	WristDeadzone = 0.1

	// DriveDeadzone is the same thing for the drive sticks.
	DriveDeadzone = 0.05

	// PrecisionScale multiplies drive output in precision mode.
	PrecisionScale = 0.5

	// RampStep is the largest change in drive output per cycle
	// when ramping is on.
	RampStep = 0.04

	// ScaleWristAngle is the wrist angle for placing on the scale.
	ScaleWristAngle = 60.0

	// WristTolerance is how close to a target angle is close
	// enough.
	WristTolerance = 2.0

	// HeadingTolerance is how close to a target heading is close
	// enough.
	HeadingTolerance = 2.0

	// AlignTolerance is how close to the vision target is close
	// enough.
	AlignTolerance = 1.5

	// OuttakeCycles is how long the rollers run to shoot a cube
	// (one second at 50 Hz).
	OuttakeCycles = 50
)

// deadband zeroes small readings.
func deadband(x, zone float64) float64 {
	if math.Abs(x) <= zone {
		return 0
	}
	return x
}

// ShiftGear shifts into the given gear.
func (s *Subsystems) ShiftGear(g Gear) *core.Command {
	return core.Instant("gear-shift-"+g.String(), func(context.Context) {
		s.Gears.SetGear(g)
	}, Shifter)
}

// OperateIntake opens or closes the claw.
func (s *Subsystems) OperateIntake(open bool) *core.Command {
	name := "intake-close"
	if open {
		name = "intake-open"
	}
	return core.Instant(name, func(context.Context) {
		s.Intake.SetClaw(open)
	}, Claw)
}

// RaiseElevator runs the elevator up until it reaches the top.
func (s *Subsystems) RaiseElevator(speed float64) *core.Command {
	return core.NewCommand("raise-elevator", &core.FuncBehavior{
		ExecuteF:  func(context.Context) { s.Elevator.Set(math.Abs(speed)) },
		FinishedF: s.Elevator.AtTop,
		EndF:      func(context.Context, bool) { s.Elevator.Set(0) },
	}, Elevator)
}

// LowerElevator runs the elevator down until it reaches the bottom.
func (s *Subsystems) LowerElevator(speed float64) *core.Command {
	return core.NewCommand("lower-elevator", &core.FuncBehavior{
		ExecuteF:  func(context.Context) { s.Elevator.Set(-math.Abs(speed)) },
		FinishedF: s.Elevator.AtBottom,
		EndF:      func(context.Context, bool) { s.Elevator.Set(0) },
	}, Elevator)
}

// MoveWrist turns the wrist to the given angle.
func (s *Subsystems) MoveWrist(angle, speed float64) *core.Command {
	return core.NewCommand("move-wrist", &core.FuncBehavior{
		ExecuteF: func(context.Context) {
			if s.Wrist.Angle() < angle {
				s.Wrist.Set(math.Abs(speed))
			} else {
				s.Wrist.Set(-math.Abs(speed))
			}
		},
		FinishedF: func() bool {
			return math.Abs(s.Wrist.Angle()-angle) <= WristTolerance
		},
		EndF: func(context.Context, bool) { s.Wrist.Set(0) },
	}, Wrist)
}

// ScalingPosition raises the elevator and tilts the wrist for the
// scale at the same time.
func (s *Subsystems) ScalingPosition() *core.Command {
	return core.Parallel("scaling-position", core.WaitAll,
		s.RaiseElevator(1),
		s.MoveWrist(ScaleWristAngle, 0.6))
}

// Outtake shoots the cube out at full speed.
func (s *Subsystems) Outtake() *core.Command {
	n := 0
	return core.NewCommand("outtake", &core.FuncBehavior{
		InitF:     func(context.Context) { n = 0 },
		ExecuteF:  func(context.Context) { s.Intake.SetRollers(-1); n++ },
		FinishedF: func() bool { return OuttakeCycles <= n },
		EndF:      func(context.Context, bool) { s.Intake.SetRollers(0) },
	}, Rollers)
}

// DriveStraight drives the given distance (negative is backwards).
func (s *Subsystems) DriveStraight(inches, speed float64) *core.Command {
	dir := 1.0
	if inches < 0 {
		dir = -1
	}
	return core.NewCommand("drive-straight", &core.FuncBehavior{
		InitF:    func(context.Context) { s.Drive.ResetDistance() },
		ExecuteF: func(context.Context) { s.Drive.ArcadeDrive(dir*math.Abs(speed), 0) },
		FinishedF: func() bool {
			return math.Abs(inches) <= math.Abs(s.Drive.Distance())
		},
		EndF: func(context.Context, bool) { s.Drive.Stop() },
	}, Drive)
}

// Turn turns in place by the given number of degrees (clockwise
// positive).
func (s *Subsystems) Turn(degrees, speed float64) *core.Command {
	dir := 1.0
	if degrees < 0 {
		dir = -1
	}
	return core.NewCommand("turn", &core.FuncBehavior{
		InitF:    func(context.Context) { s.Drive.ResetHeading() },
		ExecuteF: func(context.Context) { s.Drive.ArcadeDrive(0, dir*math.Abs(speed)) },
		FinishedF: func() bool {
			return math.Abs(degrees)-HeadingTolerance <= math.Abs(s.Drive.Heading())
		},
		EndF: func(context.Context, bool) { s.Drive.Stop() },
	}, Drive)
}

// AlignToTarget turns toward the vision target.  It gives up (and
// finishes) when no target is visible.
func (s *Subsystems) AlignToTarget(speed float64) *core.Command {
	return core.NewCommand("align-to-target", &core.FuncBehavior{
		ExecuteF: func(context.Context) {
			offset, ok := s.Vision.TargetOffset()
			if !ok {
				s.Drive.Stop()
				return
			}
			s.Drive.ArcadeDrive(0, math.Copysign(math.Abs(speed), offset))
		},
		FinishedF: func() bool {
			offset, ok := s.Vision.TargetOffset()
			return !ok || math.Abs(offset) <= AlignTolerance
		},
		EndF: func(context.Context, bool) { s.Drive.Stop() },
	}, Drive, Camera)
}

// DriveTuning exposes the operator's drive mode switches.
type DriveTuning interface {
	Precision() bool
	Ramping() bool
}

// Input supplies the current InputState.
type Input func() *core.InputState

// TeleopDrive is the default drive Command: arcade drive from two
// sticks, with optional precision scaling and ramping.
func (s *Subsystems) TeleopDrive(in Input, forwardAxis, turnAxis string, tuning DriveTuning) *core.Command {
	var forward, turn float64
	return core.NewCommand("teleop-drive", &core.FuncBehavior{
		InitF: func(context.Context) { forward, turn = 0, 0 },
		ExecuteF: func(context.Context) {
			st := in()
			// Pushing the stick forward reads negative.
			f := -deadband(st.Axis(forwardAxis), DriveDeadzone)
			r := deadband(st.Axis(turnAxis), DriveDeadzone)
			if tuning.Precision() {
				f *= PrecisionScale
				r *= PrecisionScale
			}
			if tuning.Ramping() {
				f = ramp(forward, f)
				r = ramp(turn, r)
			}
			forward, turn = f, r
			s.Drive.ArcadeDrive(f, r)
		},
		EndF: func(context.Context, bool) { s.Drive.Stop() },
	}, Drive)
}

func ramp(from, to float64) float64 {
	switch {
	case to > from+RampStep:
		return from + RampStep
	case to < from-RampStep:
		return from - RampStep
	}
	return to
}

// ElevatorAnalog is the default elevator Command: the stick drives
// the elevator directly.
func (s *Subsystems) ElevatorAnalog(in Input, axis string) *core.Command {
	return core.NewCommand("elevator-analog", &core.FuncBehavior{
		ExecuteF: func(context.Context) {
			speed := -deadband(in().Axis(axis), ElevatorDeadzone)
			switch {
			case 0 < speed && s.Elevator.AtTop(), speed < 0 && s.Elevator.AtBottom():
				speed = 0
			}
			s.Elevator.Set(speed)
		},
		EndF: func(context.Context, bool) { s.Elevator.Set(0) },
	}, Elevator)
}

// WristAnalog is the default wrist Command.
func (s *Subsystems) WristAnalog(in Input, axis string) *core.Command {
	return core.NewCommand("wrist-analog", &core.FuncBehavior{
		ExecuteF: func(context.Context) {
			s.Wrist.Set(-deadband(in().Axis(axis), WristDeadzone))
		},
		EndF: func(context.Context, bool) { s.Wrist.Set(0) },
	}, Wrist)
}

// IntakeAnalog is the default roller Command: one trigger pulls in,
// the other pushes out.
func (s *Subsystems) IntakeAnalog(in Input, inAxis, outAxis string) *core.Command {
	return core.NewCommand("intake-analog", &core.FuncBehavior{
		ExecuteF: func(context.Context) {
			st := in()
			s.Intake.SetRollers(st.Axis(inAxis) - st.Axis(outAxis))
		},
		EndF: func(context.Context, bool) { s.Intake.SetRollers(0) },
	}, Rollers)
}
