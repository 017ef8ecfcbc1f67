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

// Package subsystems describes the robot's actuators and sensors as
// interfaces and builds the concrete Commands that drive them.
//
// The drivers themselves live elsewhere.  Sim provides an in-memory
// stand-in that is good enough for tests and for the simulator.
package subsystems

import (
	"github.com/frc6135/botcore/core"
)

// The Resources the robot's Commands contend for.
const (
	Drive    core.Resource = "drive"
	Shifter  core.Resource = "gear-shift"
	Elevator core.Resource = "elevator"
	Wrist    core.Resource = "wrist"
	Rollers  core.Resource = "intake-rollers"
	Claw     core.Resource = "intake-claw"
	Camera   core.Resource = "camera"
)

// Gear is a drivetrain gear.
type Gear int

const (
	GearSlow Gear = iota
	GearFast
)

func (g Gear) String() string {
	if g == GearFast {
		return "fast"
	}
	return "slow"
}

// Drivetrain is the drive base.
type Drivetrain interface {
	// ArcadeDrive sets forward speed and turn rate, each in [-1,1].
	ArcadeDrive(forward, turn float64)

	// Distance returns inches traveled since ResetDistance.
	Distance() float64
	ResetDistance()

	// Heading returns degrees turned (clockwise positive) since
	// ResetHeading.
	Heading() float64
	ResetHeading()

	Stop()
}

// GearBox shifts the drivetrain.
type GearBox interface {
	SetGear(Gear)
}

// Lift is the elevator.
type Lift interface {
	// Set drives the elevator motor at the given speed (positive
	// is up).
	Set(speed float64)
	AtTop() bool
	AtBottom() bool
}

// Joint is the wrist.
type Joint interface {
	Set(speed float64)

	// Angle returns degrees from the stowed position.
	Angle() float64
}

// Grabber is the cube intake.
type Grabber interface {
	// SetRollers spins the rollers (positive pulls a cube in).
	SetRollers(speed float64)
	SetClaw(open bool)
}

// Vision reports where the vision target is.
type Vision interface {
	// TargetOffset returns the horizontal angle to the target in
	// degrees, or ok false when no target is visible.
	TargetOffset() (degrees float64, ok bool)
}

// Subsystems gathers everything the robot can actuate.
type Subsystems struct {
	Drive    Drivetrain
	Gears    GearBox
	Elevator Lift
	Wrist    Joint
	Intake   Grabber
	Vision   Vision
}
