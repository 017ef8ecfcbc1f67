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
	"sync"
)

var (
	// SimInchesPerCycle is how far the simulated drivetrain moves
	// per cycle at full speed.
	SimInchesPerCycle = 3.0

	// SimDegreesPerCycle is how far it turns per cycle at full
	// turn rate.
	SimDegreesPerCycle = 6.0

	// SimLiftPerCycle is the fraction of its travel the simulated
	// elevator covers per cycle at full speed.
	SimLiftPerCycle = 0.05
)

// Readings are the simulated actuator outputs and sensor values.
type Readings struct {
	Forward, Turn float64
	Inches        float64
	Degrees       float64
	Gear          Gear
	Lift          float64
	LiftSpeed     float64
	WristAngle    float64
	WristSpeed    float64
	RollerSpeed   float64
	ClawOpen      bool

	// Target is the simulated vision target offset, used when
	// TargetVisible.
	Target        float64
	TargetVisible bool
}

// Sim is an in-memory robot.  Every actuator call updates simulated
// sensor readings immediately, so a Command sees the effect of its
// own Execute when IsFinished is consulted.
//
// Sim is safe for concurrent use so that telemetry can read it while
// the control loop writes it.
type Sim struct {
	mu sync.Mutex
	Readings
}

// NewSim makes a Sim with the elevator at the bottom.
func NewSim() *Sim {
	return &Sim{}
}

// Subsystems returns Subsystems backed by this Sim.
func (s *Sim) Subsystems() *Subsystems {
	return &Subsystems{
		Drive:    simDrive{s},
		Gears:    simGears{s},
		Elevator: simLift{s},
		Wrist:    simJoint{s},
		Intake:   simGrabber{s},
		Vision:   simVision{s},
	}
}

// Snapshot returns a copy of the Sim's readings.
func (s *Sim) Snapshot() Readings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Readings
}

// SetTarget places (or hides) the simulated vision target.
func (s *Sim) SetTarget(offset float64, visible bool) {
	s.mu.Lock()
	s.Target, s.TargetVisible = offset, visible
	s.mu.Unlock()
}

type simDrive struct{ s *Sim }

func (d simDrive) ArcadeDrive(forward, turn float64) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.Forward, d.s.Turn = forward, turn
	d.s.Inches += forward * SimInchesPerCycle
	d.s.Degrees += turn * SimDegreesPerCycle
	if d.s.TargetVisible {
		d.s.Target -= turn * SimDegreesPerCycle
	}
}

func (d simDrive) Distance() float64 {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.s.Inches
}

func (d simDrive) ResetDistance() {
	d.s.mu.Lock()
	d.s.Inches = 0
	d.s.mu.Unlock()
}

func (d simDrive) Heading() float64 {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.s.Degrees
}

func (d simDrive) ResetHeading() {
	d.s.mu.Lock()
	d.s.Degrees = 0
	d.s.mu.Unlock()
}

func (d simDrive) Stop() {
	d.s.mu.Lock()
	d.s.Forward, d.s.Turn = 0, 0
	d.s.mu.Unlock()
}

type simGears struct{ s *Sim }

func (g simGears) SetGear(gear Gear) {
	g.s.mu.Lock()
	g.s.Gear = gear
	g.s.mu.Unlock()
}

type simLift struct{ s *Sim }

func (l simLift) Set(speed float64) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.LiftSpeed = speed
	l.s.Lift += speed * SimLiftPerCycle
	switch {
	case l.s.Lift < 0:
		l.s.Lift = 0
	case 1 < l.s.Lift:
		l.s.Lift = 1
	}
}

func (l simLift) AtTop() bool {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return 1 <= l.s.Lift
}

func (l simLift) AtBottom() bool {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.Lift <= 0
}

type simJoint struct{ s *Sim }

func (j simJoint) Set(speed float64) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	j.s.WristSpeed = speed
	j.s.WristAngle += speed * SimDegreesPerCycle
}

func (j simJoint) Angle() float64 {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	return j.s.WristAngle
}

type simGrabber struct{ s *Sim }

func (g simGrabber) SetRollers(speed float64) {
	g.s.mu.Lock()
	g.s.RollerSpeed = speed
	g.s.mu.Unlock()
}

func (g simGrabber) SetClaw(open bool) {
	g.s.mu.Lock()
	g.s.ClawOpen = open
	g.s.mu.Unlock()
}

type simVision struct{ s *Sim }

func (v simVision) TargetOffset() (float64, bool) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.Target, v.s.TargetVisible
}
