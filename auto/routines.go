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

package auto

import (
	"sort"
	"strings"

	"github.com/frc6135/botcore/core"
)

// RoutineID names an autonomous routine.  Routine choices are always
// compared by RoutineID.
type RoutineID string

const (
	None                    RoutineID = "none"
	DriveStraight           RoutineID = "drive-straight"
	Turn90                  RoutineID = "turn-90"
	DrivePastBaseline       RoutineID = "drive-past-baseline"
	DrivePastBaselineOffset RoutineID = "drive-past-baseline-offset"
	SameSideLeft            RoutineID = "place-cube-same-side-left"
	SameSideRight           RoutineID = "place-cube-same-side-right"
	SideOffsetLeft          RoutineID = "place-cube-side-offset-left"
	SideOffsetRight         RoutineID = "place-cube-side-offset-right"
	Middle                  RoutineID = "place-cube-middle"
	VisionMiddle            RoutineID = "vision-middle"
)

// Routine is a catalog entry.
type Routine struct {
	ID    RoutineID `json:"id"`
	Label string    `json:"label"`

	// Direction is the configuration the routine has when it's
	// chosen, before any match context is known.
	Direction Side `json:"-"`

	// FallbackOnly routines are never offered to the operator.
	FallbackOnly bool `json:"-"`
}

// Catalog lists every routine in chooser order.
var Catalog = []Routine{
	{ID: None, Label: "No Auto"},
	{ID: DriveStraight, Label: "Drive straight distance"},
	{ID: Turn90, Label: "Turn 90 degrees"},
	{ID: DrivePastBaseline, Label: "Drive Past Baseline"},
	{ID: SameSideLeft, Label: "Place Cube (Aligned with switch): Left", Direction: Left},
	{ID: SameSideRight, Label: "Place Cube (Aligned with switch): Right", Direction: Right},
	{ID: SideOffsetLeft, Label: "Place Cube (From side): Left", Direction: Left},
	{ID: SideOffsetRight, Label: "Place Cube (From side): Right", Direction: Right},
	{ID: Middle, Label: "Place Cube: Middle", Direction: Left},
	{ID: VisionMiddle, Label: "Place Cube With Vision: Middle", Direction: Left},
	{ID: DrivePastBaselineOffset, Label: "Drive Past Baseline (offset)", FallbackOnly: true},
}

// DefaultRoutine is chosen until the operator picks something else.
const DefaultRoutine = None

// Lookup finds a routine in the Catalog.
func Lookup(id RoutineID) (Routine, bool) {
	for _, r := range Catalog {
		if r.ID == id {
			return r, true
		}
	}
	return Routine{}, false
}

// Choices returns the routines an operator may choose.
func Choices() []Routine {
	acc := make([]Routine, 0, len(Catalog))
	for _, r := range Catalog {
		if !r.FallbackOnly {
			acc = append(acc, r)
		}
	}
	return acc
}

// ParseRoutine accepts a routine id or a chooser label, ignoring case
// and surrounding space.
func ParseRoutine(s string) (RoutineID, error) {
	s = strings.TrimSpace(s)
	for _, r := range Catalog {
		if strings.EqualFold(s, string(r.ID)) || strings.EqualFold(s, r.Label) {
			return r.ID, nil
		}
	}
	return "", &UnknownRoutine{RoutineID(s)}
}

// Plan is a resolved routine: what to build and which way it goes.
type Plan struct {
	Routine   RoutineID `json:"routine"`
	Direction Side      `json:"-"`

	// Fallback is true when Routine replaced the chosen one.
	Fallback bool `json:"fallback,omitempty"`
}

func (p Plan) String() string {
	if p.Direction == SideUnknown {
		return string(p.Routine)
	}
	return string(p.Routine) + "(" + p.Direction.String() + ")"
}

// RoutineTable maps (chosen routine, discovered side) to a Plan.
// Routines without a row are side agnostic.
type RoutineTable map[RoutineID]map[Side]Plan

// DefaultTable is the table for the 2018 field.
var DefaultTable = RoutineTable{
	Middle: {
		Left:  {Routine: Middle, Direction: Left},
		Right: {Routine: Middle, Direction: Right},
	},
	VisionMiddle: {
		Left:  {Routine: VisionMiddle, Direction: Left},
		Right: {Routine: VisionMiddle, Direction: Right},
	},
	SameSideLeft: {
		Left:  {Routine: SameSideLeft, Direction: Left},
		Right: {Routine: DrivePastBaselineOffset, Direction: Right, Fallback: true},
	},
	SameSideRight: {
		Left:  {Routine: DrivePastBaselineOffset, Direction: Left, Fallback: true},
		Right: {Routine: SameSideRight, Direction: Right},
	},
	SideOffsetLeft: {
		Left:  {Routine: SideOffsetLeft, Direction: Left},
		Right: {Routine: DrivePastBaseline, Fallback: true},
	},
	SideOffsetRight: {
		Left:  {Routine: DrivePastBaseline, Fallback: true},
		Right: {Routine: SideOffsetRight, Direction: Right},
	},
}

// Unmodified is the Plan that runs the routine as chosen.
func Unmodified(id RoutineID) Plan {
	r, _ := Lookup(id)
	return Plan{Routine: id, Direction: r.Direction}
}

// Plan resolves the chosen routine for the side.  An unknown side, or
// a routine or side without an entry, gives Unmodified(chosen).
func (t RoutineTable) Plan(chosen RoutineID, side Side) Plan {
	if side == SideUnknown {
		return Unmodified(chosen)
	}
	if p, have := t[chosen][side]; have {
		return p
	}
	return Unmodified(chosen)
}

// Validate checks that every row and every Plan names a catalog
// routine.
func (t RoutineTable) Validate() error {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, have := Lookup(RoutineID(id)); !have {
			return &UnknownRoutine{RoutineID(id)}
		}
		for _, p := range t[RoutineID(id)] {
			if _, have := Lookup(p.Routine); !have {
				return &UnknownRoutine{p.Routine}
			}
		}
	}
	return nil
}

// Primitives makes the steps routines are built from.
// *subsystems.Subsystems implements it.
type Primitives interface {
	DriveStraight(inches, speed float64) *core.Command
	Turn(degrees, speed float64) *core.Command
	MoveWrist(angle, speed float64) *core.Command
	Outtake() *core.Command
	AlignToTarget(speed float64) *core.Command
}

// Field geometry, in inches and degrees.
var (
	BaselineInches   = 120.0
	SwitchInches     = 150.0
	SwitchWristAngle = 30.0
	DriveSpeed       = 0.6
	TurnSpeed        = 0.75
)

// Build makes a fresh Command for the Plan, or nil for None.
//
// A Plan naming a routine that isn't in the Catalog is a programming
// error and panics with a *core.ConfigError.
func Build(p Plan, prims Primitives) *core.Command {
	dir := p.Direction
	if dir == SideUnknown {
		r, _ := Lookup(p.Routine)
		dir = r.Direction
	}
	s := dir.sign()
	name := p.String()

	// Every placing routine brings the wrist down while it drives
	// off.
	leave := func(inches float64) *core.Command {
		return core.Parallel("leave", core.WaitAll,
			prims.DriveStraight(inches, DriveSpeed),
			prims.MoveWrist(SwitchWristAngle, 0.5))
	}

	switch p.Routine {
	case None:
		return nil
	case DriveStraight:
		return core.Sequence(name, prims.DriveStraight(30, 0.5))
	case Turn90:
		return core.Sequence(name, prims.Turn(90, TurnSpeed))
	case DrivePastBaseline:
		return core.Sequence(name, prims.DriveStraight(BaselineInches, DriveSpeed))
	case DrivePastBaselineOffset:
		return core.Sequence(name,
			prims.DriveStraight(24, DriveSpeed),
			prims.Turn(s*45, TurnSpeed),
			prims.DriveStraight(48, DriveSpeed),
			prims.Turn(-s*45, TurnSpeed),
			prims.DriveStraight(BaselineInches-24, DriveSpeed))
	case SameSideLeft, SameSideRight:
		// The switch plate is toward the middle of the field.
		return core.Sequence(name,
			leave(SwitchInches),
			prims.Turn(-s*90, TurnSpeed),
			prims.DriveStraight(18, 0.4),
			prims.Outtake())
	case SideOffsetLeft, SideOffsetRight:
		return core.Sequence(name,
			leave(40),
			prims.Turn(-s*30, TurnSpeed),
			prims.DriveStraight(70, DriveSpeed),
			prims.Turn(s*30, TurnSpeed),
			prims.DriveStraight(20, 0.4),
			prims.Outtake())
	case Middle:
		return core.Sequence(name,
			leave(20),
			prims.Turn(s*45, TurnSpeed),
			prims.DriveStraight(60, DriveSpeed),
			prims.Turn(-s*45, TurnSpeed),
			prims.DriveStraight(30, 0.4),
			prims.Outtake())
	case VisionMiddle:
		return core.Sequence(name,
			leave(20),
			prims.Turn(s*45, TurnSpeed),
			prims.DriveStraight(48, DriveSpeed),
			prims.Turn(-s*45, TurnSpeed),
			prims.AlignToTarget(0.4),
			prims.DriveStraight(36, 0.4),
			prims.Outtake())
	}
	panic(&core.ConfigError{Command: name, Problem: "no such autonomous routine"})
}
