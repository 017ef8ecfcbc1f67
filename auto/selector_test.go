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
	"context"
	"fmt"
	"testing"

	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/subsystems"

	"github.com/stretchr/testify/require"
)

// steps records the primitives a routine runs, in order.
type steps struct {
	log []string
}

func (s *steps) step(r core.Resource, format string, args ...interface{}) *core.Command {
	name := fmt.Sprintf(format, args...)
	return core.Instant(name, func(context.Context) { s.log = append(s.log, name) }, r)
}

func (s *steps) DriveStraight(inches, speed float64) *core.Command {
	return s.step(subsystems.Drive, "drive %v", inches)
}

func (s *steps) Turn(degrees, speed float64) *core.Command {
	return s.step(subsystems.Drive, "turn %v", degrees)
}

func (s *steps) MoveWrist(angle, speed float64) *core.Command {
	return s.step(subsystems.Wrist, "wrist %v", angle)
}

func (s *steps) Outtake() *core.Command {
	return s.step(subsystems.Rollers, "outtake")
}

func (s *steps) AlignToTarget(speed float64) *core.Command {
	return s.step(subsystems.Drive, "align")
}

// countingStarter wraps a Scheduler and counts starts.
type countingStarter struct {
	*core.Scheduler
	starts int
}

func (c *countingStarter) Start(cmd *core.Command) error {
	c.starts++
	return c.Scheduler.Start(cmd)
}

func newSelector(t *testing.T) (*Selector, *steps, *countingStarter) {
	prims := &steps{}
	starter := &countingStarter{Scheduler: core.NewScheduler()}
	s := NewSelector(prims, starter, nil)
	require.NoError(t, s.Table.Validate())
	return s, prims, starter
}

func runToEnd(t *testing.T, sched *core.Scheduler, c *core.Command) {
	ctx := context.Background()
	for i := 0; i < 1000 && !c.Status().Terminal(); i++ {
		sched.Run(ctx)
	}
	require.Equal(t, core.Finished, c.Status())
}

func TestParseGameData(t *testing.T) {
	for in, want := range map[string]Side{
		"":    SideUnknown,
		" L":  Right,
		"  ":  Right,
		"LRL": Left,
		"lrl": Left,
		"RLR": Right,
		"X":   Right,
	} {
		require.Equal(t, want, ParseGameData(in), "%q", in)
	}
	require.Equal(t, Left, AutonomousContext{GameData: "LLR"}.Side())
}

func TestMiddleOnLeft(t *testing.T) {
	s, prims, starter := newSelector(t)
	require.NoError(t, s.Choose(Middle))

	c, err := s.Resolve(AutonomousContext{Alliance: "red", Station: 2, GameData: "LRL"})
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, Resolved, s.State())
	require.Equal(t, Plan{Routine: Middle, Direction: Left}, s.Plan())
	require.Equal(t, "place-cube-middle(left)", c.Name)
	require.Equal(t, 1, starter.starts)
	require.True(t, starter.IsScheduled(c))

	runToEnd(t, starter.Scheduler, c)
	require.Equal(t, "turn -45", prims.log[2])
	require.Equal(t, "outtake", prims.log[len(prims.log)-1])
}

func TestMiddleOnRightIsFreshInstance(t *testing.T) {
	s, prims, starter := newSelector(t)
	require.NoError(t, s.Choose(Middle))

	c, err := s.Resolve(AutonomousContext{GameData: "RRL"})
	require.NoError(t, err)
	require.Equal(t, Plan{Routine: Middle, Direction: Right}, s.Plan())

	runToEnd(t, starter.Scheduler, c)
	require.Equal(t, "turn 45", prims.log[2])
	require.Equal(t, "turn -45", prims.log[4])
}

func TestSameSideMismatchFallsBack(t *testing.T) {
	s, prims, starter := newSelector(t)
	require.NoError(t, s.Choose(SameSideRight))

	c, err := s.Resolve(AutonomousContext{GameData: "LRL"})
	require.NoError(t, err)
	require.Equal(t, Plan{Routine: DrivePastBaselineOffset, Direction: Left, Fallback: true}, s.Plan())
	require.Equal(t, "drive-past-baseline-offset(left)", c.Name)
	require.Equal(t, 1, starter.starts)

	runToEnd(t, starter.Scheduler, c)
	require.Equal(t, []string{"drive 24", "turn -45", "drive 48", "turn 45", "drive 96"}, prims.log)
	require.NotContains(t, prims.log, "outtake")
}

func TestFallbackTable(t *testing.T) {
	for _, tc := range []struct {
		chosen RoutineID
		side   Side
		want   Plan
	}{
		{SameSideLeft, Left, Plan{Routine: SameSideLeft, Direction: Left}},
		{SameSideLeft, Right, Plan{Routine: DrivePastBaselineOffset, Direction: Right, Fallback: true}},
		{SameSideRight, Right, Plan{Routine: SameSideRight, Direction: Right}},
		{SideOffsetLeft, Left, Plan{Routine: SideOffsetLeft, Direction: Left}},
		{SideOffsetLeft, Right, Plan{Routine: DrivePastBaseline, Fallback: true}},
		{SideOffsetRight, Left, Plan{Routine: DrivePastBaseline, Fallback: true}},
		{VisionMiddle, Right, Plan{Routine: VisionMiddle, Direction: Right}},
		{DriveStraight, Left, Plan{Routine: DriveStraight}},
		{Turn90, Right, Plan{Routine: Turn90}},
		{None, Left, Plan{Routine: None}},
	} {
		require.Equal(t, tc.want, DefaultTable.Plan(tc.chosen, tc.side), "%s on %s", tc.chosen, tc.side)
	}
}

func TestEmptyContextRunsChosen(t *testing.T) {
	for _, id := range []RoutineID{SameSideRight, Middle, SideOffsetLeft, DriveStraight} {
		s, _, starter := newSelector(t)
		require.NoError(t, s.Choose(id))

		c, err := s.Resolve(AutonomousContext{Station: 1})
		require.NoError(t, err)
		require.NotNil(t, c)
		require.Equal(t, Unmodified(id), s.Plan())
		require.False(t, s.Plan().Fallback)
		require.Equal(t, 1, starter.starts)
	}
}

func TestResolveOnce(t *testing.T) {
	s, _, starter := newSelector(t)
	require.NoError(t, s.Choose(DrivePastBaseline))

	first, err := s.Resolve(AutonomousContext{GameData: "R"})
	require.NoError(t, err)

	_, err = s.Resolve(AutonomousContext{GameData: "R"})
	require.ErrorIs(t, err, ErrAlreadyResolved)
	require.Equal(t, 1, starter.starts)
	require.Same(t, first, s.Command())

	s.Reset()
	require.Equal(t, Unresolved, s.State())
	require.Nil(t, s.Command())

	second, err := s.Resolve(AutonomousContext{GameData: "R"})
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, 2, starter.starts)
}

func TestNoneStartsNothing(t *testing.T) {
	s, _, starter := newSelector(t)
	require.Equal(t, None, s.Chosen())

	c, err := s.Resolve(AutonomousContext{GameData: "L"})
	require.NoError(t, err)
	require.Nil(t, c)
	require.Equal(t, Resolved, s.State())
	require.Equal(t, 0, starter.starts)
}

func TestResolveWhileDisabled(t *testing.T) {
	s, _, starter := newSelector(t)
	require.NoError(t, s.Choose(Turn90))
	starter.Disable()

	_, err := s.Resolve(AutonomousContext{GameData: "L"})
	require.ErrorIs(t, err, core.ErrDisabled)
	require.Equal(t, Unresolved, s.State())
}

func TestChoose(t *testing.T) {
	s, _, _ := newSelector(t)

	var unknown *UnknownRoutine
	require.ErrorAs(t, s.Choose("backflip"), &unknown)
	require.Equal(t, RoutineID("backflip"), unknown.ID)

	require.ErrorAs(t, s.Choose(DrivePastBaselineOffset), &unknown)
	require.Equal(t, None, s.Chosen())

	require.Len(t, Choices(), len(Catalog)-1)
	require.Equal(t, DefaultRoutine, Choices()[0].ID)
}

func TestParseRoutine(t *testing.T) {
	for in, want := range map[string]RoutineID{
		"place-cube-middle":            Middle,
		"  Turn-90 ":                   Turn90,
		"Place Cube: Middle":           Middle,
		"no auto":                      None,
		"Drive Past Baseline (offset)": DrivePastBaselineOffset,
	} {
		got, err := ParseRoutine(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseRoutine("cartwheel")
	require.Error(t, err)
}

func TestTableValidate(t *testing.T) {
	bad := RoutineTable{
		Middle: {Left: {Routine: "park"}},
	}
	var unknown *UnknownRoutine
	require.ErrorAs(t, bad.Validate(), &unknown)
	require.Equal(t, RoutineID("park"), unknown.ID)
}

func TestBuildUnknownPanics(t *testing.T) {
	defer func() {
		x := recover()
		require.NotNil(t, x)
		_, is := x.(*core.ConfigError)
		require.True(t, is, "%T", x)
	}()
	Build(Plan{Routine: "park"}, &steps{})
}

func TestRoutinesOnSim(t *testing.T) {
	for _, id := range []RoutineID{DriveStraight, Turn90, DrivePastBaseline, SameSideLeft, SideOffsetRight, Middle, VisionMiddle} {
		sim := subsystems.NewSim()
		sim.SetTarget(20, true)
		sched := core.NewScheduler()
		s := NewSelector(sim.Subsystems(), sched, nil)
		require.NoError(t, s.Choose(id))

		c, err := s.Resolve(AutonomousContext{GameData: "LRL"})
		require.NoError(t, err, id)
		runToEnd(t, sched, c)
		require.Empty(t, sched.Running(), id)
	}
}
