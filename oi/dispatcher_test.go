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
	"context"
	"errors"
	"testing"

	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/subsystems"

	"github.com/stretchr/testify/require"
)

type rig struct {
	t     *testing.T
	ctx   context.Context
	sim   *subsystems.Sim
	sched *core.Scheduler
	d     *Dispatcher
	w     *Wiring
	c     *Controls
}

func newRig(t *testing.T) *rig {
	r := &rig{
		t:     t,
		ctx:   context.Background(),
		sim:   subsystems.NewSim(),
		sched: core.NewScheduler(),
		c:     DefaultControls(),
	}
	r.d = NewDispatcher(r.sched, nil, nil)
	w, err := Wire(r.d, r.c, r.sim.Subsystems(), nil)
	require.NoError(t, err)
	r.w = w
	return r
}

func (r *rig) cycle(s *core.InputState) *core.Report {
	r.d.Poll(s)
	return r.sched.Run(r.ctx)
}

func (r *rig) idle(n int) {
	for i := 0; i < n; i++ {
		r.cycle(core.EmptyInputState())
	}
}

func dpad(angle int) *core.InputState {
	return core.NewInputState(nil, nil, map[string]int{"attach.pov": angle})
}

func stick(x float64) *core.InputState {
	return core.NewInputState(map[string]float64{"attach.lstick-y": x}, nil, nil)
}

func press(button string) *core.InputState {
	return core.NewInputState(nil, map[string]bool{button: true}, nil)
}

func TestStickCancelsOnePressElevator(t *testing.T) {
	r := newRig(t)
	r.idle(2)

	r.cycle(dpad(0))
	up := r.w.ElevatorUp.Current()
	require.NotNil(t, up)
	r.cycle(dpad(core.POVNone))
	require.True(t, up.IsRunning())

	for i := 0; i < 20; i++ {
		r.cycle(stick(-0.6))
	}

	require.Equal(t, core.Canceled, up.Status())
	require.Equal(t, 1, r.w.ElevatorUp.Cancels())
	require.Equal(t, 0, r.w.ElevatorDown.Cancels())

	// The analog default took over again.
	owner := r.sched.Owner(subsystems.Elevator)
	require.NotNil(t, owner)
	require.Equal(t, "elevator-analog", owner.Name)
}

func TestPressRightAfterCancelSkipsDefault(t *testing.T) {
	r := newRig(t)
	r.idle(2)

	r.cycle(dpad(0))
	first := r.w.ElevatorUp.Current()
	r.cycle(dpad(core.POVNone))
	require.True(t, first.IsRunning())

	rep := r.cycle(stick(-0.6))
	require.Equal(t, core.Canceled, first.Status())
	require.Equal(t, 1, rep.Count(core.EventDefault))

	rep = r.cycle(dpad(0))
	second := r.w.ElevatorUp.Current()
	require.NotSame(t, first, second)
	require.Equal(t, 0, rep.Count(core.EventPreempt), "%#v", rep)
	require.Equal(t, 1, rep.Count(core.EventDrop))
	require.Same(t, second, r.sched.Owner(subsystems.Elevator))
}

func TestCancelRuleSameCycleAsPress(t *testing.T) {
	r := newRig(t)
	r.idle(2)

	both := core.NewInputState(map[string]float64{"attach.lstick-y": 0.9}, nil, map[string]int{"attach.pov": 0})
	r.cycle(both)
	up := r.w.ElevatorUp.Current()
	require.NotNil(t, up)
	require.True(t, up.IsRunning())
	require.Equal(t, 0, r.w.ElevatorUp.Cancels(), "not running yet when the rule looked")

	r.cycle(both)
	require.Equal(t, core.Canceled, up.Status())
	require.Equal(t, 1, r.w.ElevatorUp.Cancels())
}

func TestCancelRuleIgnoresEndedCommand(t *testing.T) {
	r := newRig(t)
	r.idle(2)

	r.cycle(dpad(0))
	up := r.w.ElevatorUp.Current()
	for i := 0; i < 100 && !up.Status().Terminal(); i++ {
		r.cycle(dpad(core.POVNone))
	}
	require.Equal(t, core.Finished, up.Status())

	r.idle(1)
	for i := 0; i < 5; i++ {
		r.cycle(stick(1))
	}
	require.Equal(t, 0, r.w.ElevatorUp.Cancels())
	require.Equal(t, core.Finished, up.Status())
}

func TestFreshInstancePerPress(t *testing.T) {
	r := newRig(t)
	r.idle(2)

	r.cycle(dpad(0))
	first := r.w.ElevatorUp.Current()
	r.cycle(stick(1)) // cancel
	r.idle(1)
	r.cycle(dpad(0))
	second := r.w.ElevatorUp.Current()

	require.NotSame(t, first, second)
	require.NotEqual(t, first.Id, second.Id)
	require.Equal(t, core.Canceled, first.Status())
	require.Equal(t, 2, r.w.ElevatorUp.Starts())
}

func TestToggles(t *testing.T) {
	r := newRig(t)

	var seen []bool
	r.d.Settings.OnDebugChange = func(debug bool) { seen = append(seen, debug) }

	r.idle(1)
	for i := 0; i < 4; i++ {
		r.cycle(press("driver.start"))
	}
	require.True(t, r.d.Settings.Debug())

	r.idle(1)
	r.cycle(press("driver.start"))
	require.False(t, r.d.Settings.Debug())
	require.Equal(t, []bool{true, false}, seen)

	r.cycle(press("driver.back"))
	r.cycle(press("driver.x"))
	snap := r.d.Settings.Snapshot()
	require.Equal(t, Snapshot{Debug: false, Ramping: true, Precision: true}, snap)
}

func TestGearShiftAndIntake(t *testing.T) {
	r := newRig(t)
	r.idle(1)

	r.cycle(press("driver.rbumper"))
	require.Equal(t, subsystems.GearFast, r.sim.Snapshot().Gear)
	r.cycle(press("driver.lbumper"))
	require.Equal(t, subsystems.GearSlow, r.sim.Snapshot().Gear)

	r.cycle(press("attach.rbumper"))
	require.True(t, r.sim.Snapshot().ClawOpen)
	r.cycle(press("attach.lbumper"))
	require.False(t, r.sim.Snapshot().ClawOpen)
}

func TestWhileHeldAlign(t *testing.T) {
	r := newRig(t)
	r.sim.SetTarget(90, true)
	r.idle(2)

	for i := 0; i < 3; i++ {
		r.cycle(press("driver.a"))
	}
	align := r.w.Align.Current()
	require.NotNil(t, align)
	require.True(t, align.IsRunning())
	require.Equal(t, 1, r.w.Align.Starts())

	r.cycle(core.EmptyInputState())
	r.cycle(core.EmptyInputState())
	require.Equal(t, core.Canceled, align.Status())
	require.Equal(t, "teleop-drive", r.sched.Owner(subsystems.Drive).Name)
}

func TestControlsParse(t *testing.T) {
	c, err := ParseControls([]byte("elevator: attach.rstick-x\ndeadzone: 0.2\nconditions:\n  debug: \"button('driver.guide')\"\n"))
	require.NoError(t, err)
	require.Equal(t, "attach.rstick-x", c.Elevator)
	require.Equal(t, 0.2, c.Deadzone)
	require.Equal(t, "driver.lstick-y", c.FwdRev)
	require.Equal(t, "button('driver.guide')", c.Conditions["debug"])

	c, err = ParseControls([]byte(`{"fastGear":"driver.y"}`))
	require.NoError(t, err)
	require.Equal(t, "driver.y", c.FastGear)

	_, err = ParseControls([]byte(`{"fastGear":""}`))
	require.Error(t, err)

	_, err = ParseControls([]byte("deadzone: 1.5\n"))
	require.Error(t, err)

	require.Len(t, DefaultControls().Reference(), 17)
}

type fakeCompiler map[string]core.Condition

func (f fakeCompiler) CompileCondition(name, src string) (core.Condition, error) {
	c, have := f[src]
	if !have {
		return nil, errors.New("bad script")
	}
	return c, nil
}

func TestWireScriptedConditions(t *testing.T) {
	c := DefaultControls()
	c.Conditions = map[string]string{"debug": "guide"}

	_, err := Wire(NewDispatcher(core.NewScheduler(), nil, nil), c, subsystems.NewSim().Subsystems(), nil)
	require.Error(t, err)

	_, err = Wire(NewDispatcher(core.NewScheduler(), nil, nil), c, subsystems.NewSim().Subsystems(), fakeCompiler{})
	require.Error(t, err)

	d := NewDispatcher(core.NewScheduler(), nil, nil)
	_, err = Wire(d, c, subsystems.NewSim().Subsystems(), fakeCompiler{"guide": core.Button("driver.guide")})
	require.NoError(t, err)

	d.Poll(core.EmptyInputState())
	d.Poll(press("driver.start"))
	require.False(t, d.Settings.Debug())
	d.Poll(press("driver.guide"))
	require.True(t, d.Settings.Debug())
}
