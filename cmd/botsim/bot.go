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

package main

import (
	"context"
	"fmt"

	"github.com/frc6135/botcore/auto"
	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/interpreters/goja"
	"github.com/frc6135/botcore/oi"
	"github.com/frc6135/botcore/sio"
	"github.com/frc6135/botcore/subsystems"

	"go.uber.org/zap"
)

// Bot is a simulated robot and the tasks that run beside its cycle
// loop.
type Bot struct {
	Sim         *subsystems.Sim
	Robot       *sio.Robot
	Wiring      *oi.Wiring
	Telemetry   *sio.Telemetry
	Diagnostics *sio.Diagnostics
}

// Sample is what the diagnostics task reports.
type Sample struct {
	Status   sio.Status          `json:"status"`
	Readings subsystems.Readings `json:"readings"`
}

// NewBot wires a Sim-backed Robot according to the Config.  libDir,
// if not empty, is where "file://" script libraries are found.
func NewBot(conf *Config, libDir string, verbose bool, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sim := subsystems.NewSim()
	if conf.Target != nil {
		sim.SetTarget(conf.Target.Offset, conf.Target.Visible)
	}
	subs := sim.Subsystems()

	d := oi.NewDispatcher(core.NewScheduler(), nil, logger)
	d.Verbose = verbose

	interp := goja.NewInterpreter(logger)
	interp.Libraries = conf.Libraries
	if libDir != "" {
		interp.LibraryProvider = goja.MakeFileLibraryProvider(libDir)
	}

	wiring, err := oi.Wire(d, conf.Controls, subs, interp)
	if err != nil {
		return nil, err
	}

	sel := auto.NewSelector(subs, d.Scheduler, logger)
	sel.Verbose = verbose
	if conf.Routine != "" {
		id, err := auto.ParseRoutine(conf.Routine)
		if err != nil {
			return nil, err
		}
		if err = sel.Choose(id); err != nil {
			return nil, err
		}
	}

	robot := sio.NewRobot(d, sel, logger)
	robot.Verbose = verbose

	tel := sio.NewTelemetry(logger)
	tel.Verbose = verbose
	robot.Tee = func(o *sio.Output) {
		tel.Publish(o)
	}

	d.Settings.OnDebugChange = func(debug bool) {
		st := robot.Status()
		st.Settings = d.Settings.Snapshot()
		tel.Publish(&sio.Output{
			Status:   &st,
			Tunables: Tunables(),
		})
	}

	probe := func(ctx context.Context) (interface{}, error) {
		return &Sample{
			Status:   robot.Status(),
			Readings: sim.Snapshot(),
		}, nil
	}
	diag, err := sio.NewDiagnostics(conf.Diagnostics, probe, logger)
	if err != nil {
		return nil, err
	}
	diag.Verbose = verbose
	diag.Emit = func(ctx context.Context, dg *sio.Diagnostic) {
		if dg.Err != "" {
			logger.Warn("diagnostic", zap.String("err", dg.Err))
		}
		tel.Publish(&sio.Output{Diag: dg})
	}

	return &Bot{
		Sim:         sim,
		Robot:       robot,
		Wiring:      wiring,
		Telemetry:   tel,
		Diagnostics: diag,
	}, nil
}

// Tunables reports the adjustable constants of the subsystems and
// the autonomous routines.
func Tunables() map[string]float64 {
	return map[string]float64{
		"elevatorDeadzone": subsystems.ElevatorDeadzone,
		"wristDeadzone":    subsystems.WristDeadzone,
		"driveDeadzone":    subsystems.DriveDeadzone,
		"precisionScale":   subsystems.PrecisionScale,
		"rampStep":         subsystems.RampStep,
		"scaleWristAngle":  subsystems.ScaleWristAngle,
		"wristTolerance":   subsystems.WristTolerance,
		"headingTolerance": subsystems.HeadingTolerance,
		"alignTolerance":   subsystems.AlignTolerance,
		"outtakeCycles":    float64(subsystems.OuttakeCycles),
		"baselineInches":   auto.BaselineInches,
		"switchInches":     auto.SwitchInches,
		"switchWristAngle": auto.SwitchWristAngle,
		"driveSpeed":       auto.DriveSpeed,
		"turnSpeed":        auto.TurnSpeed,
	}
}

// Describe summarizes the Bot for the startup log.
func (b *Bot) Describe() string {
	return fmt.Sprintf("routine %s, %d bindings", b.Robot.Selector.Chosen(), len(b.Wiring.Triggers))
}
