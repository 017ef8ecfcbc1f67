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

// Package sio couples a Robot to the outside world.
//
// A Robot is the phase glue around the decision core: it accepts
// phase changes and per-cycle input (from Couplings), runs the
// Dispatcher and Scheduler, and emits Outputs.  This package also
// has a stdio Couplings, a diagnostics task, a file-backed routine
// chooser, and a WebSocket telemetry server.
package sio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/frc6135/botcore/auto"
	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/oi"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Robot owns the Scheduler, Dispatcher, and Selector for one process.
//
// Periodic and the phase methods must be called from one goroutine
// (Loop does that).  Status may be called from anywhere.
type Robot struct {
	Scheduler  *core.Scheduler
	Dispatcher *oi.Dispatcher
	Selector   *auto.Selector

	// Recorder, if not nil, gets every cycle's Report from
	// RecordLoop, off the cycle.  Loop runs RecordLoop itself.
	Recorder Recorder

	// Tee, if not nil, sees every Output that Loop emits.
	Tee func(*Output)

	// HaltOnInputEOF makes Loop return when the input is
	// exhausted.
	HaltOnInputEOF bool

	// Verbose turns on logging.
	Verbose bool

	logger *zap.SugaredLogger

	records chan recorded
	dropped atomic.Uint64

	sync.Mutex
	status Status
}

// RecordBuffer is the number of Reports that can wait for the
// Recorder.  When it's full, Periodic drops the cycle's Report.
var RecordBuffer = 256

type recorded struct {
	match  string
	report *core.Report
}

// NewRobot makes a Robot in the Disabled phase.  A nil logger is
// replaced with a no-op logger.
func NewRobot(d *oi.Dispatcher, sel *auto.Selector, logger *zap.Logger) *Robot {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Robot{
		Scheduler:  d.Scheduler,
		Dispatcher: d,
		Selector:   sel,
		logger:     logger.Named("robot").Sugar(),
		records:    make(chan recorded, RecordBuffer),
	}
	r.Scheduler.Disable()
	r.status.Phase = Disabled
	r.status.Chosen = sel.Chosen()
	return r
}

func (r *Robot) Logf(format string, args ...interface{}) {
	if !r.Verbose {
		return
	}
	r.logger.Infof(format, args...)
}

func (r *Robot) Errorf(format string, args ...interface{}) {
	r.logger.Errorf(format, args...)
}

// Status returns a copy of the Robot's status as of the end of the
// last cycle or phase change.
func (r *Robot) Status() Status {
	r.Lock()
	defer r.Unlock()
	s := r.status
	s.Running = append([]string(nil), r.status.Running...)
	return s
}

func (r *Robot) update(f func(s *Status)) {
	r.Lock()
	f(&r.status)
	r.Unlock()
}

// Phase returns the current phase.
func (r *Robot) Phase() Phase {
	r.Lock()
	defer r.Unlock()
	return r.status.Phase
}

// OnAutonomousStart enables the Scheduler, resolves and starts the
// chosen autonomous routine, and starts a new match.
//
// The returned Command is nil when the routine is "none".  When
// resolution fails, the status and the Scheduler are left as they
// were.
func (r *Robot) OnAutonomousStart(ctx context.Context, ac auto.AutonomousContext) (*core.Command, error) {
	wasEnabled := r.Scheduler.Enabled()
	r.Scheduler.Enable()

	c, err := r.Selector.Resolve(ac)
	if err != nil {
		if !wasEnabled {
			r.Scheduler.Disable()
		}
		r.Errorf("autonomous start: %v", err)
		return nil, err
	}

	match := uuid.NewString()
	plan := r.Selector.Plan().String()
	r.update(func(s *Status) {
		s.Phase = Autonomous
		s.Match = match
		s.Plan = plan
	})
	r.Logf("autonomous start match %s plan %s", match, plan)
	return c, nil
}

// OnTeleopStart enables the Scheduler and cancels the autonomous
// Command if it's still going.
func (r *Robot) OnTeleopStart(ctx context.Context) {
	r.Scheduler.Enable()
	if c := r.Selector.Command(); c != nil && !c.Status().Terminal() {
		r.Logf("teleop start canceling %s", c.Name)
		r.Scheduler.Cancel(c)
	}
	r.update(func(s *Status) {
		s.Phase = Teleop
		if s.Match == "" {
			s.Match = uuid.NewString()
		}
	})
}

// OnDisabledStart disables the Scheduler, which cancels every Command
// that doesn't run when disabled, and readies the Selector for the
// next match.
func (r *Robot) OnDisabledStart(ctx context.Context) {
	r.Scheduler.Disable()
	r.Selector.Reset()
	r.update(func(s *Status) {
		s.Phase = Disabled
	})
}

// Periodic runs one cycle: the Dispatcher polls the snapshot and then
// the Scheduler runs.
func (r *Robot) Periodic(ctx context.Context, in *core.InputState) *core.Report {
	r.Dispatcher.Poll(in)
	rep := r.Scheduler.Run(ctx)

	settings := r.Dispatcher.Settings.Snapshot()
	var match string
	r.update(func(s *Status) {
		s.Cycle = rep.Cycle
		s.Running = rep.Running
		s.Settings = settings
		match = s.Match
	})

	if r.Recorder != nil {
		select {
		case r.records <- recorded{match, rep}:
		default:
			r.dropped.Add(1)
			r.logger.Warnf("match log behind, dropped cycle %d", rep.Cycle)
		}
	}

	return rep
}

// Dropped returns the number of Reports Periodic couldn't queue for
// the Recorder.
func (r *Robot) Dropped() uint64 {
	return r.dropped.Load()
}

// RecordLoop hands queued Reports to the Recorder until the context
// is done, and then records whatever is still queued.
func (r *Robot) RecordLoop(ctx context.Context) error {
	record := func(ctx context.Context, rec recorded) {
		if err := r.Recorder.Record(ctx, rec.match, rec.report); err != nil {
			r.Errorf("recording cycle %d: %v", rec.report.Cycle, err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			flush := context.WithoutCancel(ctx)
			for {
				select {
				case rec := <-r.records:
					record(flush, rec)
				default:
					return nil
				}
			}
		case rec := <-r.records:
			record(ctx, rec)
		}
	}
}

// ProcessMsg handles one in-bound Msg.
func (r *Robot) ProcessMsg(ctx context.Context, m *Msg) (*Output, error) {
	if m.bad != nil {
		return nil, m.bad
	}
	r.Logf("ProcessMsg %s", Abbrev(JS(m), 73))

	out := &Output{}

	if m.Choose != "" {
		id, err := auto.ParseRoutine(m.Choose)
		if err == nil {
			err = r.Selector.Choose(id)
		}
		if err != nil {
			return nil, err
		}
		r.update(func(s *Status) {
			s.Chosen = id
		})
		out.Status = &Status{}
	}

	if m.Phase != "" {
		p, err := ParsePhase(m.Phase)
		if err != nil {
			return nil, err
		}
		if p == r.Phase() {
			r.Logf("already %s", p)
		} else {
			switch p {
			case Autonomous:
				if _, err = r.OnAutonomousStart(ctx, m.AutonomousContext); err != nil {
					return nil, fmt.Errorf("autonomous start: %w", err)
				}
			case Teleop:
				r.OnTeleopStart(ctx)
			case Disabled:
				r.OnDisabledStart(ctx)
			}
		}
		out.Status = &Status{}
	}

	if m.Input != nil {
		out.Report = r.Periodic(ctx, m.Input)
	}

	if out.Status != nil {
		*out.Status = r.Status()
	}

	return out, nil
}

// Loop processes Msgs from the Couplings until the context is done,
// the input channel is closed, or (with HaltOnInputEOF) the input is
// exhausted.
func (r *Robot) Loop(ctx context.Context, c Couplings) error {
	in, out, done, err := c.IO(ctx)
	if err != nil {
		return err
	}

	emit := func(o *Output) {
		if r.Tee != nil {
			r.Tee(o)
		}
		select {
		case <-ctx.Done():
		case out <- o:
		}
	}

	if r.Recorder != nil {
		rctx, stop := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RecordLoop(rctx)
		}()
		defer func() {
			stop()
			wg.Wait()
		}()
	}

	r.Logf("Robot.Loop starting")
LOOP:
	for {
		select {
		case <-done:
			if r.HaltOnInputEOF {
				r.Logf("Robot.Loop shutting down (done)")
				break LOOP
			}
			done = nil
		case <-ctx.Done():
			r.Logf("Robot.Loop shutting down (ctx.Done)")
			break LOOP
		case m := <-in:
			if m == nil {
				break LOOP
			}
			o, err := r.ProcessMsg(ctx, m)
			if err != nil {
				r.Errorf("Robot.Loop ProcessMsg: %v", err)
				o = &Output{Error: err.Error()}
			}
			emit(o)
		}
	}

	r.Logf("Robot.Loop done")
	return nil
}
