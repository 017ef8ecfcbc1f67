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

package sio

import (
	"context"
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

// DefaultDiagnosticsSchedule runs the probe every five seconds.
const DefaultDiagnosticsSchedule = "*/5 * * * * * *"

// Probe samples read-only state for the diagnostics task.
type Probe func(ctx context.Context) (interface{}, error)

// Diagnostic is one probe result.
type Diagnostic struct {
	At     time.Time   `json:"at"`
	Sample interface{} `json:"sample,omitempty"`
	Err    string      `json:"err,omitempty"`
}

// Diagnostics runs a Probe on a cron schedule on its own goroutine.
//
// The Probe must not change anything the cycle loop uses.  A Probe
// that fails or panics is logged and reported, and the task carries
// on.
type Diagnostics struct {
	Probe Probe

	// Emit gets every Diagnostic.  It may be nil.
	Emit func(ctx context.Context, d *Diagnostic)

	Verbose bool

	expr   *cronexpr.Expression
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewDiagnostics parses the cron schedule (with a leading seconds
// field) and makes a Diagnostics.  An empty schedule means
// DefaultDiagnosticsSchedule.
func NewDiagnostics(schedule string, probe Probe, logger *zap.Logger) (*Diagnostics, error) {
	if schedule == "" {
		schedule = DefaultDiagnosticsSchedule
	}
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("diagnostics schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{
		Probe:  probe,
		expr:   expr,
		now:    time.Now,
		logger: logger.Named("diag").Sugar(),
	}, nil
}

func (d *Diagnostics) Logf(format string, args ...interface{}) {
	if !d.Verbose {
		return
	}
	d.logger.Infof(format, args...)
}

// Next returns the next scheduled time after t.
func (d *Diagnostics) Next(t time.Time) time.Time {
	return d.expr.Next(t)
}

// Once runs the Probe immediately and emits the result.
func (d *Diagnostics) Once(ctx context.Context) *Diagnostic {
	diag := d.probe(ctx)
	if d.Emit != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Errorf("emit panic: %v", r)
				}
			}()
			d.Emit(ctx, diag)
		}()
	}
	return diag
}

func (d *Diagnostics) probe(ctx context.Context) (diag *Diagnostic) {
	diag = &Diagnostic{
		At: d.now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			diag.Sample = nil
			diag.Err = fmt.Sprintf("probe panic: %v", r)
			d.logger.Errorf("%s", diag.Err)
		}
	}()

	x, err := d.Probe(ctx)
	if err != nil {
		diag.Err = err.Error()
		d.logger.Errorf("probe: %v", err)
		return
	}
	diag.Sample = x
	return
}

// Run runs the Probe on schedule until the context is done.
func (d *Diagnostics) Run(ctx context.Context) error {
	d.Logf("Diagnostics.Run starting")
	for {
		now := d.now()
		next := d.expr.Next(now)
		if next.IsZero() {
			d.Logf("Diagnostics.Run schedule exhausted")
			return nil
		}
		t := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			d.Logf("Diagnostics.Run done")
			return nil
		case <-t.C:
			d.Once(ctx)
		}
	}
}
