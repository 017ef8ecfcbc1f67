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
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDiagnosticsOnce(t *testing.T) {
	ctx := context.Background()

	var emitted []*Diagnostic
	emit := func(ctx context.Context, d *Diagnostic) {
		emitted = append(emitted, d)
	}

	for _, tc := range []struct {
		probe Probe
		err   string
	}{
		{func(context.Context) (interface{}, error) { return "ok", nil }, ""},
		{func(context.Context) (interface{}, error) { return nil, errors.New("no camera") }, "no camera"},
		{func(context.Context) (interface{}, error) { panic("sensor fell off") }, "probe panic: sensor fell off"},
	} {
		d, err := NewDiagnostics("", tc.probe, nil)
		if err != nil {
			t.Fatal(err)
		}
		d.Emit = emit
		got := d.Once(ctx)
		if got.Err != tc.err {
			t.Fatalf("got %q, wanted %q", got.Err, tc.err)
		}
	}
	if len(emitted) != 3 || emitted[0].Sample != "ok" {
		t.Fatalf("emitted %s", JS(emitted))
	}
}

func TestDiagnosticsEmitPanic(t *testing.T) {
	d, err := NewDiagnostics("", func(context.Context) (interface{}, error) { return 1, nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	d.Emit = func(context.Context, *Diagnostic) { panic("dashboard gone") }
	if got := d.Once(context.Background()); got.Sample != 1 {
		t.Fatal(JS(got))
	}
}

func TestDiagnosticsSchedule(t *testing.T) {
	if _, err := NewDiagnostics("every now and then", nil, nil); err == nil {
		t.Fatal("bad schedule accepted")
	}

	d, err := NewDiagnostics("", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	from := time.Date(2018, 3, 3, 10, 0, 1, 0, time.UTC)
	if next := d.Next(from); !next.Equal(from.Add(4 * time.Second)) {
		t.Fatalf("next %v", next)
	}
}

func TestDiagnosticsRun(t *testing.T) {
	probed := make(chan bool, 8)
	d, err := NewDiagnostics("* * * * * * *", func(context.Context) (interface{}, error) {
		select {
		case probed <- true:
		default:
		}
		return nil, nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- d.Run(ctx)
	}()

	select {
	case <-probed:
	case <-time.After(3 * time.Second):
		t.Fatal("probe didn't run")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestDiagnosticsProbeSeesStatus(t *testing.T) {
	r := newTestRobot(t)
	d, err := NewDiagnostics("", func(context.Context) (interface{}, error) {
		return r.Status(), nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := d.Once(context.Background())
	if !strings.Contains(JS(got), `"phase":"disabled"`) {
		t.Fatal(JS(got))
	}
}
