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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frc6135/botcore/auto"
)

func TestParseChoice(t *testing.T) {
	for in, want := range map[string]auto.RoutineID{
		"place-cube-middle\n":                     auto.Middle,
		"# operator pick\n\n  Turn 90 degrees \n": auto.Turn90,
	} {
		got, err := ParseChoice([]byte(in))
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("%q gave %s", in, got)
		}
	}
	for _, in := range []string{"", "# nothing\n", "somersault\n"} {
		if _, err := ParseChoice([]byte(in)); err == nil {
			t.Fatalf("%q should fail", in)
		}
	}
}

func TestFileChooser(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "auto.txt")
	write := func(s string) {
		if err := os.WriteFile(filename, []byte(s), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("Place Cube: Middle\n")

	sel := auto.NewSelector(nil, nil, nil)
	fc := NewFileChooser(filename, sel, nil)
	fc.Debounce = 10 * time.Millisecond

	loaded := make(chan auto.RoutineID, 8)
	fc.OnChoose = func(id auto.RoutineID, err error) {
		if err == nil {
			loaded <- id
		}
	}

	// Fallback-only routines can't be chosen.
	write("drive-past-baseline-offset\n")
	if _, err := fc.Load(); err == nil {
		t.Fatal("fallback routine chosen")
	}
	write("Place Cube: Middle\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- fc.Run(ctx)
	}()

	wait := func(want auto.RoutineID) {
		for {
			select {
			case id := <-loaded:
				if id == want {
					return
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("never chose %s", want)
			}
		}
	}
	wait(auto.Middle)
	if sel.Chosen() != auto.Middle {
		t.Fatal(sel.Chosen())
	}

	write("turn-90\n")
	wait(auto.Turn90)
	if sel.Chosen() != auto.Turn90 {
		t.Fatal(sel.Chosen())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
