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

package core

import (
	"context"
	"testing"
)

func TestSequence(t *testing.T) {
	ctx := context.Background()
	j := &journal{}

	a, ar := newRecorded("a", j, 1, "drive")
	b, br := newRecorded("b", j, 2, "elevator")
	seq := Sequence("place", a, b)

	rs := seq.Requires()
	if len(rs) != 2 || rs[0] != "drive" || rs[1] != "elevator" {
		t.Fatalf("requires %v", rs)
	}

	s := NewScheduler()
	if err := s.Start(a); err == nil {
		t.Fatal("child started on its own")
	}
	if err := s.Start(seq); err != nil {
		t.Fatal(err)
	}

	s.Run(ctx) // a init, exec, end; b init
	if a.Status() != Finished || b.Status() != Running {
		t.Fatalf("%s %s", a, b)
	}
	s.Run(ctx) // b exec 1
	if seq.Status() != Running {
		t.Fatalf("seq %s", seq)
	}
	s.Run(ctx) // b exec 2, finished
	if seq.Status() != Finished || b.Status() != Finished {
		t.Fatalf("seq %s b %s", seq, b)
	}
	if ar.ends != 1 || br.ends != 1 || ar.interrupted || br.interrupted {
		t.Fatalf("%#v %#v", ar, br)
	}
	if s.Owner("drive") != nil || s.Owner("elevator") != nil {
		t.Fatal("resources held after sequence finished")
	}
}

func TestSequenceCanceled(t *testing.T) {
	ctx := context.Background()

	a, ar := newRecorded("a", nil, 0, "drive")
	b, br := newRecorded("b", nil, 1)
	seq := Sequence("seq", a, b)

	s := NewScheduler()
	s.Start(seq)
	s.Run(ctx)

	seq.RequestCancel()
	s.Run(ctx)

	if seq.Status() != Canceled || a.Status() != Canceled || !ar.interrupted {
		t.Fatalf("%s %s", seq, a)
	}
	if b.Status() != Initialized || br.inits != 0 {
		t.Fatalf("b should never have started: %s", b)
	}
}

func TestSequenceChildCancel(t *testing.T) {
	ctx := context.Background()

	a, ar := newRecorded("a", nil, 0)
	b, br := newRecorded("b", nil, 0)
	seq := Sequence("seq", a, b)

	s := NewScheduler()
	s.Start(seq)
	s.Run(ctx)

	a.RequestCancel()
	s.Run(ctx)
	if !ar.interrupted || b.Status() != Running || br.inits != 1 {
		t.Fatalf("a %s b %s", a, b)
	}
	if seq.Status() != Running {
		t.Fatalf("seq %s", seq)
	}
}

func TestParallel(t *testing.T) {
	ctx := context.Background()

	for _, policy := range []Policy{WaitAll, WaitAny} {
		fast, fr := newRecorded("fast", nil, 1, "intake")
		slow, sr := newRecorded("slow", nil, 3, "elevator")
		p := Parallel("both", policy, fast, slow)

		s := NewScheduler()
		s.Start(p)

		s.Run(ctx)
		if fast.Status() != Finished || fr.interrupted {
			t.Fatalf("fast %s", fast)
		}

		switch policy {
		case WaitAny:
			if p.Status() != Finished || slow.Status() != Canceled || !sr.interrupted {
				t.Fatalf("any: p %s slow %s", p, slow)
			}
		case WaitAll:
			if p.Status() != Running {
				t.Fatalf("all: p %s", p)
			}
			s.Run(ctx)
			s.Run(ctx)
			if p.Status() != Finished || slow.Status() != Finished || sr.interrupted {
				t.Fatalf("all: p %s slow %s", p, slow)
			}
		}
	}
}

func expectConfigError(t *testing.T, what string, f func()) {
	t.Helper()
	defer func() {
		x := recover()
		if _, is := x.(*ConfigError); !is {
			t.Fatalf("%s: expected *ConfigError, got %#v", what, x)
		}
	}()
	f()
}

func TestGroupConfigErrors(t *testing.T) {
	expectConfigError(t, "overlap", func() {
		a, _ := newRecorded("a", nil, 1, "drive")
		b, _ := newRecorded("b", nil, 1, "drive")
		Parallel("p", WaitAll, a, b)
	})

	expectConfigError(t, "duplicate", func() {
		a, _ := newRecorded("a", nil, 1)
		Sequence("s", a, a)
	})

	expectConfigError(t, "reuse", func() {
		a, _ := newRecorded("a", nil, 1)
		Sequence("s1", a)
		Sequence("s2", a)
	})

	expectConfigError(t, "started", func() {
		a, _ := newRecorded("a", nil, 1)
		NewScheduler().Start(a)
		Sequence("s", a)
	})

	expectConfigError(t, "nil", func() {
		Sequence("s", nil)
	})

	expectConfigError(t, "nil behavior", func() {
		NewCommand("c", nil)
	})

	expectConfigError(t, "empty resource", func() {
		NewCommand("c", &FuncBehavior{}, "")
	})

	// Sequential children may share resources.
	a, _ := newRecorded("a", nil, 1, "drive")
	b, _ := newRecorded("b", nil, 1, "drive")
	if rs := Sequence("s", a, b).Requires(); len(rs) != 1 {
		t.Fatalf("requires %v", rs)
	}
}

func TestInstantAndWait(t *testing.T) {
	ctx := context.Background()
	s := NewScheduler()

	n := 0
	inst := Instant("bump", func(context.Context) { n++ })
	wait := WaitCycles("wait", 3)
	s.Start(inst)
	s.Start(wait)

	s.Run(ctx)
	if n != 1 || inst.Status() != Finished {
		t.Fatalf("instant %s n %d", inst, n)
	}
	s.Run(ctx)
	if wait.Status() != Running {
		t.Fatalf("wait %s", wait)
	}
	s.Run(ctx)
	if wait.Status() != Finished {
		t.Fatalf("wait %s", wait)
	}
}
