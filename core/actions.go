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
)

// FuncBehavior is a Behavior built from optional Go functions.
//
// A nil InitF, ExecuteF, or EndF does nothing.  A nil FinishedF means
// the Behavior never finishes on its own, which is what a default
// command that reads a joystick every cycle wants.
type FuncBehavior struct {
	InitF     func(ctx context.Context)
	ExecuteF  func(ctx context.Context)
	FinishedF func() bool
	EndF      func(ctx context.Context, interrupted bool)
}

func (b *FuncBehavior) Init(ctx context.Context) {
	if b.InitF != nil {
		b.InitF(ctx)
	}
}

func (b *FuncBehavior) Execute(ctx context.Context) {
	if b.ExecuteF != nil {
		b.ExecuteF(ctx)
	}
}

func (b *FuncBehavior) IsFinished() bool {
	if b.FinishedF == nil {
		return false
	}
	return b.FinishedF()
}

func (b *FuncBehavior) End(ctx context.Context, interrupted bool) {
	if b.EndF != nil {
		b.EndF(ctx, interrupted)
	}
}

// Instant makes a Command that runs f at Init and then finishes in the
// same cycle.
func Instant(name string, f func(ctx context.Context), requires ...Resource) *Command {
	return NewCommand(name, &FuncBehavior{
		InitF:     f,
		FinishedF: func() bool { return true },
	}, requires...)
}

// waitCycles finishes after a fixed number of executions.
type waitCycles struct {
	n, count int
}

func (w *waitCycles) Init(ctx context.Context) {
	w.count = 0
}

func (w *waitCycles) Execute(ctx context.Context) {
	w.count++
}

func (w *waitCycles) IsFinished() bool {
	return w.n <= w.count
}

func (w *waitCycles) End(ctx context.Context, interrupted bool) {
}

// WaitCycles makes a Command that finishes on its nth execution.
//
// Cycles are the only clock the core knows about, so this is the way
// to express "hold for a bit" without a timer.
func WaitCycles(name string, n int, requires ...Resource) *Command {
	return NewCommand(name, &waitCycles{n: n}, requires...)
}
