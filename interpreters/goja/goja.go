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

// Package goja compiles scripted trigger conditions using Goja, which
// is a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
//
// A condition script sees these functions:
//
//    axis(name): the named axis reading, 0 if absent.
//    button(name): whether the named button is pressed.
//    pov(name): the named POV angle, -1 if centered or absent.
//    deadzone(x, dz): x if |x| > dz, otherwise 0.
//
// The script is either a single expression or a block with an
// explicit return.  The result is converted to a boolean.
package goja

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/frc6135/botcore/core"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Eval if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout bounds one evaluation of a condition.
	DefaultTimeout = 5 * time.Millisecond
)

// Interpreter compiles condition scripts.
type Interpreter struct {
	// Timeout bounds one evaluation.  Zero means DefaultTimeout.
	Timeout time.Duration

	// Libraries are prepended to every script.  Each name is
	// resolved with LibraryProvider.
	Libraries []string

	// LibraryProvider resolves library names.  If nil,
	// DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, name string) (string, error)

	logger *zap.SugaredLogger
}

// NewInterpreter makes a new Interpreter.  A nil logger is replaced
// with a no-op logger.
func NewInterpreter(logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		logger: logger.Named("goja").Sugar(),
	}
}

// ProvideLibrary resolves the library name into source.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, name)
	}
	return DefaultLibraryProvider(ctx, name)
}

// DefaultLibraryProvider reads "file://" names relative to the
// working directory.
var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider resolves names of the form "file://NAME"
// to the contents of dir/NAME.
func MakeFileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		if parts[0] != "file" {
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
		filename := filepath.Clean(parts[1])
		if strings.HasPrefix(filename, "..") {
			return "", fmt.Errorf("library '%s' outside %s", name, dir)
		}
		bs, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
}

// MakeMapLibraryProvider resolves names from the given map.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapExpr(src string) string {
	return fmt.Sprintf("(function() {\nreturn (%s\n);\n}());\n", src)
}

func wrapBlock(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// Compile compiles the script.  Libraries are compiled in front of
// it.
//
// This method can block if the LibraryProvider blocks.
func (i *Interpreter) Compile(ctx context.Context, name, src string) (*goja.Program, error) {
	var libsSrc string
	for _, lib := range i.Libraries {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", lib, err)
		}
		libsSrc += libSrc + ";\n"
	}

	p, err := goja.Compile(name, libsSrc+wrapExpr(src), true)
	if err == nil {
		return p, nil
	}
	if p, err = goja.Compile(name, libsSrc+wrapBlock(src), true); err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	return p, nil
}

// Condition is a compiled condition script with its own runtime.
//
// A Condition isn't safe for concurrent use.  Triggers are only
// evaluated from the cycle loop.
type Condition struct {
	Name string

	timeout time.Duration
	program *goja.Program
	runtime *goja.Runtime
	state   *core.InputState
	logger  *zap.SugaredLogger

	// mu guards failures, which a telemetry reader may want.
	mu       sync.Mutex
	failures int
	last     error
}

// NewCondition compiles the script and prepares a runtime for it.
func (i *Interpreter) NewCondition(ctx context.Context, name, src string) (*Condition, error) {
	p, err := i.Compile(ctx, name, src)
	if err != nil {
		return nil, err
	}

	timeout := i.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Condition{
		Name:    name,
		timeout: timeout,
		program: p,
		runtime: goja.New(),
		state:   core.EmptyInputState(),
		logger:  i.logger,
	}

	o := c.runtime
	o.Set("axis", func(name string) float64 {
		return c.state.Axis(name)
	})
	o.Set("button", func(name string) bool {
		return c.state.Button(name)
	})
	o.Set("pov", func(name string) int {
		return c.state.POV(name)
	})
	o.Set("deadzone", func(x, dz float64) float64 {
		if math.Abs(x) <= dz {
			return 0
		}
		return x
	})

	return c, nil
}

// Eval runs the script against the snapshot.
func (c *Condition) Eval(s *core.InputState) (bool, error) {
	if s == nil {
		s = core.EmptyInputState()
	}
	c.state = s

	o := c.runtime
	timer := time.AfterFunc(c.timeout, func() {
		o.Interrupt(InterruptedMessage)
	})
	v, err := runProgram(o, c.program)
	timer.Stop()
	// An interrupt that lost the race with the program's return
	// would otherwise hit the next run.
	o.ClearInterrupt()

	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return false, Interrupted
		}
		return false, err
	}
	return v.ToBoolean(), nil
}

func runProgram(o *goja.Runtime, p *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return o.RunProgram(p)
}

// Test implements core.Condition.  A failing script counts as false;
// failures are logged and counted.
func (c *Condition) Test(s *core.InputState) bool {
	b, err := c.Eval(s)
	if err != nil {
		c.mu.Lock()
		c.failures++
		c.last = err
		c.mu.Unlock()
		c.logger.Errorf("condition %s: %v", c.Name, err)
		return false
	}
	return b
}

// Failures returns how many evaluations failed and the latest error.
func (c *Condition) Failures() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures, c.last
}

// CompileCondition compiles the script into a core.Condition.
func (i *Interpreter) CompileCondition(name, src string) (core.Condition, error) {
	c, err := i.NewCondition(context.Background(), name, src)
	if err != nil {
		return nil, err
	}
	return c.Test, nil
}
