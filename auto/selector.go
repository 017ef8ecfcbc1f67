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
	"fmt"
	"sync"

	"github.com/frc6135/botcore/core"

	"go.uber.org/zap"
)

// State of a Selector within one match.
type State int

const (
	Unresolved State = iota
	Resolved
)

func (s State) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "unresolved"
}

// Starter starts Commands.  *core.Scheduler is a Starter.
type Starter interface {
	Start(c *core.Command) error
}

// Selector holds the operator's routine choice and resolves it once
// per match.
//
// Choose may be called from any goroutine.  Resolve and Reset are
// called by the phase driver.
type Selector struct {
	Table      RoutineTable
	Primitives Primitives
	Starter    Starter

	Verbose bool

	logger *zap.SugaredLogger

	mu      sync.Mutex
	chosen  RoutineID
	state   State
	plan    Plan
	command *core.Command
}

// NewSelector makes a Selector using DefaultTable with DefaultRoutine
// chosen.  A nil logger is replaced with a no-op logger.
func NewSelector(prims Primitives, starter Starter, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		Table:      DefaultTable,
		Primitives: prims,
		Starter:    starter,
		logger:     logger.Named("auto").Sugar(),
		chosen:     DefaultRoutine,
	}
}

// Logf logs if s.Verbose.
func (s *Selector) Logf(format string, args ...interface{}) {
	if !s.Verbose {
		return
	}
	s.logger.Infof(format, args...)
}

// Choose sets the routine for the next Resolve.
func (s *Selector) Choose(id RoutineID) error {
	r, have := Lookup(id)
	if !have || r.FallbackOnly {
		return &UnknownRoutine{id}
	}
	s.mu.Lock()
	s.chosen = id
	s.mu.Unlock()
	s.Logf("chose %s", id)
	return nil
}

// Chosen returns the current choice.
func (s *Selector) Chosen() RoutineID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chosen
}

// State returns Resolved after a successful Resolve and until Reset.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Plan returns the Plan from the last Resolve.
func (s *Selector) Plan() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Command returns the Command the last Resolve started, if any.
func (s *Selector) Command() *core.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command
}

// Resolve plans the chosen routine for the match context, builds a
// fresh Command for it, and starts that Command.
//
// When the context has no side (for example empty game data), the
// chosen routine runs as chosen.  The None routine resolves without
// starting anything, in which case the returned Command is nil.
//
// A second call before Reset returns ErrAlreadyResolved.
func (s *Selector) Resolve(ctx AutonomousContext) (*core.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Resolved {
		return nil, ErrAlreadyResolved
	}

	side := ctx.Side()
	p := s.Table.Plan(s.chosen, side)
	if p.Fallback {
		s.logger.Infof("%s not possible with switch on the %s; running %s", s.chosen, side, p)
	}
	s.Logf("resolved %s side=%s station=%d alliance=%q to %s", s.chosen, side, ctx.Station, ctx.Alliance, p)

	c := Build(p, s.Primitives)
	if c != nil {
		if err := s.Starter.Start(c); err != nil {
			return nil, fmt.Errorf("starting %s: %w", p, err)
		}
	}

	s.state = Resolved
	s.plan = p
	s.command = c

	return c, nil
}

// Reset prepares for the next match.  It doesn't touch the Command
// that was started.
func (s *Selector) Reset() {
	s.mu.Lock()
	s.state = Unresolved
	s.plan = Plan{}
	s.command = nil
	s.mu.Unlock()
}
