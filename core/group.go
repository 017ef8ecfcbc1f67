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
	"fmt"
)

// Policy determines when a Parallel group is finished.
type Policy int

const (
	// WaitAll finishes when every child has ended.
	WaitAll Policy = iota

	// WaitAny finishes as soon as one child has ended.  The
	// remaining children are interrupted.
	WaitAny
)

// adopt validates the children of the named group.  Returns the
// union of the children's Resources.
//
// When exclusive is true, two children may not share a Resource.
func adopt(name string, children []*Command, exclusive bool) []Resource {
	var (
		seen  = make(map[*Command]bool, len(children))
		users = make(map[Resource]string, 8)
		acc   = make([]Resource, 0, 8)
	)
	for i, c := range children {
		switch {
		case c == nil:
			panic(&ConfigError{name, fmt.Sprintf("child %d is nil", i)})
		case seen[c]:
			panic(&ConfigError{name, `child "` + c.Name + `" appears twice`})
		case c.parent != nil:
			panic(&ConfigError{name, `child "` + c.Name + `" already belongs to "` + c.parent.Name + `"`})
		case c.scheduled || c.status != Initialized:
			panic(&ConfigError{name, `child "` + c.Name + `" has already been started`})
		}
		seen[c] = true
		for _, r := range c.requires {
			if other, have := users[r]; have {
				if exclusive {
					panic(&ConfigError{name, `children "` + other + `" and "` + c.Name + `" both require "` + string(r) + `"`})
				}
				continue
			}
			users[r] = c.Name
			acc = append(acc, r)
		}
	}
	return acc
}

func runsWhenDisabled(children []*Command) bool {
	for _, c := range children {
		if !c.RunsWhenDisabled {
			return false
		}
	}
	return 0 < len(children)
}

// sequence runs its children one after another.
type sequence struct {
	children []*Command
	at       int
}

// Sequence makes a Command that runs the given Commands in order.  It
// finishes when the last child finishes.  The group requires the
// union of its children's Resources for its whole life.
//
// A cancellation request made directly to a child ends that child
// (interrupted) and the sequence moves on to the next one.
//
// The children belong to the group and cannot be started on their
// own.  Sequence panics with a *ConfigError if a child is nil,
// repeated, already started, or already in another group.
func Sequence(name string, children ...*Command) *Command {
	s := &sequence{
		children: children,
	}
	rs := adopt(name, children, false)
	built := NewCommand(name, s, rs...)
	for _, c := range children {
		c.parent = built
	}
	built.RunsWhenDisabled = runsWhenDisabled(children)
	return built
}

func (s *sequence) Init(ctx context.Context) {
	s.at = 0
	if 0 < len(s.children) {
		s.children[0].initialize(ctx)
	}
}

func (s *sequence) Execute(ctx context.Context) {
	if len(s.children) <= s.at {
		return
	}
	c := s.children[s.at]
	switch {
	case c.cancelRequested:
		c.end(ctx, true)
	case c.step(ctx):
		c.end(ctx, false)
	default:
		return
	}
	s.at++
	if s.at < len(s.children) {
		s.children[s.at].initialize(ctx)
	}
}

func (s *sequence) IsFinished() bool {
	return len(s.children) <= s.at
}

func (s *sequence) End(ctx context.Context, interrupted bool) {
	if s.at < len(s.children) {
		if c := s.children[s.at]; c.status == Running {
			c.end(ctx, true)
		}
	}
}

// parallel runs its children side by side.
type parallel struct {
	children []*Command
	policy   Policy
}

// Parallel makes a Command that runs the given Commands at the same
// time, finishing according to the Policy.
//
// Children may not share Resources.  Parallel panics with a
// *ConfigError in that case and in the cases listed for Sequence.
func Parallel(name string, policy Policy, children ...*Command) *Command {
	p := &parallel{
		children: children,
		policy:   policy,
	}
	rs := adopt(name, children, true)
	built := NewCommand(name, p, rs...)
	for _, c := range children {
		c.parent = built
	}
	built.RunsWhenDisabled = runsWhenDisabled(children)
	return built
}

func (p *parallel) Init(ctx context.Context) {
	for _, c := range p.children {
		c.initialize(ctx)
	}
}

func (p *parallel) Execute(ctx context.Context) {
	for _, c := range p.children {
		if c.status != Running {
			continue
		}
		switch {
		case c.cancelRequested:
			c.end(ctx, true)
		case c.step(ctx):
			c.end(ctx, false)
		}
	}
}

func (p *parallel) IsFinished() bool {
	ended := 0
	for _, c := range p.children {
		if c.status.Terminal() {
			ended++
		}
	}
	if p.policy == WaitAny {
		return 0 < ended || len(p.children) == 0
	}
	return ended == len(p.children)
}

func (p *parallel) End(ctx context.Context, interrupted bool) {
	for _, c := range p.children {
		if c.status == Running {
			c.end(ctx, true)
		}
	}
}
