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

package oi

import (
	"sync/atomic"
)

// Settings holds the operator's process-wide switches.
//
// Bound actions flip these switches during a cycle.  Telemetry may
// read them from another goroutine, so every field is atomic.
type Settings struct {
	debug     atomic.Bool
	ramping   atomic.Bool
	precision atomic.Bool

	// OnDebugChange, if not nil, is called after the debug switch
	// is toggled.  Something like republishing tunables to a
	// dashboard belongs here.  It must not block.
	OnDebugChange func(debug bool)
}

// NewSettings returns Settings with every switch off.
func NewSettings() *Settings {
	return &Settings{}
}

func (s *Settings) Debug() bool     { return s.debug.Load() }
func (s *Settings) Ramping() bool   { return s.ramping.Load() }
func (s *Settings) Precision() bool { return s.precision.Load() }

// toggle negates the switch and returns the new value.  Cycles never
// overlap, so there is exactly one writer.
func toggle(b *atomic.Bool) bool {
	now := !b.Load()
	b.Store(now)
	return now
}

// ToggleDebug flips debug mode and returns the new value.
func (s *Settings) ToggleDebug() bool {
	now := toggle(&s.debug)
	if s.OnDebugChange != nil {
		s.OnDebugChange(now)
	}
	return now
}

// ToggleRamping flips drive ramping and returns the new value.
func (s *Settings) ToggleRamping() bool {
	return toggle(&s.ramping)
}

// TogglePrecision flips precision driving and returns the new value.
func (s *Settings) TogglePrecision() bool {
	return toggle(&s.precision)
}

// Snapshot is a plain copy of Settings suitable for telemetry.
type Snapshot struct {
	Debug     bool `json:"debug"`
	Ramping   bool `json:"ramping"`
	Precision bool `json:"precision"`
}

// Snapshot reads all switches.
func (s *Settings) Snapshot() Snapshot {
	return Snapshot{
		Debug:     s.Debug(),
		Ramping:   s.Ramping(),
		Precision: s.Precision(),
	}
}
