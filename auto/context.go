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

// Package auto resolves the operator's autonomous routine choice
// against the match context discovered when the autonomous phase
// starts.
//
// The choice is a RoutineID made before the match.  At the start of
// autonomous the Selector looks up (choice, switch side) in a static
// RoutineTable, which either re-instantiates the routine with a
// direction matching the side or substitutes a declared fallback.
// The resulting Plan is turned into a fresh Command by Build.
package auto

import (
	"strings"
)

// Side is the side of the near switch that belongs to our alliance.
type Side int

const (
	SideUnknown Side = iota
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// sign is -1 for Left, +1 for Right, and 0 otherwise.  Positive turns
// are clockwise.
func (s Side) sign() float64 {
	switch s {
	case Left:
		return -1
	case Right:
		return 1
	default:
		return 0
	}
}

// ParseGameData reads our switch side from the game-specific message.
//
// Only the first character matters: 'L' (either case) means Left, and
// any other character, including a space, means Right.  Only an
// empty message gives SideUnknown.
func ParseGameData(s string) Side {
	if s == "" {
		return SideUnknown
	}
	if strings.ToUpper(s[:1]) == "L" {
		return Left
	}
	return Right
}

// AutonomousContext is what the field tells us at the start of
// autonomous.  Station does not influence routine selection.
type AutonomousContext struct {
	Alliance string `json:"alliance,omitempty" yaml:"alliance,omitempty"`
	Station  int    `json:"station,omitempty" yaml:"station,omitempty"`
	GameData string `json:"gameData,omitempty" yaml:"gameData,omitempty"`
}

// Side parses the context's GameData.
func (c AutonomousContext) Side() Side {
	return ParseGameData(c.GameData)
}
