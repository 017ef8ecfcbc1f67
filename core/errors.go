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

// These errors are programming errors, not runtime conditions.
//
// ConfigError is used as a panic value.  The others are returned by
// Scheduler.Start.

import (
	"errors"
)

var (
	// ErrNilCommand is returned when Scheduler.Start is given nil.
	ErrNilCommand = errors.New("nil command")

	// ErrDisabled is returned when a Command that doesn't run
	// when disabled is started while the Scheduler is disabled.
	ErrDisabled = errors.New("scheduler disabled")
)

// ConfigError reports a Command that was built wrong: conflicting
// resources in a parallel group, a child reused across groups, and
// so on.
type ConfigError struct {
	Command string
	Problem string
}

func (e *ConfigError) Error() string {
	return `command "` + e.Command + `" misconfigured: ` + e.Problem
}

// TerminatedError occurs when somebody tries to start a Command that
// has already Finished or been Canceled.
type TerminatedError struct {
	Command *Command
}

func (e *TerminatedError) Error() string {
	return `command "` + e.Command.Name + `" is ` + e.Command.status.String() + ` and cannot run again`
}

// GroupedError occurs when somebody tries to start a Command that is
// owned by a group.
type GroupedError struct {
	Command *Command
}

func (e *GroupedError) Error() string {
	return `command "` + e.Command.Name + `" belongs to group "` + e.Command.parent.Name + `"`
}
