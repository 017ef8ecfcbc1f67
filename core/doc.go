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

// Package core provides the cycle-driven gear for turning operator
// input into schedulable work.
//
// The primary types are Trigger, Command, and Scheduler.  A Trigger
// evaluates a Condition against the current InputState once per
// control cycle and runs its bound actions on edges (or while the
// condition holds).  A Command is a unit of work with an explicit
// lifecycle (Initialized, Running, Finished, Canceled) and a fixed
// set of Resources that it needs exclusively while Running.  The
// Scheduler advances every Running Command by one step per cycle,
// preempts owners when a newcomer needs their Resources, and
// processes cancellation requests.
//
// Nothing here blocks or performs IO.  A Command's side effects are
// delegated to whatever its Behavior touches, and each call to
// Scheduler.Run returns a Report that describes the lifecycle
// transitions that occurred during that cycle.  What to do with a
// Report (log it, publish it, store it) is up to the caller.
//
// There is exactly one logical cycle at a time.  None of the types in
// this package are safe for concurrent use unless documented
// otherwise.
package core
