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
	"encoding/json"
	"fmt"
)

var (
	// EventsInitialCap is the initial capacity for a Report's
	// Events.
	EventsInitialCap = 8
)

// EventKind is the type of a lifecycle transition recorded in a
// Report.
type EventKind int

const (
	EventInit      EventKind = iota // Init called.
	EventFinish                     // Ended normally.
	EventInterrupt                  // Ended by a cancellation request.
	EventPreempt                    // Ended because a newcomer needed a Resource.
	EventDrop                       // Canceled before it ever ran.
	EventDefault                    // A default Command was submitted.
)

func (k EventKind) String() string {
	switch k {
	case EventInit:
		return "init"
	case EventFinish:
		return "finish"
	case EventInterrupt:
		return "interrupt"
	case EventPreempt:
		return "preempt"
	case EventDrop:
		return "drop"
	case EventDefault:
		return "default"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(bs []byte) error {
	var s string
	if err := json.Unmarshal(bs, &s); err != nil {
		return err
	}
	for c := EventInit; c <= EventDefault; c++ {
		if c.String() == s {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", s)
}

// Event is one lifecycle transition.
type Event struct {
	Kind    EventKind `json:"kind"`
	Command string    `json:"command"`
	Id      string    `json:"id"`

	// By is the name of the Command that caused a preemption.
	By string `json:"by,omitempty" yaml:",omitempty"`
}

// Report describes what happened during one Scheduler cycle.
type Report struct {
	Cycle  uint64  `json:"cycle"`
	Events []Event `json:"events,omitempty" yaml:",omitempty"`

	// Running holds the names of the Commands still Running at
	// the end of the cycle, in start order.
	Running []string `json:"running,omitempty" yaml:",omitempty"`

	// Owners maps each owned Resource to the name of its owner at
	// the end of the cycle.
	Owners map[Resource]string `json:"owners,omitempty" yaml:",omitempty"`
}

func newReport(cycle uint64) *Report {
	return &Report{
		Cycle:  cycle,
		Events: make([]Event, 0, EventsInitialCap),
	}
}

func (r *Report) add(kind EventKind, c *Command, by *Command) {
	e := Event{
		Kind:    kind,
		Command: c.Name,
		Id:      c.Id,
	}
	if by != nil {
		e.By = by.Name
	}
	r.Events = append(r.Events, e)
}

// Count returns the number of events of the given kind.
func (r *Report) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Quiet reports whether nothing happened during the cycle.
func (r *Report) Quiet() bool {
	return len(r.Events) == 0
}
