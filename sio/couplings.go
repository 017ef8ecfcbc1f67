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

package sio

import (
	"context"

	"github.com/frc6135/botcore/core"
)

// Couplings provide channels for per-cycle input and Output.
//
// For example, an implementation could couple a Robot to an MQTT
// broker that relays the driver station.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and output channels along with a
	// channel that is closed when the input is exhausted.
	IO(context.Context) (chan *Msg, chan *Output, chan bool, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}

// Recorder stores each cycle's Report under the current match id.
type Recorder interface {
	Record(ctx context.Context, match string, r *core.Report) error
}
