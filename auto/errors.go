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
	"errors"
	"fmt"
)

// ErrAlreadyResolved is returned by a second Resolve in the same
// match.
var ErrAlreadyResolved = errors.New("autonomous routine already resolved")

// UnknownRoutine reports a RoutineID that isn't in the catalog or
// that can't be chosen directly.
type UnknownRoutine struct {
	ID RoutineID
}

func (e *UnknownRoutine) Error() string {
	return fmt.Sprintf("unknown autonomous routine %q", e.ID)
}
