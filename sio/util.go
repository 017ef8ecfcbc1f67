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
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// JS renders its argument as one line of JSON without HTML escaping,
// or as '%#v' if it can't be marshaled.
func JS(x interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(x); err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// Abbrev shortens s to at most n runes, ending with "..." when
// something was cut.
func Abbrev(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return "..."[:n]
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
