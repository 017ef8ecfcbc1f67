/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package testutil has JSON helpers for tests that compare what a
// Robot writes.
package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// When given anything else, just returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			panic(err)
		}
		return v
	default:
		return x
	}
}

// Canonical renders JSON text or a value as JSON with sorted keys, so
// that documents compare equal regardless of key order or spacing.
func Canonical(x interface{}) string {
	switch x.(type) {
	case string, []byte:
		return JS(Dwimjs(x))
	default:
		return JS(Dwimjs(JS(x)))
	}
}

// Line is one line of tagged output such as "report {...}".
type Line struct {
	Tag  string
	Body string
}

// Tagged splits tagged output into Lines, skipping blank lines.
func Tagged(out string) []Line {
	var ls []Line
	for _, s := range strings.Split(out, "\n") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		parts := strings.SplitN(s, " ", 2)
		l := Line{Tag: parts[0]}
		if len(parts) == 2 {
			l.Body = parts[1]
		}
		ls = append(ls, l)
	}
	return ls
}

// Tags returns just the tags, joined with spaces.
func Tags(ls []Line) string {
	tags := make([]string, len(ls))
	for i, l := range ls {
		tags[i] = l.Tag
	}
	return strings.Join(tags, " ")
}

// Find returns the first Line with the tag whose body contains the
// substring.
func Find(ls []Line, tag, substring string) (Line, bool) {
	for _, l := range ls {
		if l.Tag == tag && strings.Contains(l.Body, substring) {
			return l, true
		}
	}
	return Line{}, false
}
