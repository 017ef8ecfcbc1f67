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
	"math"
	"testing"
)

func TestInputStateClampAndCopy(t *testing.T) {
	axes := map[string]float64{
		"x":   2.5,
		"y":   -7,
		"z":   0.25,
		"nan": math.NaN(),
	}
	s := NewInputState(axes, map[string]bool{"a": true}, nil)

	axes["z"] = 0.75

	if x := s.Axis("x"); x != 1 {
		t.Fatalf("x == %v", x)
	}
	if y := s.Axis("y"); y != -1 {
		t.Fatalf("y == %v", y)
	}
	if z := s.Axis("z"); z != 0.25 {
		t.Fatalf("z == %v (not copied?)", z)
	}
	if n := s.Axis("nan"); n != 0 {
		t.Fatalf("nan == %v", n)
	}
	if s.Axis("missing") != 0 || s.Button("missing") || s.POV("missing") != POVNone {
		t.Fatal("missing readings should be zero")
	}
	if !s.Button("a") {
		t.Fatal("a")
	}

	t2 := s.With(nil, map[string]bool{"a": false}, map[string]int{"dpad": 180})
	if !s.Button("a") {
		t.Fatal("With modified the original")
	}
	if t2.Button("a") || t2.POV("dpad") != 180 || t2.Axis("x") != 1 {
		t.Fatalf("With: %#v", t2)
	}
}

func TestInputStateJSON(t *testing.T) {
	s, err := ParseInputState([]byte(`{"axes":{"lstick-y":-0.5},"buttons":{"start":true},"povs":{"dpad":0}}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Axis("lstick-y") != -0.5 || !s.Button("start") || s.POV("dpad") != 0 {
		t.Fatalf("parsed %#v", s)
	}

	js, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var again InputState
	if err = json.Unmarshal(js, &again); err != nil {
		t.Fatal(err)
	}
	if again.Axis("lstick-y") != -0.5 {
		t.Fatalf("round trip %s", js)
	}

	if _, err = ParseInputState([]byte(`{"axes":`)); err == nil {
		t.Fatal("expected an error")
	}
}

func TestConditions(t *testing.T) {
	s := NewInputState(
		map[string]float64{"stick": -0.3},
		map[string]bool{"a": true},
		map[string]int{"dpad": 90},
	)

	if !AxisBeyond("stick", 0.2)(s) {
		t.Fatal("magnitude should exceed deadzone")
	}
	if AxisBeyond("stick", 0.3)(s) {
		t.Fatal("deadzone is exclusive")
	}
	if !POV("dpad", 90)(s) || POV("dpad", 0)(s) {
		t.Fatal("pov")
	}
	if !And(Button("a"), POV("dpad", 90))(s) {
		t.Fatal("and")
	}
	if And(Button("a"), Button("b"))(s) {
		t.Fatal("and with b")
	}
	if !Or(Button("b"), Button("a"))(s) {
		t.Fatal("or")
	}
	if Not(Button("a"))(s) {
		t.Fatal("not")
	}
}
