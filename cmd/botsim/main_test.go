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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/frc6135/botcore/auto"
	"github.com/frc6135/botcore/sio"
	"github.com/frc6135/botcore/subsystems"
	"github.com/frc6135/botcore/util/testutil"

	"github.com/gorilla/websocket"
)

func TestParseTopic(t *testing.T) {
	for _, c := range []struct {
		in    string
		topic string
		qos   byte
	}{
		{"robot/ds", "robot/ds", 0},
		{"robot/ds:1", "robot/ds", 1},
		{" robot/ds:2 ", "robot/ds", 2},
		{"robot/ds:7", "robot/ds:7", 0},
		{"a:b", "a:b", 0},
		{"", "", 0},
	} {
		topic, qos := parseTopic(c.in)
		if topic != c.topic || qos != c.qos {
			t.Fatalf("%q: got %q %d", c.in, topic, qos)
		}
	}
}

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(`
routine: Place Cube Middle
target:
  offset: 12
  visible: true
controls:
  autoAlign: driver.b
  conditions:
    debug: "button('driver.y')"
`))
	if err != nil {
		t.Fatal(err)
	}
	if conf.Diagnostics != sio.DefaultDiagnosticsSchedule {
		t.Fatal(conf.Diagnostics)
	}
	if conf.Controls.AutoAlign != "driver.b" {
		t.Fatal(conf.Controls.AutoAlign)
	}
	if conf.Controls.FwdRev != "driver.lstick-y" {
		t.Fatal("lost a default control")
	}
	if conf.Target == nil || conf.Target.Offset != 12 || !conf.Target.Visible {
		t.Fatalf("%#v", conf.Target)
	}

	if _, err = ParseConfig([]byte("controls: {deadzone: 2}")); err == nil {
		t.Fatal("should have complained about the deadzone")
	}
}

func TestReadConfig(t *testing.T) {
	conf, err := ReadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Controls == nil {
		t.Fatal("no controls")
	}
	if _, err = ReadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("should have failed")
	}
}

func TestBot(t *testing.T) {
	conf := DefaultConfig()
	conf.Routine = "turn-90"
	conf.Controls.Conditions = map[string]string{
		"debug": "button('driver.y')",
	}

	bot, err := NewBot(conf, "", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := bot.Robot.Selector.Chosen(); got != auto.Turn90 {
		t.Fatal(got)
	}

	input := `{"phase":"autonomous","gameData":"RLR"}
{"input":{}}
{"input":{"buttons":{"driver.y":true}}}
`
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	std := sio.NewStdio(nil)
	std.In = strings.NewReader(input)
	std.Out = &out
	bot.Robot.HaltOnInputEOF = true

	var teed int
	bot.Robot.Tee = func(*sio.Output) { teed++ }

	if err := std.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := bot.Robot.Loop(ctx, std); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := std.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	if teed != 3 {
		t.Fatalf("teed %d", teed)
	}
	if !bot.Robot.Dispatcher.Settings.Debug() {
		t.Fatal("scripted debug binding didn't fire")
	}
	lines := testutil.Tagged(out.String())
	if got := testutil.Tags(lines); got != "status report report" {
		t.Fatal(got)
	}
	if _, found := testutil.Find(lines, "status", `"plan":"turn-90"`); !found {
		t.Fatal(out.String())
	}

	d := bot.Diagnostics.Once(context.Background())
	s, is := d.Sample.(*Sample)
	if !is {
		t.Fatalf("%T", d.Sample)
	}
	if s.Status.Cycle != 2 || s.Status.Phase != sio.Autonomous {
		t.Fatalf("%#v", s.Status)
	}
}

func TestDebugPublishesTunables(t *testing.T) {
	bot, err := NewBot(DefaultConfig(), "", false, nil)
	if err != nil {
		t.Fatal(err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- bot.Telemetry.ServeListener(ctx, ln)
	}()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for bot.Telemetry.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bot.Robot.Dispatcher.Settings.ToggleDebug()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, bs, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var out sio.Output
	if err = json.Unmarshal(bs, &out); err != nil {
		t.Fatal(err)
	}
	if out.Status == nil || !out.Status.Settings.Debug {
		t.Fatal(string(bs))
	}
	if got := out.Tunables["wristTolerance"]; got != subsystems.WristTolerance {
		t.Fatal(got)
	}
	if got := out.Tunables["baselineInches"]; got != auto.BaselineInches {
		t.Fatal(got)
	}
	if len(out.Tunables) != len(Tunables()) {
		t.Fatal(out.Tunables)
	}
}

func TestBadRoutine(t *testing.T) {
	conf := DefaultConfig()
	conf.Routine = "drive-past-baseline-offset"
	if _, err := NewBot(conf, "", false, nil); err == nil {
		t.Fatal("fallback-only routine should not be choosable")
	}
}

func TestWriteControlsPage(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "controls.html")
	if err := writeControlsPage(DefaultConfig(), filename); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(bs, []byte("driver.lstick-y")) {
		t.Fatal(string(bs))
	}
}
