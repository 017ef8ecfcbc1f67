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
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frc6135/botcore/core"
	"github.com/frc6135/botcore/util/testutil"

	"github.com/gorilla/websocket"
)

func TestTelemetry(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	tel := NewTelemetry(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- tel.ServeListener(ctx, ln)
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for tel.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	out := &Output{Report: &core.Report{Cycle: 42}}
	if err = tel.Publish(out); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, bs, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := testutil.Canonical(bs), testutil.Canonical(out); got != want {
		t.Fatalf("got %s, wanted %s", got, want)
	}

	cancel()
	if err = <-done; err != nil {
		t.Fatal(err)
	}
	if tel.Clients() != 0 {
		t.Fatal("clients left over")
	}
	if _, _, err = conn.ReadMessage(); err == nil {
		t.Fatal("connection still open")
	}
}

func TestTelemetryAfterShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	tel := NewTelemetry(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err = tel.ServeListener(ctx, ln); err != nil {
		t.Fatal(err)
	}

	// A handler that arrives late must not register with the
	// finished server.
	w := httptest.NewRecorder()
	tel.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatal(w.Code)
	}
	if tel.Clients() != 0 {
		t.Fatal("late client registered")
	}
}
