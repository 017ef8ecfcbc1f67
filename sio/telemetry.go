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
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

// Telemetry serves Outputs to WebSocket clients (dashboards).
//
// Publish never blocks: a client that can't keep up loses messages.
type Telemetry struct {
	// MaxConns limits simultaneous connections.
	MaxConns int

	// Buffer is each client's queue length.
	Buffer int

	WriteTimeout time.Duration

	Verbose bool

	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*client]bool
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewTelemetry makes a Telemetry.  A nil logger is replaced with a
// no-op logger.
func NewTelemetry(logger *zap.Logger) *Telemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telemetry{
		MaxConns:     8,
		Buffer:       64,
		WriteTimeout: time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.Named("telemetry").Sugar(),
		clients: make(map[*client]bool),
	}
}

func (t *Telemetry) Logf(format string, args ...interface{}) {
	if !t.Verbose {
		return
	}
	t.logger.Infof(format, args...)
}

// Clients returns the number of connected clients.
func (t *Telemetry) Clients() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// Publish sends x as JSON to every client.
func (t *Telemetry) Publish(x interface{}) error {
	js, err := json.Marshal(x)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for c := range t.clients {
		select {
		case c.send <- js:
		default:
			t.Logf("telemetry dropped a message for %s", c.conn.RemoteAddr())
		}
	}
	return nil
}

// ServeHTTP upgrades the request and keeps the client until it goes
// away.
//
// Once the server is shutting down, requests get a 503.
func (t *Telemetry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		http.Error(w, "telemetry closed", http.StatusServiceUnavailable)
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()
	defer t.wg.Done()

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Errorf("upgrade: %v", err)
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, t.Buffer),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.clients[c] = true
	t.mu.Unlock()
	t.Logf("telemetry client %s connected", conn.RemoteAddr())

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for js := range c.send {
			conn.SetWriteDeadline(time.Now().Add(t.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, js); err != nil {
				t.Logf("telemetry write: %v", err)
				conn.Close()
				return
			}
		}
	}()

	// Clients only listen; reading is how we notice they left.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	t.drop(c)
	t.Logf("telemetry client %s gone", conn.RemoteAddr())
}

func (t *Telemetry) drop(c *client) {
	t.mu.Lock()
	if t.clients[c] {
		delete(t.clients, c)
		close(c.send)
	}
	t.mu.Unlock()
	c.conn.Close()
}

func (t *Telemetry) closeAll() {
	t.mu.Lock()
	t.closed = true
	cs := make([]*client, 0, len(t.clients))
	for c := range t.clients {
		cs = append(cs, c)
	}
	t.mu.Unlock()
	for _, c := range cs {
		t.drop(c)
	}
}

// Serve listens on the address and serves until the context is done.
func (t *Telemetry) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return t.ServeListener(ctx, ln)
}

// ServeListener serves on the listener, which is limited to MaxConns
// simultaneous connections, until the context is done.
func (t *Telemetry) ServeListener(ctx context.Context, ln net.Listener) error {
	if 0 < t.MaxConns {
		ln = netutil.LimitListener(ln, t.MaxConns)
	}

	t.mu.Lock()
	t.closed = false
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           t,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(sctx)
		t.closeAll()
	}()

	t.Logf("telemetry serving on %s", ln.Addr())
	err := srv.Serve(ln)
	cancel()
	<-stopped
	t.wg.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
