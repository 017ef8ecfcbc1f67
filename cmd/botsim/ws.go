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
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/frc6135/botcore/sio"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// WebSocketCouplings reads driver station messages from a WebSocket
// server and writes each Output back to it.
type WebSocketCouplings struct {
	URL string

	// Quiet suppresses Reports in which nothing happened.
	Quiet bool

	WriteTimeout time.Duration

	logger *zap.SugaredLogger
	in     chan *sio.Msg
	out    chan *sio.Output
	done   chan bool
	conn   *websocket.Conn
	wg     sync.WaitGroup
	stop   context.CancelFunc
}

func NewWebSocketCouplings(args []string, logger *zap.Logger) (*WebSocketCouplings, *pflag.FlagSet) {
	c := &WebSocketCouplings{}
	fs := pflag.NewFlagSet("ws", pflag.ExitOnError)
	fs.StringVar(&c.URL, "url", "ws://localhost:8080/ds", "Target URL for WebSocket server")
	fs.BoolVar(&c.Quiet, "quiet", false, "Suppress reports in which nothing happened")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", time.Second, "Timeout for each write")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.Named("ws").Sugar()
	return c, fs
}

// Start creates the WebSocket session and starts processing it.
func (c *WebSocketCouplings) Start(ctx context.Context) error {

	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}

	c.in = make(chan *sio.Msg)
	c.out = make(chan *sio.Output)
	c.done = make(chan bool)

	c.logger.Infof("wsconnect %s", u)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	c.conn = conn

	ctx, c.stop = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		for {
			_, bs, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					c.logger.Errorf("ReadMessage: %v", err)
				}
				return
			}
			if len(bs) == 0 {
				continue
			}
			c.logger.Debugf("heard %s", bs)

			m, err := sio.ParseMsg(bs)
			if err != nil {
				m = sio.BadMsg(err)
			}

			select {
			case <-ctx.Done():
				return
			case c.in <- m:
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case o := <-c.out:
				if o == nil {
					return
				}
				if c.Quiet && o.Error == "" && o.Status == nil && o.Report != nil && o.Report.Quiet() {
					continue
				}
				js, err := json.Marshal(o)
				if err != nil {
					c.logger.Errorf("Marshal: %v", err)
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
				if err = conn.WriteMessage(websocket.TextMessage, js); err != nil {
					c.logger.Errorf("WriteMessage: %v", err)
					return
				}
			}
		}
	}()

	return nil
}

// IO just returns the channels that Start initialized.
func (c *WebSocketCouplings) IO(ctx context.Context) (chan *sio.Msg, chan *sio.Output, chan bool, error) {
	return c.in, c.out, c.done, nil
}

// Stop terminates the WebSocket connection.
func (c *WebSocketCouplings) Stop(ctx context.Context) error {
	c.logger.Infof("Disconnecting")
	if c.stop != nil {
		c.stop()
	}
	if c.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := c.conn.Close()
	c.wg.Wait()
	return err
}
