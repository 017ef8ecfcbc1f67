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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
//
// Each input line is a JSON Msg.  Blank lines and lines starting with
// '#' are ignored, and "quit" ends the input.
type Stdio struct {
	// In is coupled to Robot input.
	In io.Reader

	// Out is coupled to Robot output.
	Out io.Writer

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "report", "status", "diag", "error").
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	// Quiet suppresses Reports in which nothing happened.
	Quiet bool

	// InputEOF will be closed on EOF from stdin.
	InputEOF chan bool

	WG sync.WaitGroup

	logger *zap.SugaredLogger
}

// NewStdio creates a new Stdio.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.  A nil logger is replaced with a no-op logger.
func NewStdio(logger *zap.Logger) *Stdio {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stdio{
		In:       os.Stdin,
		Out:      os.Stdout,
		Tags:     true,
		InputEOF: make(chan bool),
		logger:   logger.Named("stdio").Sugar(),
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop waits until IO is complete or was terminated via its context.
//
// A reader blocked on In can outlive the IO context, so Stop also
// gives up when its own context is done.
func (s *Stdio) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.WG.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IO returns channels for reading from In and writing to Out.
func (s *Stdio) IO(ctx context.Context) (chan *Msg, chan *Output, chan bool, error) {
	in := make(chan *Msg)
	done := make(chan bool)

	var mu sync.Mutex
	printf := func(tag, format string, args ...interface{}) {
		if s.PadTags {
			tag = fmt.Sprintf("% 7s", tag)
		}
		if s.Tags {
			format = tag + " " + format
		}
		if s.Timestamps {
			ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
			format = ts + " " + format
		}
		mu.Lock()
		fmt.Fprintf(s.Out, format, args...)
		mu.Unlock()
	}

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		stdin := bufio.NewReader(s.In)
		for {
			line, err := stdin.ReadString('\n')
			if (err == io.EOF && strings.TrimSpace(line) == "") || strings.TrimSpace(line) == "quit" {
				close(done)
				close(s.InputEOF)
				return
			}
			if err != nil && err != io.EOF {
				s.logger.Errorf("stdin error %s", err)
				return
			}
			if s.EchoInput {
				printf("input", "%s\n", strings.TrimRight(line, "\n"))
			}
			if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "#") || len(trimmed) == 0 {
				continue
			}

			m, perr := ParseMsg([]byte(line))
			if perr != nil {
				m = BadMsg(perr)
			}
			select {
			case <-ctx.Done():
				return
			case in <- m:
			}
			if err == io.EOF {
				close(done)
				close(s.InputEOF)
				return
			}
		}
	}()

	out := make(chan *Output)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case o := <-out:
				if o == nil {
					return
				}
				if o.Error != "" {
					printf("error", "%s\n", JS(o))
					continue
				}
				if o.Status != nil {
					printf("status", "%s\n", JS(o.Status))
				}
				if o.Diag != nil {
					printf("diag", "%s\n", JS(o.Diag))
				}
				if o.Report != nil && !(s.Quiet && o.Report.Quiet()) {
					printf("report", "%s\n", JS(o.Report))
				}
			}
		}
	}()

	return in, out, done, nil
}
