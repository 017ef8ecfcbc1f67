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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frc6135/botcore/auto"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileChooser keeps a Selector's choice in sync with a file that
// names a routine (by id or label) on its first non-comment line.
type FileChooser struct {
	Filename string
	Selector *auto.Selector

	// Debounce waits for writes to settle before reading.
	Debounce time.Duration

	// OnChoose, if not nil, is called after every load attempt.
	OnChoose func(id auto.RoutineID, err error)

	Verbose bool

	logger *zap.SugaredLogger
}

// NewFileChooser makes a FileChooser.  A nil logger is replaced with
// a no-op logger.
func NewFileChooser(filename string, sel *auto.Selector, logger *zap.Logger) *FileChooser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileChooser{
		Filename: filepath.Clean(filename),
		Selector: sel,
		Debounce: 100 * time.Millisecond,
		logger:   logger.Named("chooser").Sugar(),
	}
}

func (fc *FileChooser) Logf(format string, args ...interface{}) {
	if !fc.Verbose {
		return
	}
	fc.logger.Infof(format, args...)
}

// ParseChoice finds the routine named in the given file contents.
func ParseChoice(bs []byte) (auto.RoutineID, error) {
	in := bufio.NewScanner(bytes.NewReader(bs))
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return auto.ParseRoutine(line)
	}
	return "", fmt.Errorf("no routine named")
}

// Load reads the file and updates the Selector.
func (fc *FileChooser) Load() (auto.RoutineID, error) {
	id, err := fc.load()
	if err != nil {
		fc.logger.Errorf("chooser %s: %v", fc.Filename, err)
	} else {
		fc.Logf("chooser %s chose %s", fc.Filename, id)
	}
	if fc.OnChoose != nil {
		fc.OnChoose(id, err)
	}
	return id, err
}

func (fc *FileChooser) load() (auto.RoutineID, error) {
	bs, err := os.ReadFile(fc.Filename)
	if err != nil {
		return "", err
	}
	id, err := ParseChoice(bs)
	if err != nil {
		return "", err
	}
	if err = fc.Selector.Choose(id); err != nil {
		return "", err
	}
	return id, nil
}

// Run loads the file and then reloads it whenever it changes, until
// the context is done.
//
// The file's directory is watched rather than the file so that
// editors that replace the file are handled.
func (fc *FileChooser) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err = w.Add(filepath.Dir(fc.Filename)); err != nil {
		return fmt.Errorf("watching %s: %w", fc.Filename, err)
	}

	fc.Load()

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fc.Filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				settle = time.After(fc.Debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fc.logger.Errorf("chooser watch: %v", err)
		case <-settle:
			settle = nil
			fc.Load()
		}
	}
}
