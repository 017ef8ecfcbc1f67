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

// Package bolt is a BoltDB-backed Recorder that keeps every cycle
// Report of every match.
//
// Each match gets its own bucket.  Keys are big-endian cycle numbers,
// so a cursor walks a match in cycle order, and values are the
// Reports' JSON.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frc6135/botcore/core"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	// Practice is the bucket used for Reports that arrive without
	// a match id.
	Practice = "practice"

	// ErrNotOpen is returned by operations on a Storage that has
	// not been opened.
	ErrNotOpen = errors.New("storage not open")
)

type Storage struct {
	Debug bool

	// Timeout bounds the wait for the database file lock.
	Timeout time.Duration

	filename string
	db       *bbolt.DB
	logger   *zap.SugaredLogger
}

func NewStorage(filename string, logger *zap.Logger) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{
		Timeout:  time.Second,
		filename: filename,
		logger:   logger.Named("bolt").Sugar(),
	}
}

func (s *Storage) Open() error {
	opts := &bbolt.Options{
		Timeout: s.Timeout,
	}

	db, err := bbolt.Open(s.filename, 0644, opts)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.filename, err)
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		s.logger.Debugf(format, args...)
	}
}

func bucket(match string) []byte {
	if match == "" {
		match = Practice
	}
	return []byte(match)
}

func key(cycle uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, cycle)
	return k
}

// Record writes the Report under its cycle number.  A later Report
// with the same cycle replaces the earlier one.
func (s *Storage) Record(ctx context.Context, match string, r *core.Report) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if r == nil {
		return nil
	}
	js, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.logf("Record %s cycle %d", match, r.Cycle)
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket(match))
		if err != nil {
			return err
		}
		return b.Put(key(r.Cycle), js)
	})
}

// Reports returns the match's Reports in cycle order.  An unknown
// match has no Reports.
func (s *Storage) Reports(ctx context.Context, match string) ([]*core.Report, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	rs := make([]*core.Report, 0, 64)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket(match))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r core.Report
			if err := json.Unmarshal(bs, &r); err != nil {
				return fmt.Errorf("match %s cycle %d: %w", match, binary.BigEndian.Uint64(k), err)
			}
			rs = append(rs, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logf("Reports %s found %d", match, len(rs))
	return rs, nil
}

// Matches lists the recorded match ids in key order.
func (s *Storage) Matches(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	var ms []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			ms = append(ms, string(name))
			return nil
		})
	})
	return ms, err
}

// RemMatch deletes a match and its Reports.
func (s *Storage) RemMatch(ctx context.Context, match string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	s.logf("RemMatch %s", match)
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(bucket(match))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}
