//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package badger implements durable timelines on top of BadgerDB. Each
// insert is a single read-write transaction.
//
// Keyspace:
//
//	'r' | len(key) | key | start | end | status  →  encoded record
//	'g' | len(key) | key                         →  revision of timeline
package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/encoding/bytes"
)

// Config of depot
type Config struct {
	// Path is the directory for database files. Ignored when InMemory.
	Path string

	// InMemory disables disk persistence.
	InMemory bool

	// SyncWrites makes every commit durable.
	SyncWrites bool

	// Logger receives database and depot logs. Silent if nil.
	Logger *slog.Logger

	// NumVersionsToKeep per key.
	NumVersionsToKeep int

	// GCInterval of value log garbage collection, 0 disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of garbage that triggers GC.
	GCDiscardRatio float64

	// ConflictRetries is how many times an aborted insert is repeated.
	ConflictRetries int

	// Codec of stored records, binary by default.
	Codec timeline.Codec
}

// DefaultConfig for durable depot
func DefaultConfig() Config {
	return Config{
		SyncWrites:        true,
		NumVersionsToKeep: 1,
		GCInterval:        5 * time.Minute,
		GCDiscardRatio:    0.5,
		ConflictRetries:   16,
		Codec:             bytes.Codec{},
	}
}

// InMemoryConfig for tests
func InMemoryConfig() Config {
	return Config{
		InMemory:          true,
		SyncWrites:        false,
		NumVersionsToKeep: 1,
		ConflictRetries:   16,
		Codec:             bytes.Codec{},
	}
}

// badgerLogger adapts slog.Logger to badger.Logger
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func open(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(max(cfg.NumVersionsToKeep, 1))

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger database: %w", timeline.ErrStoreUnavailable, err)
	}

	return db, nil
}

// gcRunner runs periodic value log garbage collection
type gcRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *slog.Logger
}

func newGCRunner(db *badger.DB, interval time.Duration, ratio float64, logger *slog.Logger) (*gcRunner, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.New("ratio must be between 0 and 1")
	}

	r := &gcRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}
	go r.run()

	return r, nil
}

func (r *gcRunner) stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *gcRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			// ErrNoRewrite means nothing to collect
			err := r.db.RunValueLogGC(r.ratio)
			switch {
			case err == nil:
				r.logger.Debug("badger value log GC completed")
			case !errors.Is(err, badger.ErrNoRewrite):
				r.logger.Warn("badger value log GC error", slog.Any("error", err))
			}
		}
	}
}
