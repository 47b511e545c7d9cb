//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package config loads settings of timeline command line tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"

	CodecBinary = "binary"
	CodecJSON   = "json"
)

// Default values
const (
	DefaultBackend               = BackendMemory
	DefaultMemoryDir             = ""
	DefaultBadgerPath            = "timeline.db"
	DefaultBadgerInMemory        = false
	DefaultBadgerSyncWrites      = true
	DefaultBadgerConflictRetries = 16
	DefaultBadgerGCInterval      = 5 * time.Minute
	DefaultBadgerGCDiscardRatio  = 0.5
	DefaultBadgerCodec           = CodecBinary
	DefaultLoggingLevel          = "info"
	DefaultLoggingFormat         = "text"
)

var (
	ErrInvalidBackend       = errors.New("backend must be memory or badger")
	ErrBadgerPathRequired   = errors.New("badger.path is required unless badger.in_memory")
	ErrInvalidRetries       = errors.New("badger.conflict_retries must not be negative")
	ErrInvalidDiscardRatio  = errors.New("badger.gc_discard_ratio must be within (0, 1)")
	ErrInvalidCodec         = errors.New("badger.codec must be binary or json")
	ErrInvalidLoggingLevel  = errors.New("logging.level must be debug, info, warn or error")
	ErrInvalidLoggingFormat = errors.New("logging.format must be text or json")
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Badger  BadgerConfig  `mapstructure:"badger"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// MemoryConfig of in-memory backend. Timelines are snapshot to Dir as JSON
// files when it is set.
type MemoryConfig struct {
	Dir string `mapstructure:"dir"`
}

// BadgerConfig of badger backend.
type BadgerConfig struct {
	Path            string        `mapstructure:"path"`
	InMemory        bool          `mapstructure:"in_memory"`
	SyncWrites      bool          `mapstructure:"sync_writes"`
	ConflictRetries int           `mapstructure:"conflict_retries"`
	GCInterval      time.Duration `mapstructure:"gc_interval"`
	GCDiscardRatio  float64       `mapstructure:"gc_discard_ratio"`
	Codec           string        `mapstructure:"codec"`
}

// LoggingConfig of slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			return ErrBadgerPathRequired
		}
		if c.Badger.ConflictRetries < 0 {
			return ErrInvalidRetries
		}
		if c.Badger.GCInterval > 0 && (c.Badger.GCDiscardRatio <= 0 || c.Badger.GCDiscardRatio >= 1) {
			return ErrInvalidDiscardRatio
		}
		switch c.Badger.Codec {
		case CodecBinary, CodecJSON:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Badger.Codec)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLoggingFormat, c.Logging.Format)
	}

	return nil
}

// Logger builds slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.Logging.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLoggingLevel, s)
	}
}
