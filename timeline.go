//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package timeline maintains, per key, a compact set of maximal intervals
// tagged with a status, built incrementally from point observations.
//
// Each observation (timestamp, status) either extends, splits or is added
// next to the stored segments so that a range query returns the run-length
// view of the observed process without storing one record per point.
package timeline

import (
	"context"
	"log/slog"
	"time"
)

// Option configures Timeline
type Option func(*Timeline)

// WithLogger sets the structured logger. Timeline is silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(tl *Timeline) {
		if logger != nil {
			tl.logger = logger
		}
	}
}

// Timeline is the entry point for inserting slices and querying segments.
// It is safe for concurrent use as long as the executor is.
type Timeline struct {
	exec   Executor
	logger *slog.Logger
}

// Create new instance of timelines on top of the executor
func New(exec Executor, opts ...Option) *Timeline {
	tl := &Timeline{
		exec:   exec,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(tl)
	}

	return tl
}

// InsertSlice records that at timestamp ts the timeline key has the status.
// Locating neighbors, deciding and mutating run as one unit of work of the
// executor.
func (tl *Timeline) InsertSlice(ctx context.Context, key string, ts int64, status Status) error {
	if err := Singleton(ts, status).Validate(); err != nil {
		insertErrors.WithLabelValues(errorKind(err)).Inc()
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()

	var plan Plan
	err := tl.exec.Execute(ctx, key,
		func(store Store) error {
			nb, err := Locate(ctx, store, key, ts)
			if err != nil {
				return err
			}

			plan, err = Decide(key, ts, status, nb)
			if err != nil {
				return err
			}

			return plan.Apply(ctx, store, key)
		},
	)
	insertDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		kind := errorKind(err)
		insertErrors.WithLabelValues(kind).Inc()
		tl.logger.WarnContext(ctx, "insert slice failed",
			slog.String("key", key),
			slog.Int64("ts", ts),
			slog.String("status", status.String()),
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		return err
	}

	insertTotal.WithLabelValues(string(plan.Case)).Inc()
	tl.logger.DebugContext(ctx, "slice inserted",
		slog.String("key", key),
		slog.Int64("ts", ts),
		slog.String("status", status.String()),
		slog.String("case", string(plan.Case)),
		slog.Int("deleted", len(plan.Delete)),
		slog.Int("stored", len(plan.Put)),
	)

	return nil
}

// Segments returns stored segments of timeline key whose start lies within
// [start, end], ascending. Segments that begin before start are not returned
// even if they reach into the range.
func (tl *Timeline) Segments(ctx context.Context, key string, start, end int64) ([]Segment, error) {
	if start > end {
		return []Segment{}, nil
	}

	started := time.Now()
	seq, err := tl.exec.Scan(ctx, key, start, end, 0)
	queryDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		tl.logger.WarnContext(ctx, "segments query failed",
			slog.String("key", key),
			slog.Int64("start", start),
			slog.Int64("end", end),
			slog.Any("error", err),
		)
		return nil, err
	}

	segments := make([]Segment, len(seq))
	for i, rec := range seq {
		segments[i] = rec.Segment
	}
	querySegments.Observe(float64(len(segments)))

	return segments, nil
}
