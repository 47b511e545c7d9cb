//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import "context"

// Reader is an ordered view of timelines. Records are keyed by Start, ties
// are ordered by End and Status.
type Reader interface {
	// Scan returns records of timeline key whose Start lies within [lo, hi],
	// ascending. The limit <= 0 disables the limit.
	Scan(ctx context.Context, key string, lo, hi int64, limit int) ([]Record, error)
}

// Store is an ordered set of segments per timeline. The set is content
// addressed: putting an already stored segment does not create a duplicate.
type Store interface {
	Reader

	// Put adds the segment to timeline key, assigning a new record identity.
	Put(ctx context.Context, key string, seg Segment) error

	// Delete removes the record if both content and identity match the
	// stored one. Stale records are ignored.
	Delete(ctx context.Context, key string, rec Record) error
}

// Executor runs a read-modify-write unit of work over a single timeline.
//
// Execute must guarantee that fn observes and mutates the timeline in
// isolation from other units of work on the same key, and that either all
// mutations made by fn are applied or none of them. The only exception is
// the reference executor used by tests.
type Executor interface {
	Reader
	Execute(ctx context.Context, key string, fn func(Store) error) error
}

// Codec defines the persistent form of records.
type Codec interface {
	Encode(Record) ([]byte, error)
	Decode([]byte) (Record, error)
}
