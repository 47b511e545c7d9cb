//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package sortedmap defines the order preserving key of stored segments and
// helpers to walk skiplist maps keyed by it.
//
// The key is 17 bytes: start and end as sign flipped big endian int64
// followed by the status code. Byte order of keys equals the order of
// segments by (start, end, status).
package sortedmap

import (
	"encoding/binary"
	"fmt"

	"github.com/fogfish/golem/trait/pair"
	"github.com/fogfish/skiplist"
	"github.com/fogfish/timeline"
)

const (
	boundSize = 8
	KeySize   = 2*boundSize + 1
)

const signBit = uint64(1) << 63

func putInt64(b []byte, x int64) { binary.BigEndian.PutUint64(b, uint64(x)^signBit) }

func getInt64(b []byte) int64 { return int64(binary.BigEndian.Uint64(b) ^ signBit) }

// Key of the segment
func Key(seg timeline.Segment) []byte {
	b := make([]byte, KeySize)
	putInt64(b[0:boundSize], seg.Start)
	putInt64(b[boundSize:2*boundSize], seg.End)
	b[2*boundSize] = byte(seg.Status)
	return b
}

// Bound is the smallest key of segments starting at start.
func Bound(start int64) []byte {
	b := make([]byte, boundSize)
	putInt64(b, start)
	return b
}

// Start decodes start of the segment from the key prefix.
func Start(key []byte) (int64, error) {
	if len(key) < boundSize {
		return 0, fmt.Errorf("%w: key %x is too short", timeline.ErrDecoding, key)
	}
	return getInt64(key), nil
}

// Segment decodes the key.
func Segment(key []byte) (timeline.Segment, error) {
	if len(key) != KeySize {
		return timeline.Segment{}, fmt.Errorf("%w: key %x is not %d bytes", timeline.ErrDecoding, key, KeySize)
	}

	seg := timeline.Segment{
		Start:  getInt64(key[0:boundSize]),
		End:    getInt64(key[boundSize : 2*boundSize]),
		Status: timeline.Status(key[2*boundSize]),
	}

	if err := seg.Validate(); err != nil {
		return timeline.Segment{}, fmt.Errorf("%w: key %x: %w", timeline.ErrDecoding, key, err)
	}

	return seg, nil
}

// Prefix of all keys that belong to the timeline in a shared keyspace. The
// name is length prefixed, names never collide with each other.
func Prefix(tag byte, name string) []byte {
	b := make([]byte, 1+4+len(name))
	b[0] = tag
	binary.BigEndian.PutUint32(b[1:5], uint32(len(name)))
	copy(b[5:], name)
	return b
}

// Join concatenates key parts into a fresh slice.
func Join(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}

	b := make([]byte, 0, size)
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// Seek returns pairs of the map with key >= bound, nil if there are none.
func Seek[V any](kv *skiplist.Map[string, V], bound string) pair.Seq[string, V] {
	return skiplist.ForMap(kv, kv.Successors(bound))
}
