//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package memory

import (
	"github.com/fogfish/golem/trait/pair"
	"github.com/fogfish/guid/v2"
	"github.com/fogfish/skiplist"
	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/internal/sortedmap"
)

// forRange iterates over segments whose start is within [lo, hi].
// It returns nil if range is empty.
func forRange(kv *skiplist.Map[string, guid.K], lo, hi int64) pair.Seq[string, guid.K] {
	return pair.TakeWhile(
		sortedmap.Seek(kv, string(sortedmap.Bound(lo))),
		func(key string, _ guid.K) bool {
			start, err := sortedmap.Start([]byte(key))
			if err != nil {
				// malformed key is reported by decode
				return true
			}

			return start <= hi
		},
	)
}

func decode(key string, id guid.K) (timeline.Record, error) {
	seg, err := sortedmap.Segment([]byte(key))
	if err != nil {
		return timeline.Record{}, err
	}

	return timeline.Record{Segment: seg, ID: id}, nil
}
