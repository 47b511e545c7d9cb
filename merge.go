//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import (
	"cmp"
	"slices"
)

// Merge computes the run-length segments of a batch of observations: slices
// are ordered by timestamp and consecutive slices of equal status collapse
// into one segment spanning the first and the last of them. When the batch
// contains several observations of one timestamp the last one wins.
func Merge(seq []Slice) []Segment {
	if len(seq) == 0 {
		return nil
	}

	sorted := slices.Clone(seq)
	slices.SortStableFunc(sorted, func(a, b Slice) int { return cmp.Compare(a.Timestamp, b.Timestamp) })

	// last write wins per timestamp
	points := sorted[:0]
	for _, s := range sorted {
		if len(points) > 0 && points[len(points)-1].Timestamp == s.Timestamp {
			points[len(points)-1] = s
			continue
		}
		points = append(points, s)
	}

	segments := make([]Segment, 0)
	run := Singleton(points[0].Timestamp, points[0].Status)
	for _, s := range points[1:] {
		if s.Status == run.Status {
			run.End = s.Timestamp
			continue
		}
		segments = append(segments, run)
		run = Singleton(s.Timestamp, s.Status)
	}

	return append(segments, run)
}
