//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline_test

import (
	"testing"

	"github.com/fogfish/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(start, end int64, status timeline.Status) timeline.Record {
	return timeline.NewRecord(seg(start, end, status))
}

func TestDecide(t *testing.T) {
	a := rec(0, 2, P)
	b := rec(8, 10, P)
	c := rec(8, 10, D)
	wide := rec(0, 10, P)

	for _, tt := range []struct {
		name   string
		ts     int64
		status timeline.Status
		nb     timeline.Neighbors
		plan   timeline.Plan
	}{
		{
			name:   "empty",
			ts:     5,
			status: P,
			plan:   timeline.Plan{Case: timeline.CaseEmpty, Put: []timeline.Segment{seg(5, 5, P)}},
		},
		{
			name:   "extend single before",
			ts:     5,
			status: P,
			nb:     timeline.Neighbors{Before: []timeline.Record{a}},
			plan:   timeline.Plan{Case: timeline.CaseExtend, Delete: []timeline.Record{a}, Put: []timeline.Segment{seg(0, 5, P)}},
		},
		{
			name:   "extend single after",
			ts:     5,
			status: P,
			nb:     timeline.Neighbors{After: []timeline.Record{b}},
			plan:   timeline.Plan{Case: timeline.CaseExtend, Delete: []timeline.Record{b}, Put: []timeline.Segment{seg(5, 10, P)}},
		},
		{
			name:   "distinct single",
			ts:     5,
			status: D,
			nb:     timeline.Neighbors{Before: []timeline.Record{wide}},
			plan:   timeline.Plan{Case: timeline.CaseDistinct, Put: []timeline.Segment{seg(5, 5, D)}},
		},
		{
			name:   "head boundary",
			ts:     8,
			status: D,
			nb:     timeline.Neighbors{After: []timeline.Record{b, rec(20, 20, D)}},
			plan:   timeline.Plan{Case: timeline.CaseHeadBoundary, Put: []timeline.Segment{seg(8, 8, D)}},
		},
		{
			name:   "tail boundary",
			ts:     10,
			status: D,
			nb:     timeline.Neighbors{Before: []timeline.Record{a, b}},
			plan:   timeline.Plan{Case: timeline.CaseTailBoundary, Put: []timeline.Segment{seg(10, 10, D)}},
		},
		{
			name:   "extend head",
			ts:     -1,
			status: P,
			nb:     timeline.Neighbors{After: []timeline.Record{a, c}},
			plan:   timeline.Plan{Case: timeline.CaseExtendHead, Delete: []timeline.Record{a}, Put: []timeline.Segment{seg(-1, 2, P)}},
		},
		{
			name:   "prepend",
			ts:     -1,
			status: D,
			nb:     timeline.Neighbors{After: []timeline.Record{a, c}},
			plan:   timeline.Plan{Case: timeline.CasePrepend, Put: []timeline.Segment{seg(-1, -1, D)}},
		},
		{
			name:   "extend tail",
			ts:     12,
			status: D,
			nb:     timeline.Neighbors{Before: []timeline.Record{a, c}},
			plan:   timeline.Plan{Case: timeline.CaseExtendTail, Delete: []timeline.Record{c}, Put: []timeline.Segment{seg(8, 12, D)}},
		},
		{
			name:   "append",
			ts:     12,
			status: P,
			nb:     timeline.Neighbors{Before: []timeline.Record{a, c}},
			plan:   timeline.Plan{Case: timeline.CaseAppend, Put: []timeline.Segment{seg(12, 12, P)}},
		},
		{
			name:   "covered",
			ts:     5,
			status: P,
			nb:     timeline.Neighbors{Before: []timeline.Record{wide}, After: []timeline.Record{rec(20, 20, D)}},
			plan:   timeline.Plan{Case: timeline.CaseCovered},
		},
		{
			name:   "split",
			ts:     5,
			status: D,
			nb:     timeline.Neighbors{Before: []timeline.Record{wide}, After: []timeline.Record{rec(20, 20, D)}},
			plan: timeline.Plan{
				Case:   timeline.CaseSplit,
				Delete: []timeline.Record{wide},
				Put:    []timeline.Segment{seg(0, 5, P), seg(5, 5, D), seg(5, 10, P)},
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := timeline.Decide("tl::decide", tt.ts, tt.status, tt.nb)
			require.NoError(t, err)
			assert.Equal(t, tt.plan, plan)
		})
	}
}

func TestDecideInvariantViolation(t *testing.T) {
	for _, tt := range []struct {
		name string
		ts   int64
		nb   timeline.Neighbors
	}{
		{
			name: "inverted record",
			ts:   5,
			nb:   timeline.Neighbors{Before: []timeline.Record{{Segment: seg(3, 1, P)}}},
		},
		{
			name: "before is not before",
			ts:   5,
			nb:   timeline.Neighbors{Before: []timeline.Record{rec(6, 7, P)}},
		},
		{
			name: "after is not after",
			ts:   5,
			nb:   timeline.Neighbors{After: []timeline.Record{rec(4, 7, P)}},
		},
		{
			name: "uncovered point between records",
			ts:   5,
			nb:   timeline.Neighbors{Before: []timeline.Record{rec(0, 2, P)}, After: []timeline.Record{rec(8, 10, D)}},
		},
		{
			name: "uncovered point between same status records",
			ts:   5,
			nb:   timeline.Neighbors{Before: []timeline.Record{rec(0, 2, D)}, After: []timeline.Record{rec(8, 10, D)}},
		},
		{
			name: "out of order",
			ts:   5,
			nb:   timeline.Neighbors{Before: []timeline.Record{rec(3, 3, P), rec(1, 1, P)}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := timeline.Decide("tl::decide", tt.ts, D, tt.nb)
			require.ErrorIs(t, err, timeline.ErrInvariantViolation)
			assert.False(t, timeline.IsRetryable(err))
			assert.Contains(t, err.Error(), "tl::decide")
		})
	}
}
