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

func TestParseStatus(t *testing.T) {
	for input, expected := range map[string]timeline.Status{
		"PENDING": P,
		"done":    D,
		" Done ":  D,
		"1":       P,
		"42":      timeline.Status(42),
		"255":     timeline.Status(255),
	} {
		status, err := timeline.ParseStatus(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, status, input)
	}

	for _, input := range []string{"", "0", "256", "-1", "RUNNING"} {
		_, err := timeline.ParseStatus(input)
		assert.ErrorIs(t, err, timeline.ErrEncoding, input)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "PENDING", P.String())
	assert.Equal(t, "DONE", D.String())
	assert.Equal(t, "STATUS(7)", timeline.Status(7).String())
}

func TestSegment(t *testing.T) {
	s := seg(5, 10, P)

	assert.True(t, s.Contains(5))
	assert.True(t, s.Contains(10))
	assert.False(t, s.Contains(11))
	assert.Equal(t, "[5, 10, PENDING]", s.String())

	assert.NoError(t, s.Validate())
	assert.ErrorIs(t, seg(10, 5, P).Validate(), timeline.ErrEncoding)
	assert.ErrorIs(t, seg(5, 5, timeline.StatusUnknown).Validate(), timeline.ErrEncoding)
}

func TestNewRecord(t *testing.T) {
	a := timeline.NewRecord(seg(1, 1, P))
	b := timeline.NewRecord(seg(1, 1, P))

	assert.Equal(t, a.Segment, b.Segment)
	assert.NotEqual(t, a.ID, b.ID)
}
