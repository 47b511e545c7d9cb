//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/depot/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	kv, err := memory.New(nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for _, s := range []timeline.Segment{seg(0, 4, P), seg(3, 3, D), seg(5, 5, D), seg(5, 9, P), seg(12, 12, D), seg(20, 20, P)} {
		require.NoError(t, kv.Put(ctx, "tl::locate", s))
	}

	nb, err := timeline.Locate(ctx, kv, "tl::locate", 5)
	require.NoError(t, err)

	segments := func(seq []timeline.Record) []timeline.Segment {
		out := make([]timeline.Segment, len(seq))
		for i, r := range seq {
			out[i] = r.Segment
		}
		return out
	}

	assert.Equal(t, []timeline.Segment{seg(0, 4, P), seg(3, 3, D)}, segments(nb.Before))
	assert.Equal(t, []timeline.Segment{seg(5, 5, D), seg(5, 9, P)}, segments(nb.After))
	assert.Len(t, nb.All(), 4)

	nb, err = timeline.Locate(ctx, kv, "tl::locate", math.MinInt64)
	require.NoError(t, err)
	assert.Empty(t, nb.Before)
	assert.Equal(t, []timeline.Segment{seg(0, 4, P), seg(3, 3, D)}, segments(nb.After))
}

type failingReader struct{ err error }

func (r failingReader) Scan(context.Context, string, int64, int64, int) ([]timeline.Record, error) {
	return nil, r.err
}

func TestLocateFailure(t *testing.T) {
	_, err := timeline.Locate(context.Background(), failingReader{err: timeline.ErrStoreUnavailable}, "tl::locate", 5)
	require.ErrorIs(t, err, timeline.ErrStoreUnavailable)
	assert.True(t, timeline.IsRetryable(err))
}

func TestRecordError(t *testing.T) {
	err := fmt.Errorf("scan: %w", &timeline.RecordError{
		Key: "tl::error",
		Raw: []byte{0xca, 0xfe},
		Err: fmt.Errorf("%w: truncated", timeline.ErrDecoding),
	})

	var rerr *timeline.RecordError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "tl::error", rerr.Key)
	assert.ErrorIs(t, err, timeline.ErrDecoding)
	assert.Contains(t, err.Error(), "cafe")
	assert.False(t, timeline.IsRetryable(err))
	assert.True(t, timeline.IsRetryable(fmt.Errorf("%w: aborted", timeline.ErrConflict)))
}
