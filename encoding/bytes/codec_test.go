//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package bytes_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/fogfish/timeline"
	codec "github.com/fogfish/timeline/encoding/bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTyped(t *testing.T) {
	buf := &bytes.Buffer{}
	w := codec.NewWriterTyped(buf)
	w.WriteUInt8(7)
	w.WriteUInt32(1 << 20)
	w.WriteInt64(math.MinInt64)
	w.WriteBlob([]byte("blob"))
	require.NoError(t, w.Fail)

	var (
		u8   uint8
		u32  uint32
		i64  int64
		blob []byte
	)

	r := codec.NewReaderTyped(buf)
	r.ReadUInt8(&u8)
	r.ReadUInt32(&u32)
	r.ReadInt64(&i64)
	r.ReadBlob(&blob)
	require.NoError(t, r.Fail)

	assert.Equal(t, uint8(7), u8)
	assert.Equal(t, uint32(1<<20), u32)
	assert.Equal(t, int64(math.MinInt64), i64)
	assert.Equal(t, []byte("blob"), blob)

	r.ReadUInt8(&u8)
	assert.Error(t, r.Fail)
}

func TestCodec(t *testing.T) {
	c := codec.Codec{}
	rec := timeline.NewRecord(timeline.Segment{Start: -1, End: math.MaxInt64, Status: timeline.Status(200)})

	b, err := c.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, byte(codec.Version), b[0])

	decoded, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestCodecErrors(t *testing.T) {
	c := codec.Codec{}

	_, err := c.Encode(timeline.Record{Segment: timeline.Segment{Start: 1, End: 1}})
	assert.ErrorIs(t, err, timeline.ErrEncoding)

	b, err := c.Encode(timeline.NewRecord(timeline.Segment{Start: 1, End: 2, Status: timeline.StatusDone}))
	require.NoError(t, err)

	t.Run("Truncated", func(t *testing.T) {
		_, err := c.Decode(b[:len(b)-1])
		assert.ErrorIs(t, err, timeline.ErrDecoding)
	})

	t.Run("Trailing", func(t *testing.T) {
		_, err := c.Decode(append(bytes.Clone(b), 0))
		assert.ErrorIs(t, err, timeline.ErrDecoding)
	})

	t.Run("Version", func(t *testing.T) {
		raw := bytes.Clone(b)
		raw[0] = 99
		_, err := c.Decode(raw)
		assert.ErrorIs(t, err, timeline.ErrDecoding)
	})

	t.Run("Inverted", func(t *testing.T) {
		raw := bytes.Clone(b)
		// start follows version byte
		copy(raw[1:9], []byte{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
		_, err := c.Decode(raw)
		assert.ErrorIs(t, err, timeline.ErrDecoding)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := c.Decode(nil)
		assert.ErrorIs(t, err, timeline.ErrDecoding)
	})
}
