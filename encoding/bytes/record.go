//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package bytes

import (
	"bytes"
	"fmt"

	"github.com/fogfish/timeline"
)

// Version of binary record layout
const Version = 1

// Codec encodes records as
//
//	version:uint8 | start:int64 | end:int64 | status:uint8 | id:blob
type Codec struct{}

var _ timeline.Codec = Codec{}

func (Codec) Encode(rec timeline.Record) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w := NewWriterTyped(buf)
	w.WriteUInt8(Version)
	w.WriteInt64(rec.Start)
	w.WriteInt64(rec.End)
	w.WriteUInt8(uint8(rec.Status))
	w.WriteGUID(rec.ID)

	if w.Fail != nil {
		return nil, fmt.Errorf("%w: %w", timeline.ErrEncoding, w.Fail)
	}

	return buf.Bytes(), nil
}

func (Codec) Decode(b []byte) (timeline.Record, error) {
	buf := bytes.NewReader(b)
	r := NewReaderTyped(buf)

	var (
		version, status uint8
		rec             timeline.Record
	)

	r.ReadUInt8(&version)
	if r.Fail == nil && version != Version {
		return timeline.Record{}, fmt.Errorf("%w: unsupported version %d", timeline.ErrDecoding, version)
	}
	r.ReadInt64(&rec.Start)
	r.ReadInt64(&rec.End)
	r.ReadUInt8(&status)
	r.ReadGUID(&rec.ID)

	if r.Fail != nil {
		return timeline.Record{}, fmt.Errorf("%w: %w", timeline.ErrDecoding, r.Fail)
	}

	if buf.Len() != 0 {
		return timeline.Record{}, fmt.Errorf("%w: %d trailing bytes", timeline.ErrDecoding, buf.Len())
	}

	rec.Status = timeline.Status(status)
	if err := rec.Validate(); err != nil {
		return timeline.Record{}, fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
	}

	return rec, nil
}
