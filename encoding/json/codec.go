//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package json implements JSON form of timeline records.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/fogfish/guid/v2"
	"github.com/fogfish/timeline"
)

type record struct {
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Status uint8  `json:"status"`
	ID     []byte `json:"id"`
}

func fromRecord(rec timeline.Record) record {
	return record{
		Start:  rec.Start,
		End:    rec.End,
		Status: uint8(rec.Status),
		ID:     guid.Bytes(rec.ID),
	}
}

func (r record) toRecord() (timeline.Record, error) {
	seg := timeline.Segment{Start: r.Start, End: r.End, Status: timeline.Status(r.Status)}
	if err := seg.Validate(); err != nil {
		return timeline.Record{}, fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
	}

	id, err := guid.FromBytes(r.ID)
	if err != nil {
		return timeline.Record{}, fmt.Errorf("%w: invalid id: %w", timeline.ErrDecoding, err)
	}

	return timeline.Record{Segment: seg, ID: id}, nil
}

// Codec encodes records as JSON objects {"start", "end", "status", "id"}.
type Codec struct{}

var _ timeline.Codec = Codec{}

func (Codec) Encode(rec timeline.Record) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	b, err := json.Marshal(fromRecord(rec))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", timeline.ErrEncoding, err)
	}

	return b, nil
}

func (Codec) Decode(b []byte) (timeline.Record, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return timeline.Record{}, fmt.Errorf("%w: %w", timeline.ErrDecoding, err)
	}

	return r.toRecord()
}
