//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fogfish/guid/v2"
)

// Status of the observed process at a point of the timeline. The set of
// statuses is open, the algorithm only compares statuses for equality.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusDone
)

var statusNames = map[Status]string{
	StatusPending: "PENDING",
	StatusDone:    "DONE",
}

func (s Status) String() string {
	if name, has := statusNames[s]; has {
		return name
	}
	return fmt.Sprintf("STATUS(%d)", uint8(s))
}

// Valid reports if status is encodable. Zero is reserved.
func (s Status) Valid() bool { return s != StatusUnknown }

// ParseStatus accepts either the symbolic name or the numeric code.
func ParseStatus(s string) (Status, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for code, n := range statusNames {
		if n == name {
			return code, nil
		}
	}

	code, err := strconv.ParseUint(name, 10, 8)
	if err != nil || code == 0 {
		return StatusUnknown, fmt.Errorf("%w: unknown status %q", ErrEncoding, s)
	}

	return Status(code), nil
}

// Slice is a single observation: at Timestamp the status is Status.
type Slice struct {
	Timestamp int64
	Status    Status
}

// Segment is a closed interval [Start, End] of the timeline with a status.
type Segment struct {
	Start  int64
	End    int64
	Status Status
}

// Singleton segment covers exactly one point.
func Singleton(ts int64, status Status) Segment {
	return Segment{Start: ts, End: ts, Status: status}
}

// Contains reports if point belongs to the segment.
func (seg Segment) Contains(ts int64) bool {
	return seg.Start <= ts && ts <= seg.End
}

func (seg Segment) String() string {
	return fmt.Sprintf("[%d, %d, %s]", seg.Start, seg.End, seg.Status)
}

// Record is a segment as it is stored. ID is assigned by the store on put
// and is the deletion token of the record.
type Record struct {
	Segment
	ID guid.K
}

// NewRecord allocates a fresh identity for the segment.
func NewRecord(seg Segment) Record {
	return Record{Segment: seg, ID: guid.G(guid.Clock)}
}

// Validate checks the segment is encodable as a stored record.
func (seg Segment) Validate() error {
	if seg.Start > seg.End {
		return fmt.Errorf("%w: start %d after end %d", ErrEncoding, seg.Start, seg.End)
	}
	if !seg.Status.Valid() {
		return fmt.Errorf("%w: invalid status %d", ErrEncoding, uint8(seg.Status))
	}
	return nil
}
