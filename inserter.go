//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import (
	"context"
	"fmt"
)

// Case is the configuration of neighbors selected by Decide.
type Case string

const (
	CaseEmpty        Case = "empty"
	CaseExtend       Case = "extend"
	CaseDistinct     Case = "distinct"
	CaseHeadBoundary Case = "head_boundary"
	CaseTailBoundary Case = "tail_boundary"
	CaseExtendHead   Case = "extend_head"
	CasePrepend      Case = "prepend"
	CaseExtendTail   Case = "extend_tail"
	CaseAppend       Case = "append"
	CaseCovered      Case = "covered"
	CaseSplit        Case = "split"
)

// Plan is the set of mutations required to insert a slice. Deletes are
// applied before puts.
type Plan struct {
	Case   Case
	Delete []Record
	Put    []Segment
}

func put(c Case, seg ...Segment) Plan {
	return Plan{Case: c, Put: seg}
}

func replace(c Case, old Record, seg Segment) Plan {
	return Plan{Case: c, Delete: []Record{old}, Put: []Segment{seg}}
}

// Apply the plan to the timeline key.
func (p Plan) Apply(ctx context.Context, store Store, key string) error {
	for _, rec := range p.Delete {
		if err := store.Delete(ctx, key, rec); err != nil {
			return err
		}
	}

	for _, seg := range p.Put {
		if err := store.Put(ctx, key, seg); err != nil {
			return err
		}
	}

	return nil
}

// Decide how the observation (ts, status) changes the timeline given the
// neighborhood of ts. The function has no side effects.
func Decide(key string, ts int64, status Status, nb Neighbors) (Plan, error) {
	if err := checkNeighbors(key, ts, nb); err != nil {
		return Plan{}, err
	}

	all := nb.All()
	self := Singleton(ts, status)

	switch len(all) {
	case 0:
		return put(CaseEmpty, self), nil
	case 1:
		n := all[0]
		if n.Status != status {
			return put(CaseDistinct, self), nil
		}
		return replace(CaseExtend, n, Segment{
			Start:  min(n.Start, ts),
			End:    max(n.End, ts),
			Status: status,
		}), nil
	}

	head, tail := all[0], all[len(all)-1]

	switch {
	case ts == head.Start && head.Status != status:
		return put(CaseHeadBoundary, self), nil
	case ts == tail.End && tail.Status != status:
		return put(CaseTailBoundary, self), nil
	case ts < head.Start:
		if head.Status != status {
			return put(CasePrepend, self), nil
		}
		return replace(CaseExtendHead, head, Segment{Start: ts, End: head.End, Status: status}), nil
	case ts > tail.End:
		if tail.Status != status {
			return put(CaseAppend, self), nil
		}
		return replace(CaseExtendTail, tail, Segment{Start: tail.Start, End: ts, Status: status}), nil
	}

	for _, s := range all {
		if !s.Contains(ts) {
			continue
		}

		if s.Status == status {
			return Plan{Case: CaseCovered}, nil
		}

		return Plan{
			Case:   CaseSplit,
			Delete: []Record{s},
			Put: []Segment{
				{Start: s.Start, End: ts, Status: s.Status},
				self,
				{Start: ts, End: s.End, Status: s.Status},
			},
		}, nil
	}

	return Plan{}, &invariantViolation{key: key, ts: ts, why: "no record contains the point"}
}

func checkNeighbors(key string, ts int64, nb Neighbors) error {
	for _, rec := range nb.Before {
		if rec.Start >= ts {
			return &invariantViolation{key: key, ts: ts, why: fmt.Sprintf("record %s is not before the point", rec.Segment)}
		}
	}

	for _, rec := range nb.After {
		if rec.Start < ts {
			return &invariantViolation{key: key, ts: ts, why: fmt.Sprintf("record %s is not after the point", rec.Segment)}
		}
	}

	all := nb.All()
	for i, rec := range all {
		if rec.Start > rec.End {
			return &invariantViolation{key: key, ts: ts, why: fmt.Sprintf("record %s ends before it starts", rec.Segment)}
		}
		if i > 0 && all[i-1].Start > rec.Start {
			return &invariantViolation{key: key, ts: ts, why: "records are out of order"}
		}
	}

	return nil
}
