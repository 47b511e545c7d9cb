//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/internal/sortedmap"
)

// NonAtomic executor runs unit of work directly on the map. Concurrent units
// of work over the same timeline interleave. Use it as reference only.
func (kv *Map) NonAtomic() timeline.Executor { return nonAtomic{Map: kv} }

type nonAtomic struct{ *Map }

func (e nonAtomic) Execute(ctx context.Context, key string, fn func(timeline.Store) error) error {
	return fn(e.Map)
}

// Locked executor serializes units of work per timeline. Mutations are
// staged and applied at once when unit of work succeeds.
func (kv *Map) Locked() timeline.Executor { return locked{Map: kv} }

type locked struct{ *Map }

func (e locked) Execute(ctx context.Context, key string, fn func(timeline.Store) error) error {
	unlock := e.locks.lock(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &staged{kv: e.Map, key: key}
	if err := fn(tx); err != nil {
		return err
	}

	return e.commit(key, tx.ops)
}

func (kv *Map) commit(key string, ops []op) error {
	if len(ops) == 0 {
		return nil
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	tl, err := kv.ensure(key, true)
	if err != nil {
		return err
	}

	for _, op := range ops {
		if op.delete {
			cut(tl.store, op.rec)
		} else {
			put(tl.store, op.rec)
		}
	}

	return nil
}

// -------------------------------------------------------------------------

type op struct {
	delete bool
	rec    timeline.Record
}

// staged store reads through the map and overlays own mutations
type staged struct {
	kv  *Map
	key string
	ops []op
}

func (tx *staged) bound(key string) error {
	if key != tx.key {
		return fmt.Errorf("%w: %q, not %q", ErrForeignKey, tx.key, key)
	}
	return nil
}

func (tx *staged) Scan(ctx context.Context, key string, lo, hi int64, limit int) ([]timeline.Record, error) {
	if err := tx.bound(key); err != nil {
		return nil, err
	}

	if len(tx.ops) == 0 {
		return tx.kv.Scan(ctx, key, lo, hi, limit)
	}

	seq, err := tx.kv.Scan(ctx, key, lo, hi, 0)
	if err != nil {
		return nil, err
	}

	for _, op := range tx.ops {
		if op.rec.Start < lo || op.rec.Start > hi {
			continue
		}

		at := slices.IndexFunc(seq, func(r timeline.Record) bool { return r.Segment == op.rec.Segment })
		switch {
		case op.delete && at != -1 && seq[at].ID == op.rec.ID:
			seq = slices.Delete(seq, at, at+1)
		case !op.delete && at == -1:
			seq = append(seq, op.rec)
		}
	}

	slices.SortFunc(seq, func(a, b timeline.Record) int {
		return bytes.Compare(sortedmap.Key(a.Segment), sortedmap.Key(b.Segment))
	})

	if limit > 0 && len(seq) > limit {
		seq = seq[:limit]
	}

	return seq, nil
}

func (tx *staged) Put(ctx context.Context, key string, seg timeline.Segment) error {
	if err := tx.bound(key); err != nil {
		return err
	}

	if err := seg.Validate(); err != nil {
		return err
	}

	tx.ops = append(tx.ops, op{rec: timeline.NewRecord(seg)})
	return nil
}

func (tx *staged) Delete(ctx context.Context, key string, rec timeline.Record) error {
	if err := tx.bound(key); err != nil {
		return err
	}

	tx.ops = append(tx.ops, op{delete: true, rec: rec})
	return nil
}

// -------------------------------------------------------------------------

// keyLock is a set of mutexes, one per key in use
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*refLock)}
}

func (l *keyLock) lock(key string) func() {
	l.mu.Lock()
	rl, has := l.locks[key]
	if !has {
		rl = &refLock{}
		l.locks[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()

	return func() {
		rl.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
