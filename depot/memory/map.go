//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package memory implements timelines on top of in-memory skiplists. Each
// timeline is a sorted map from segment key to record identity. Timelines
// are optionally persisted through Writer and lazily loaded through Reader.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/fogfish/golem/trait/pair"
	"github.com/fogfish/guid/v2"
	"github.com/fogfish/skiplist"
	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/internal/sortedmap"
)

var (
	// ErrNoWriter is returned by Sync when map is not persistent
	ErrNoWriter = errors.New("no writer")

	// ErrForeignKey is returned when unit of work touches another timeline
	ErrForeignKey = errors.New("unit of work is bound to another timeline")
)

type Writer interface {
	WriteMeta(keys []string) error
	Write(key string, seq []timeline.Record) error
}

type Reader interface {
	ReadMeta() ([]string, error)
	Read(key string) ([]timeline.Record, error)
}

// segments of single timeline, swapped out until first access
type line struct {
	store   *skiplist.Map[string, guid.K]
	swapped bool
}

// Map of timelines
type Map struct {
	mu        sync.RWMutex
	writer    Writer
	reader    Reader
	opts      []skiplist.ConfigSet[string]
	timelines map[string]*line
	locks     *keyLock
}

var _ timeline.Store = (*Map)(nil)

// Create new instance of timelines map. Index of timelines is read
// eagerly, timelines itself on demand.
func New(
	writer Writer,
	reader Reader,
	opts ...skiplist.ConfigSet[string],
) (*Map, error) {
	kv := &Map{
		writer:    writer,
		reader:    reader,
		opts:      opts,
		timelines: make(map[string]*line),
		locks:     newKeyLock(),
	}

	if reader != nil {
		keys, err := reader.ReadMeta()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", timeline.ErrStoreUnavailable, err)
		}

		for _, key := range keys {
			kv.timelines[key] = &line{swapped: true}
		}
	}

	return kv, nil
}

// Keys of known timelines, sorted
func (kv *Map) Keys() []string {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	keys := make([]string, 0, len(kv.timelines))
	for key := range kv.timelines {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

// Scan records of timeline
func (kv *Map) Scan(ctx context.Context, key string, lo, hi int64, limit int) ([]timeline.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tl, err := kv.lookup(key, false)
	if err != nil {
		return nil, err
	}

	out := make([]timeline.Record, 0)
	if tl == nil {
		return out, nil
	}

	kv.mu.RLock()
	defer kv.mu.RUnlock()

	seq := forRange(tl.store, lo, hi)
	for has := seq != nil; has; has = seq.Next() {
		rec, err := decode(seq.Key(), seq.Value())
		if err != nil {
			return nil, &timeline.RecordError{Key: key, Raw: []byte(seq.Key()), Err: err}
		}

		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

// Put segment to timeline
func (kv *Map) Put(ctx context.Context, key string, seg timeline.Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	tl, err := kv.ensure(key, true)
	if err != nil {
		return err
	}

	put(tl.store, timeline.NewRecord(seg))
	return nil
}

// Delete record from timeline
func (kv *Map) Delete(ctx context.Context, key string, rec timeline.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	tl, err := kv.ensure(key, false)
	if err != nil || tl == nil {
		return err
	}

	cut(tl.store, rec)
	return nil
}

// Sync loaded timelines and index to storage
func (kv *Map) Sync() error {
	if kv.writer == nil {
		return ErrNoWriter
	}

	kv.mu.RLock()
	defer kv.mu.RUnlock()

	keys := make([]string, 0, len(kv.timelines))
	for key, tl := range kv.timelines {
		keys = append(keys, key)
		if tl.swapped {
			continue
		}

		seq, err := records(key, tl.store)
		if err != nil {
			return err
		}

		if err := kv.writer.Write(key, seq); err != nil {
			return fmt.Errorf("%w: %w", timeline.ErrStoreUnavailable, err)
		}
	}
	slices.Sort(keys)

	if err := kv.writer.WriteMeta(keys); err != nil {
		return fmt.Errorf("%w: %w", timeline.ErrStoreUnavailable, err)
	}

	return nil
}

// -------------------------------------------------------------------------

func (kv *Map) lookup(key string, create bool) (*line, error) {
	kv.mu.RLock()
	tl, has := kv.timelines[key]
	loaded := has && !tl.swapped
	kv.mu.RUnlock()

	if loaded {
		return tl, nil
	}

	if !has && !create {
		return nil, nil
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	return kv.ensure(key, create)
}

// ensure timeline is loaded, caller holds the write lock
func (kv *Map) ensure(key string, create bool) (*line, error) {
	tl, has := kv.timelines[key]
	if !has {
		if !create {
			return nil, nil
		}

		tl = &line{store: skiplist.NewMap[string, guid.K](kv.opts...)}
		kv.timelines[key] = tl
		return tl, nil
	}

	if !tl.swapped {
		return tl, nil
	}

	seq, err := kv.reader.Read(key)
	if err != nil {
		return nil, fmt.Errorf("%w: timeline %q: %w", timeline.ErrStoreUnavailable, key, err)
	}

	store := skiplist.NewMap[string, guid.K](kv.opts...)
	for _, rec := range seq {
		put(store, rec)
	}

	tl.store = store
	tl.swapped = false

	return tl, nil
}

func put(store *skiplist.Map[string, guid.K], rec timeline.Record) {
	key := string(sortedmap.Key(rec.Segment))
	if _, has := store.Get(key); has {
		return
	}

	store.Put(key, rec.ID)
}

func cut(store *skiplist.Map[string, guid.K], rec timeline.Record) {
	key := string(sortedmap.Key(rec.Segment))
	id, has := store.Get(key)
	if !has || id != rec.ID {
		return
	}

	store.Cut(key)
}

func records(key string, store *skiplist.Map[string, guid.K]) ([]timeline.Record, error) {
	seq := make([]timeline.Record, 0, store.Length)
	err := pair.ForEach(
		skiplist.ForMap(store, store.Keys()),
		func(k string, id guid.K) error {
			rec, err := decode(k, id)
			if err != nil {
				return &timeline.RecordError{Key: key, Raw: []byte(k), Err: err}
			}
			seq = append(seq, rec)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return seq, nil
}
