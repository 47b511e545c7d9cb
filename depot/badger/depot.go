//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/encoding/bytes"
	"github.com/fogfish/timeline/internal/sortedmap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	tagRecord = 'r'
	tagGuard  = 'g'
)

var conflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "timeline_badger_conflicts_total",
	Help: "Total number of badger transactions aborted by a concurrent insert",
})

// Depot is durable transactional store of timelines
type Depot struct {
	db      *badger.DB
	gc      *gcRunner
	codec   timeline.Codec
	retries int
	logger  *slog.Logger
}

var _ timeline.Executor = (*Depot)(nil)

// Open depot
func Open(cfg Config) (*Depot, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}

	depot := &Depot{
		db:      db,
		codec:   cfg.Codec,
		retries: max(cfg.ConflictRetries, 0),
		logger:  cfg.Logger,
	}

	if depot.codec == nil {
		depot.codec = bytes.Codec{}
	}

	if depot.logger == nil {
		depot.logger = slog.New(slog.DiscardHandler)
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		depot.gc, err = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, depot.logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
	}

	return depot, nil
}

// Close depot
func (d *Depot) Close() error {
	if d.gc != nil {
		d.gc.stop()
	}
	return d.db.Close()
}

// Scan records of timeline from the latest committed state
func (d *Depot) Scan(ctx context.Context, key string, lo, hi int64, limit int) ([]timeline.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var seq []timeline.Record
	err := d.db.View(func(txn *badger.Txn) (err error) {
		seq, err = d.scan(txn, key, lo, hi, limit)
		return
	})
	if err != nil {
		return nil, unavailable(err)
	}

	return seq, nil
}

// Execute unit of work in a read-write transaction. Transactions aborted by
// a concurrent insert into the same timeline apply nothing and are repeated.
func (d *Depot) Execute(ctx context.Context, key string, fn func(timeline.Store) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := d.execute(ctx, key, fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		conflicts.Inc()
		if attempt >= d.retries {
			return fmt.Errorf("%w: timeline %q aborted %d times", timeline.ErrConflict, key, attempt+1)
		}

		d.logger.DebugContext(ctx, "insert conflict, retry",
			slog.String("key", key),
			slog.Int("attempt", attempt+1),
		)
	}
}

func (d *Depot) execute(ctx context.Context, key string, fn func(timeline.Store) error) error {
	txn := d.db.NewTransaction(true)
	defer txn.Discard()

	if err := guard(txn, key); err != nil {
		return err
	}

	if err := fn(&txnStore{depot: d, txn: txn, key: key}); err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return err
		}
		return unavailable(err)
	}

	return nil
}

// guard bumps revision of timeline. Any two transactions over the same
// timeline read and write the guard key, one of them is aborted at commit.
func guard(txn *badger.Txn, key string) error {
	gk := sortedmap.Prefix(tagGuard, key)

	var rev uint64
	item, err := txn.Get(gk)
	switch {
	case err == nil:
		val, err := item.ValueCopy(nil)
		if err != nil {
			return unavailable(err)
		}
		if len(val) == 8 {
			rev = binary.BigEndian.Uint64(val)
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return unavailable(err)
	}

	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, rev+1)
	if err := txn.Set(gk, val); err != nil {
		return unavailable(err)
	}

	return nil
}

func (d *Depot) scan(txn *badger.Txn, key string, lo, hi int64, limit int) ([]timeline.Record, error) {
	prefix := sortedmap.Prefix(tagRecord, key)

	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, Prefix: prefix})
	defer it.Close()

	seq := make([]timeline.Record, 0)
	for it.Seek(sortedmap.Join(prefix, sortedmap.Bound(lo))); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		sk := item.KeyCopy(nil)[len(prefix):]

		start, err := sortedmap.Start(sk)
		if err != nil {
			return nil, &timeline.RecordError{Key: key, Raw: sk, Err: err}
		}
		if start > hi {
			break
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}

		rec, err := d.decode(key, sk, raw)
		if err != nil {
			return nil, err
		}

		seq = append(seq, rec)
		if limit > 0 && len(seq) == limit {
			break
		}
	}

	return seq, nil
}

func (d *Depot) decode(key string, sk, raw []byte) (timeline.Record, error) {
	seg, err := sortedmap.Segment(sk)
	if err != nil {
		return timeline.Record{}, &timeline.RecordError{Key: key, Raw: sk, Err: err}
	}

	rec, err := d.codec.Decode(raw)
	if err != nil {
		return timeline.Record{}, &timeline.RecordError{Key: key, Raw: raw, Err: err}
	}

	if rec.Segment != seg {
		return timeline.Record{}, &timeline.RecordError{
			Key: key,
			Raw: raw,
			Err: fmt.Errorf("%w: record %s is stored as %s", timeline.ErrDecoding, rec.Segment, seg),
		}
	}

	return rec, nil
}

// unavailable classifies failures of database
func unavailable(err error) error {
	var rerr *timeline.RecordError
	if errors.As(err, &rerr) || errors.Is(err, timeline.ErrStoreUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", timeline.ErrStoreUnavailable, err)
}

// -------------------------------------------------------------------------

// txnStore is the view of timeline within transaction
type txnStore struct {
	depot *Depot
	txn   *badger.Txn
	key   string
}

func (s *txnStore) bound(key string) error {
	if key != s.key {
		return fmt.Errorf("unit of work is bound to timeline %q, not %q", s.key, key)
	}
	return nil
}

func (s *txnStore) Scan(ctx context.Context, key string, lo, hi int64, limit int) ([]timeline.Record, error) {
	if err := s.bound(key); err != nil {
		return nil, err
	}

	seq, err := s.depot.scan(s.txn, key, lo, hi, limit)
	if err != nil {
		return nil, unavailable(err)
	}

	return seq, nil
}

func (s *txnStore) Put(ctx context.Context, key string, seg timeline.Segment) error {
	if err := s.bound(key); err != nil {
		return err
	}

	if err := seg.Validate(); err != nil {
		return err
	}

	sk := sortedmap.Join(sortedmap.Prefix(tagRecord, key), sortedmap.Key(seg))
	_, err := s.txn.Get(sk)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		return unavailable(err)
	}

	raw, err := s.depot.codec.Encode(timeline.NewRecord(seg))
	if err != nil {
		return err
	}

	if err := s.txn.Set(sk, raw); err != nil {
		return unavailable(err)
	}

	return nil
}

func (s *txnStore) Delete(ctx context.Context, key string, rec timeline.Record) error {
	if err := s.bound(key); err != nil {
		return err
	}

	prefix := sortedmap.Prefix(tagRecord, key)
	sk := sortedmap.Key(rec.Segment)

	item, err := s.txn.Get(sortedmap.Join(prefix, sk))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil
	case err != nil:
		return unavailable(err)
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return unavailable(err)
	}

	stored, err := s.depot.decode(key, sk, raw)
	if err != nil {
		return err
	}

	if stored.ID != rec.ID {
		return nil
	}

	if err := s.txn.Delete(sortedmap.Join(prefix, sk)); err != nil {
		return unavailable(err)
	}

	return nil
}
