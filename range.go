package repoboard

import (
	"bytes"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// RecordDecoder turns a raw key/value pair into a typed record.
type RecordDecoder[T any] func(key, value []byte) (T, error)

// Range is a lazy double-ended iterator over the half-open key interval
// [lo, hi) of one partition. Records can be consumed from either end on
// demand without materializing the interval; the underlying read
// transaction pins a stable snapshot until Close.
type Range[T any] struct {
	tx     *bolt.Tx
	fwd    *bolt.Cursor
	bwd    *bolt.Cursor
	lo, hi []byte
	decode RecordDecoder[T]

	fk, bk             []byte // last key yielded from each end
	fstarted, bstarted bool
	done               bool
}

// rangeScan opens a read transaction over bucket and returns an iterator
// across [lo, hi). A nil lo starts at the minimum possible key; a nil hi
// leaves the scan unbounded above.
func rangeScan[T any](d *Database, bucket, lo, hi []byte, decode RecordDecoder[T]) (*Range[T], error) {
	tx, err := d.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("begin read transaction: %w", err)
	}
	b := tx.Bucket(bucket)
	if b == nil {
		tx.Rollback()
		return nil, fmt.Errorf("missing partition %q", bucket)
	}
	if lo == nil {
		lo = minKey
	}
	return &Range[T]{
		tx:     tx,
		fwd:    b.Cursor(),
		bwd:    b.Cursor(),
		lo:     lo,
		hi:     hi,
		decode: decode,
	}, nil
}

// Next yields the next record from the low end. ok is false once the
// interval is exhausted or the two ends have met. A decode failure ends
// the iteration; no partial record is returned.
func (r *Range[T]) Next() (T, bool, error) {
	var zero T
	if r.done {
		return zero, false, nil
	}
	var k, v []byte
	if !r.fstarted {
		r.fstarted = true
		k, v = r.fwd.Seek(r.lo)
	} else {
		k, v = r.fwd.Next()
	}
	if k == nil || (r.hi != nil && bytes.Compare(k, r.hi) >= 0) {
		r.done = true
		return zero, false, nil
	}
	if r.bstarted && bytes.Compare(k, r.bk) >= 0 {
		r.done = true
		return zero, false, nil
	}
	r.fk = k
	rec, err := r.decode(k, v)
	if err != nil {
		r.done = true
		return zero, false, fmt.Errorf("decode record %q: %w", k, err)
	}
	return rec, true, nil
}

// NextBack yields the next record from the high end, walking toward lo.
func (r *Range[T]) NextBack() (T, bool, error) {
	var zero T
	if r.done {
		return zero, false, nil
	}
	var k, v []byte
	if !r.bstarted {
		r.bstarted = true
		if r.hi == nil {
			k, v = r.bwd.Last()
		} else {
			// Seek lands on the first key >= hi; hi is exclusive, so the
			// scan starts one position below.
			if sk, _ := r.bwd.Seek(r.hi); sk == nil {
				k, v = r.bwd.Last()
			} else {
				k, v = r.bwd.Prev()
			}
		}
	} else {
		k, v = r.bwd.Prev()
	}
	if k == nil || bytes.Compare(k, r.lo) < 0 {
		r.done = true
		return zero, false, nil
	}
	if r.fstarted && bytes.Compare(k, r.fk) <= 0 {
		r.done = true
		return zero, false, nil
	}
	r.bk = k
	rec, err := r.decode(k, v)
	if err != nil {
		r.done = true
		return zero, false, fmt.Errorf("decode record %q: %w", k, err)
	}
	return rec, true, nil
}

// Close releases the read transaction. Safe to call more than once.
func (r *Range[T]) Close() error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	return tx.Rollback()
}

// collectAll drains the whole range from the low end. Used by the stat
// queries, which always materialize the full partition and filter in
// memory instead of narrowing the scan bounds.
func collectAll[T any](openRange func(lo, hi []byte) (*Range[T], error)) ([]T, error) {
	it, err := openRange(nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var all []T
	for {
		rec, ok, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read database: %w", err)
		}
		if !ok {
			return all, nil
		}
		all = append(all, rec)
	}
}
