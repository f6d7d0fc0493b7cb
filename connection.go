package repoboard

import (
	"errors"
	"fmt"
)

// defaultPageSize applies when a connection field is queried without
// first or last.
const defaultPageSize = 100

// Pagination argument conflicts. Validation runs before any cursor is
// decoded or any store access happens.
var (
	errConflictingCursors   = errors.New("cannot use both `after` and `before`")
	errBeforeWithFirst      = errors.New("'before' and 'first' cannot be specified simultaneously")
	errAfterWithLast        = errors.New("'after' and 'last' cannot be specified simultaneously")
	errFirstAndLastTogether = errors.New("first and last cannot be used together")
	errNegativePageSize     = errors.New("first and last must be non-negative")
)

// Record is a stored domain entity. DisplayKey renders the canonical
// "owner/repo#number" form, which doubles as the storage key and the
// cursor payload.
type Record interface {
	DisplayKey() string
}

// PageInfo mirrors the Relay connection pageInfo object.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
}

// Edge pairs a record with the cursor that resumes pagination after it.
type Edge[T Record] struct {
	Cursor string
	Node   T
}

// Connection is the Relay pagination envelope returned by list fields.
// Edges are always in ascending key order, whichever direction the page
// was scanned in.
type Connection[T Record] struct {
	Edges    []Edge[T]
	PageInfo PageInfo
}

// PageArgs are the Relay pagination arguments of a connection field. A
// nil field means the argument was not supplied.
type PageArgs struct {
	After  *string
	Before *string
	First  *int
	Last   *int
}

func (a PageArgs) validate() error {
	switch {
	case a.Before != nil && a.After != nil:
		return errConflictingCursors
	case a.Before != nil && a.First != nil:
		return errBeforeWithFirst
	case a.After != nil && a.Last != nil:
		return errAfterWithLast
	case a.Before == nil && a.After == nil && a.First != nil && a.Last != nil:
		return errFirstAndLastTogether
	}
	if (a.First != nil && *a.First < 0) || (a.Last != nil && *a.Last < 0) {
		return errNegativePageSize
	}
	return nil
}

// RangeFactory opens a scan of one partition across [lo, hi); nil lo
// means the minimum key, nil hi leaves the range unbounded.
type RangeFactory[T Record] func(lo, hi []byte) (*Range[T], error)

// LoadConnection turns pagination arguments into a bounded scan over the
// ordered key space and assembles the Relay connection. Page-boundary
// existence is detected by fetching one record beyond the requested size,
// never by a separate count query; the iterator is lazy, so stopping
// early does not materialize the rest of the range.
func LoadConnection[T Record](args PageArgs, openRange RangeFactory[T]) (*Connection[T], error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	var (
		nodes            []T
		hasPrev, hasNext bool
	)
	switch {
	case args.Before != nil:
		hi, err := DecodeCursor(*args.Before)
		if err != nil {
			return nil, err
		}
		it, err := openRange(nil, hi)
		if err != nil {
			return nil, err
		}
		defer it.Close()
		nodes, hasPrev, err = collectNodes(it.NextBack, sizeOr(args.Last))
		if err != nil {
			return nil, err
		}
		reverseNodes(nodes)
	case args.After != nil:
		lo, err := DecodeCursor(*args.After)
		if err != nil {
			return nil, err
		}
		it, err := openRange(lo, nil)
		if err != nil {
			return nil, err
		}
		defer it.Close()
		// The scan starts at the cursor's own key. That record was
		// already returned on the previous page, so it is dropped when
		// it still exists.
		nodes, hasNext, err = collectNodes(skipKey(it.Next, string(lo)), sizeOr(args.First))
		if err != nil {
			return nil, err
		}
	case args.Last != nil:
		it, err := openRange(nil, nil)
		if err != nil {
			return nil, err
		}
		defer it.Close()
		nodes, hasPrev, err = collectNodes(it.NextBack, *args.Last)
		if err != nil {
			return nil, err
		}
		reverseNodes(nodes)
	default:
		it, err := openRange(nil, nil)
		if err != nil {
			return nil, err
		}
		defer it.Close()
		nodes, hasNext, err = collectNodes(it.Next, sizeOr(args.First))
		if err != nil {
			return nil, err
		}
	}

	conn := &Connection[T]{
		Edges:    make([]Edge[T], 0, len(nodes)),
		PageInfo: PageInfo{HasNextPage: hasNext, HasPreviousPage: hasPrev},
	}
	for _, n := range nodes {
		conn.Edges = append(conn.Edges, Edge[T]{Cursor: EncodeCursor(n.DisplayKey()), Node: n})
	}
	return conn, nil
}

func sizeOr(n *int) int {
	if n == nil {
		return defaultPageSize
	}
	return *n
}

// collectNodes drains next for up to size records. The extra fetch beyond
// size only answers whether another page exists; its record is discarded.
func collectNodes[T any](next func() (T, bool, error), size int) ([]T, bool, error) {
	nodes := make([]T, 0, min(size, 64))
	for {
		rec, ok, err := next()
		if err != nil {
			return nil, false, fmt.Errorf("failed to read database: %w", err)
		}
		if !ok {
			return nodes, false, nil
		}
		if len(nodes) == size {
			return nodes, true, nil
		}
		nodes = append(nodes, rec)
	}
}

// skipKey drops the record whose display key equals key if it is the
// first one yielded.
func skipKey[T Record](next func() (T, bool, error), key string) func() (T, bool, error) {
	first := true
	return func() (T, bool, error) {
		rec, ok, err := next()
		if first {
			first = false
			if ok && err == nil && rec.DisplayKey() == key {
				return next()
			}
		}
		return rec, ok, err
	}
}

func reverseNodes[T any](nodes []T) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
