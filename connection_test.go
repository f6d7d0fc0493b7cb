package repoboard

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	bolt "go.etcd.io/bbolt"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func edgeNumbers[T Record](conn *Connection[T], number func(T) int) []int {
	numbers := make([]int, 0, len(conn.Edges))
	for _, e := range conn.Edges {
		numbers = append(numbers, number(e.Node))
	}
	return numbers
}

func issueNumbers(conn *Connection[Issue]) []int {
	return edgeNumbers(conn, func(i Issue) int { return i.Number })
}

func TestLoadConnectionFirst(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	conn, err := LoadConnection(PageArgs{First: intPtr(2)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if got := issueNumbers(conn); !equalInts(got, []int{1, 2}) {
		t.Fatalf("expected [1 2], got %v", got)
	}
	if !conn.PageInfo.HasNextPage || conn.PageInfo.HasPreviousPage {
		t.Fatalf("expected hasNext=true hasPrev=false, got %+v", conn.PageInfo)
	}

	conn, err = LoadConnection(PageArgs{First: intPtr(5)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if got := issueNumbers(conn); !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}
	if conn.PageInfo.HasNextPage {
		t.Fatal("expected hasNext=false when the page covers the store")
	}
}

func TestLoadConnectionLast(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	conn, err := LoadConnection(PageArgs{Last: intPtr(2)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	// The tail of the list, reversed back to ascending order.
	if got := issueNumbers(conn); !equalInts(got, []int{2, 3}) {
		t.Fatalf("expected [2 3], got %v", got)
	}
	if !conn.PageInfo.HasPreviousPage || conn.PageInfo.HasNextPage {
		t.Fatalf("expected hasPrev=true hasNext=false, got %+v", conn.PageInfo)
	}

	conn, err = LoadConnection(PageArgs{Last: intPtr(5)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if conn.PageInfo.HasPreviousPage {
		t.Fatal("expected hasPrev=false when the page covers the store")
	}
}

func TestLoadConnectionDefaultPageSize(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	conn, err := LoadConnection(PageArgs{}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.Edges) != 3 {
		t.Fatalf("expected all 3 edges, got %d", len(conn.Edges))
	}
	if conn.PageInfo.HasNextPage || conn.PageInfo.HasPreviousPage {
		t.Fatalf("expected no further pages, got %+v", conn.PageInfo)
	}

	// With more records than the default page size, the page is capped
	// at 100 and a next page is reported.
	seedIssues(t, db, "owner", "name", 120)
	conn, err = LoadConnection(PageArgs{}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.Edges) != defaultPageSize {
		t.Fatalf("expected %d edges, got %d", defaultPageSize, len(conn.Edges))
	}
	if !conn.PageInfo.HasNextPage {
		t.Fatal("expected hasNext=true past the default page size")
	}
}

func TestLoadConnectionAfter(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	after := EncodeCursor("owner/name#1")
	conn, err := LoadConnection(PageArgs{After: &after, First: intPtr(1)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if got := issueNumbers(conn); !equalInts(got, []int{2}) {
		t.Fatalf("expected [2], got %v", got)
	}
	if !conn.PageInfo.HasNextPage || conn.PageInfo.HasPreviousPage {
		t.Fatalf("expected hasNext=true hasPrev=false, got %+v", conn.PageInfo)
	}
}

func TestLoadConnectionAfterLastRecord(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	// Paging past the final record yields an empty page, not an error.
	after := EncodeCursor("owner/name#3")
	conn, err := LoadConnection(PageArgs{After: &after}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.Edges) != 0 {
		t.Fatalf("expected no edges, got %v", issueNumbers(conn))
	}
	if conn.PageInfo.HasNextPage {
		t.Fatal("expected hasNext=false at the end of the list")
	}
}

func TestLoadConnectionAfterDeletedRecord(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	// A cursor stays valid as a position even after its record is gone.
	after := EncodeCursor("owner/name#2")
	if err := db.DeleteIssue("owner", "name", 2); err != nil {
		t.Fatal(err)
	}
	conn, err := LoadConnection(PageArgs{After: &after}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if got := issueNumbers(conn); !equalInts(got, []int{3}) {
		t.Fatalf("expected [3], got %v", got)
	}
}

func TestLoadConnectionBefore(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	before := EncodeCursor("owner/name#3")
	conn, err := LoadConnection(PageArgs{Before: &before, Last: intPtr(1)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if got := issueNumbers(conn); !equalInts(got, []int{2}) {
		t.Fatalf("expected [2], got %v", got)
	}
	if !conn.PageInfo.HasPreviousPage || conn.PageInfo.HasNextPage {
		t.Fatalf("expected hasPrev=true hasNext=false, got %+v", conn.PageInfo)
	}

	// Before the first record: empty page, no previous page.
	before = EncodeCursor("owner/name#1")
	conn, err = LoadConnection(PageArgs{Before: &before}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.Edges) != 0 || conn.PageInfo.HasPreviousPage {
		t.Fatalf("expected empty page without previous, got %v %+v",
			issueNumbers(conn), conn.PageInfo)
	}
}

func TestLoadConnectionArgConflicts(t *testing.T) {
	// Validation must fire before any store access or cursor decoding;
	// the cursors here are not even valid base64.
	failFactory := func(lo, hi []byte) (*Range[Issue], error) {
		t.Fatal("store touched before argument validation")
		return nil, nil
	}

	cases := []struct {
		name string
		args PageArgs
		want error
	}{
		{"after and before", PageArgs{After: strPtr("!"), Before: strPtr("!")}, errConflictingCursors},
		{"before with first", PageArgs{Before: strPtr("!"), First: intPtr(5)}, errBeforeWithFirst},
		{"after with last", PageArgs{After: strPtr("!"), Last: intPtr(5)}, errAfterWithLast},
		{"first and last", PageArgs{First: intPtr(1), Last: intPtr(1)}, errFirstAndLastTogether},
		{"negative first", PageArgs{First: intPtr(-1)}, errNegativePageSize},
		{"negative last", PageArgs{Last: intPtr(-1)}, errNegativePageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConnection(tc.args, failFactory)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConnectionInvalidCursor(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 1)

	for _, args := range []PageArgs{
		{After: strPtr("***")},
		{Before: strPtr("***")},
	} {
		_, err := LoadConnection(args, db.ScanIssues)
		if !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor, got %v", err)
		}
	}
}

func TestLoadConnectionCursorRoundTrip(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	conn, err := LoadConnection(PageArgs{}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range conn.Edges {
		raw, err := DecodeCursor(e.Cursor)
		if err != nil {
			t.Fatal(err)
		}
		if string(raw) != e.Node.DisplayKey() {
			t.Fatalf("cursor %q decodes to %q, want %q", e.Cursor, raw, e.Node.DisplayKey())
		}
	}
}

func TestLoadConnectionIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 5)

	args := PageArgs{After: strPtr(EncodeCursor("owner/name#2")), First: intPtr(2)}
	first, err := LoadConnection(args, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	second, err := LoadConnection(args, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same arguments against an unmodified store diverged:\n%+v\n%+v", first, second)
	}
}

func TestLoadConnectionFirstZero(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	conn, err := LoadConnection(PageArgs{First: intPtr(0)}, db.ScanIssues)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.Edges) != 0 {
		t.Fatalf("expected no edges, got %d", len(conn.Edges))
	}
	if !conn.PageInfo.HasNextPage {
		t.Fatal("expected hasNext=true with records left in the store")
	}
}

func TestLoadConnectionEmptyStore(t *testing.T) {
	db := newTestDB(t)

	for _, args := range []PageArgs{{}, {Last: intPtr(2)}, {First: intPtr(2)}} {
		conn, err := LoadConnection(args, db.ScanIssues)
		if err != nil {
			t.Fatal(err)
		}
		if len(conn.Edges) != 0 || conn.PageInfo.HasNextPage || conn.PageInfo.HasPreviousPage {
			t.Fatalf("expected empty connection, got %+v", conn)
		}
	}
}

func TestLoadConnectionDecodeFailureAborts(t *testing.T) {
	db := newTestDB(t)
	seedIssues(t, db, "owner", "name", 3)

	err := db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIssues).Put([]byte("owner/name#2"), []byte("{not json"))
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = LoadConnection(PageArgs{First: intPtr(5)}, db.ScanIssues)
	if err == nil || !strings.Contains(err.Error(), "failed to read database") {
		t.Fatalf("expected store-read error, got %v", err)
	}
}
