package repoboard

import (
	"errors"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	keys := []string{
		"owner/name#1",
		"aicers/dashboard#42",
		"a/b#0",
	}
	for _, key := range keys {
		cursor := EncodeCursor(key)
		raw, err := DecodeCursor(cursor)
		if err != nil {
			t.Fatalf("decode %q: %v", cursor, err)
		}
		if string(raw) != key {
			t.Fatalf("round trip mismatch: got %q, want %q", raw, key)
		}
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	_, err := DecodeCursor("!!!not base64!!!")
	if !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestCursorIsOpaque(t *testing.T) {
	// The cursor must not equal the raw key; clients get an encoded token.
	key := "owner/name#1"
	if EncodeCursor(key) == key {
		t.Fatal("cursor should be encoded, not the raw key")
	}
}
