package repoboard

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidCursor reports a pagination cursor that is not valid base64.
// Clients are expected to discard the cursor and restart from the start
// of the list.
var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeCursor wraps a record's display key into the opaque cursor handed
// to API clients.
func EncodeCursor(displayKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(displayKey))
}

// DecodeCursor unwraps an opaque cursor back into raw key bytes. The
// bytes are used directly as a range bound against the store; they are
// not re-parsed into owner/repo/number.
func DecodeCursor(cursor string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return raw, nil
}
