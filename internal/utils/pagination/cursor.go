package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cursor is the opaque pagination state we encode/decode.
// ID + UnixMillis establish a stable position; ID is a string so the
// same cursor serves both numeric user IDs and UUID match IDs.
type Cursor struct {
	ID         string `json:"id"`
	UnixMillis int64  `json:"unix_millis,omitempty"`
}

// FromUint64 builds a cursor positioned at a numeric ID.
func FromUint64(id uint64, unixMillis int64) Cursor {
	return Cursor{ID: strconv.FormatUint(id, 10), UnixMillis: unixMillis}
}

// Uint64 parses the cursor ID as a numeric user ID. ok is false for an
// empty cursor (first page) or a non-numeric ID.
func (c Cursor) Uint64() (uint64, bool) {
	if c.ID == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(c.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token means first page.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}
	return c, nil
}
