package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Cursor represents a decoded pagination cursor over an append-only
// sequence: the index of the last item served and its timestamp.
type Cursor struct {
	LastIndex int
	Timestamp time.Time
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
)

// EncodeCursor creates a base64-encoded cursor from the last item index
// and timestamp
func EncodeCursor(lastIndex int, timestamp time.Time) string {
	raw := strconv.Itoa(lastIndex) + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a base64-encoded cursor
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	lastIndex, err := strconv.Atoi(parts[0])
	if err != nil || lastIndex < 0 {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastIndex: lastIndex,
		Timestamp: timestamp,
	}, nil
}

// Page slices items after the cursor position, up to limit, and builds
// the next cursor when more items remain.
func Page[T any](items []T, cursor *Cursor, limit int, timestampOf func(T) time.Time) PageResult[T] {
	start := 0
	if cursor != nil {
		start = cursor.LastIndex + 1
	}
	if start > len(items) {
		start = len(items)
	}

	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	page := PageResult[T]{
		Items:   items[start:end],
		HasMore: end < len(items),
	}
	if page.HasMore && end > start {
		last := items[end-1]
		page.Cursor = EncodeCursor(end-1, timestampOf(last))
	}
	return page
}
