// Package pagination implements opaque cursor paging for list endpoints.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Pagination carries the caller-supplied paging parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=25"`
}

// Cursor marks a position in a list ordered by (created_at, id).
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Encode renders the cursor as an opaque page token.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses an opaque page token back into a cursor.
func Decode(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Clamp bounds a requested page size to [1, max].
func Clamp(size, max int) int {
	if size <= 0 {
		return 25
	}
	if size > max {
		return max
	}
	return size
}
