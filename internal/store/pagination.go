package store

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/aldan/pos-store/internal/models"
)

type CursorPage struct {
	Items      []models.Transaction `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
	HasMore    bool                 `json:"has_more"`
}

type TransactionCursor struct {
	Timestamp time.Time `json:"timestamp"`
	ID        int64     `json:"id"`
}

func EncodeCursor(cursor TransactionCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor interprets the empty string as "start from the newest row".
func DecodeCursor(encoded string) (TransactionCursor, error) {
	var cursor TransactionCursor
	if encoded == "" {
		return TransactionCursor{
			Timestamp: time.Now().Add(time.Hour),
			ID:        int64(1<<63 - 1),
		}, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, err
	}

	err = json.Unmarshal(data, &cursor)
	return cursor, err
}
