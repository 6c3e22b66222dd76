package docstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// CursorKey is the decoded form of a pagination cursor: the id of the record
// to resume after and its value on the current sort field.
type CursorKey struct {
	ID    string `json:"id"`
	Value any    `json:"value,omitempty"`
	Type  string `json:"type,omitempty"`
}

const cursorTypeTime = "time"

// EncodeCursor builds an opaque cursor from a previously returned record,
// meaning "resume strictly after this record in the current sort order".
// The cursor is only meaningful together with the same sort it was built for.
func EncodeCursor(rec Record, sortField string) (string, error) {
	id := rec.ID()
	if id == "" {
		return "", fmt.Errorf("cursor record has no id")
	}
	if sortField == "" {
		return "", fmt.Errorf("cursor requires a sort field")
	}

	key := CursorKey{ID: id, Value: rec[sortField]}
	if ts, ok := key.Value.(time.Time); ok {
		key.Value = ts.UTC().Format(time.RFC3339Nano)
		key.Type = cursorTypeTime
	}

	payload, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses an opaque cursor back into its resume key.
func DecodeCursor(cursor string) (CursorKey, error) {
	payload, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return CursorKey{}, fmt.Errorf("malformed cursor: %w", err)
	}
	var key CursorKey
	if err := json.Unmarshal(payload, &key); err != nil {
		return CursorKey{}, fmt.Errorf("malformed cursor: %w", err)
	}
	if key.ID == "" {
		return CursorKey{}, fmt.Errorf("malformed cursor: missing record id")
	}
	if key.Type == cursorTypeTime {
		raw, ok := key.Value.(string)
		if !ok {
			return CursorKey{}, fmt.Errorf("malformed cursor: time value is not a string")
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return CursorKey{}, fmt.Errorf("malformed cursor: %w", err)
		}
		key.Value = ts
		key.Type = ""
	}
	return key, nil
}
