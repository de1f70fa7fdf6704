package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// Well-known collections.
const (
	CollectionPosts      = "posts"
	CollectionBlueprints = "blueprints"
	CollectionBrands     = "brands"
	CollectionUsageLogs  = "usage_logs"
)

// CollectionStore keeps named JSON documents. Each collection is read and
// written as a whole.
type CollectionStore interface {
	// Load returns the stored JSON value, or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save replaces the stored value.
	Save(ctx context.Context, name string, data []byte) error
	// Append adds one entry to the JSON array stored under name.
	Append(ctx context.Context, name string, entry []byte) error
	// Names lists the stored collections in lexical order.
	Names(ctx context.Context) ([]string, error)
}

var collectionName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidateCollectionName(name string) error {
	if !collectionName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

// AppendEntry appends entry to the JSON array in existing. An empty
// existing value is treated as an empty array.
func AppendEntry(existing, entry []byte) ([]byte, error) {
	if !json.Valid(entry) {
		return nil, fmt.Errorf("%w: entry is not valid JSON", ErrValidation)
	}

	var items []json.RawMessage
	if trimmed := bytes.TrimSpace(existing); len(trimmed) > 0 {
		if trimmed[0] != '[' {
			return nil, fmt.Errorf("%w: stored value is not an array", ErrValidation)
		}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode stored array: %w", err)
		}
	}
	items = append(items, json.RawMessage(bytes.TrimSpace(entry)))
	return json.Marshal(items)
}

// IsArray reports whether data holds a JSON array.
func IsArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// IsResetRequest reports whether body is {"RESET_COLLECTION": true}.
func IsResetRequest(body []byte) bool {
	var req struct {
		Reset bool `json:"RESET_COLLECTION"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return false
	}
	return req.Reset
}
