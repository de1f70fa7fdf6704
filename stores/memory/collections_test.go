package memory

import (
	"context"
	"errors"
	"testing"

	"dnastudio/core"
)

func TestLoadMissingCollection(t *testing.T) {
	store := NewStore()
	_, err := store.Load(context.Background(), "posts")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, "posts", []byte(`[1]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, "posts", []byte(`[2,3]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := store.Load(ctx, "posts")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != `[2,3]` {
		t.Errorf("Expected overwritten value, got %s", data)
	}
}

func TestLoadReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.Save(ctx, "brands", []byte(`[]`))

	data, _ := store.Load(ctx, "brands")
	data[0] = 'X'

	again, _ := store.Load(ctx, "brands")
	if string(again) != `[]` {
		t.Errorf("Stored value was modified through a returned slice: %s", again)
	}
}

func TestAppend(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, entry := range []string{`{"id":"a"}`, `{"id":"b"}`} {
		if err := store.Append(ctx, "usage_logs", []byte(entry)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	data, err := store.Load(ctx, "usage_logs")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != `[{"id":"a"},{"id":"b"}]` {
		t.Errorf("Unexpected collection: %s", data)
	}
}

func TestRejectsInvalidNames(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, "../x", []byte(`[]`)); !errors.Is(err, core.ErrInvalidCollection) {
		t.Errorf("Save: expected ErrInvalidCollection, got %v", err)
	}
	if _, err := store.Load(ctx, "a/b"); !errors.Is(err, core.ErrInvalidCollection) {
		t.Errorf("Load: expected ErrInvalidCollection, got %v", err)
	}
}

func TestNames(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.Save(ctx, "posts", []byte(`[]`))
	_ = store.Save(ctx, "brands", []byte(`[]`))

	names, err := store.Names(ctx)
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if len(names) != 2 || names[0] != "brands" || names[1] != "posts" {
		t.Errorf("Unexpected names %v", names)
	}
}
