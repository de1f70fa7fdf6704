package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dnastudio/core"
)

func newTestStore(t *testing.T) (*fsStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store, dir
}

func TestSaveWritesPrettyJSONFile(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "blueprints", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "blueprints.json"))
	if err != nil {
		t.Fatalf("Expected collection file: %v", err)
	}
	if string(raw) != "[\n  {\n    \"id\": \"1\"\n  }\n]" {
		t.Errorf("Unexpected file content: %q", raw)
	}

	data, err := store.Load(ctx, "blueprints")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var items []map[string]string
	if err := json.Unmarshal(data, &items); err != nil || len(items) != 1 || items[0]["id"] != "1" {
		t.Errorf("Unexpected loaded value %s (%v)", data, err)
	}
}

func TestLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Load(context.Background(), "posts"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAppendCreatesAndExtends(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "usage_logs", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "usage_logs", []byte(`{"n":2}`)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, _ := store.Load(ctx, "usage_logs")
	var items []map[string]int
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("Stored value is not an array: %v", err)
	}
	if len(items) != 2 || items[0]["n"] != 1 || items[1]["n"] != 2 {
		t.Errorf("Unexpected items %v", items)
	}
}

func TestAppendToObjectFails(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.Save(ctx, "settings", []byte(`{"theme":"dark"}`))

	if err := store.Append(ctx, "settings", []byte(`{}`)); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"../escape", "..", "a/../../b"} {
		if err := store.Save(ctx, name, []byte(`[]`)); err == nil {
			t.Errorf("Save(%q) should fail", name)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); !os.IsNotExist(err) {
		t.Error("File escaped the base directory")
	}
}

func TestNamesIgnoresOtherFiles(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	_ = store.Save(ctx, "posts", []byte(`[]`))
	_ = store.Save(ctx, "brands", []byte(`[]`))
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	_ = os.Mkdir(filepath.Join(dir, "sub.json"), 0755)

	names, err := store.Names(ctx)
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if len(names) != 2 || names[0] != "brands" || names[1] != "posts" {
		t.Errorf("Unexpected names %v", names)
	}
}
