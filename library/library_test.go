package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"dnastudio/core"
	"dnastudio/stores/memory"
)

func png(b byte) core.EncodedImage {
	return core.NewPNG([]byte{0x89, 'P', 'N', 'G', b})
}

func newPost(t *testing.T, name string) *core.GeneratedPost {
	t.Helper()
	post, err := core.NewGeneratedPost(name, png(0), core.AspectSquare)
	if err != nil {
		t.Fatalf("NewGeneratedPost() error = %v", err)
	}
	return post
}

func TestPostsEmptyWhenMissing(t *testing.T) {
	lib := New(memory.NewStore())
	posts, err := lib.Posts(context.Background())
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("Expected empty list, got %v", posts)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	lib := New(memory.NewStore())
	ctx := context.Background()

	first := newPost(t, "first")
	second := newPost(t, "second")
	_ = lib.CreatePost(ctx, first)
	_ = lib.CreatePost(ctx, second)

	posts, _ := lib.Posts(ctx)
	if len(posts) != 2 || posts[0].ID != second.ID {
		t.Errorf("Expected newest post first, got %v", posts)
	}

	got, err := lib.Post(ctx, first.ID)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !got.CurrentImage.Equal(first.CurrentImage) || len(got.History) != 1 {
		t.Errorf("Post did not survive persistence: %+v", got)
	}

	if _, err := lib.Post(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCommitPostVersionGuard(t *testing.T) {
	lib := New(memory.NewStore())
	ctx := context.Background()
	post := newPost(t, "p")
	_ = lib.CreatePost(ctx, post)

	// Two requests load the same version.
	a, _ := lib.Post(ctx, post.ID)
	b, _ := lib.Post(ctx, post.ID)

	a.AppendRevision(png(1), "edit a", core.KindPlainText)
	if err := lib.CommitPost(ctx, a, 0); err != nil {
		t.Fatalf("CommitPost(a) error = %v", err)
	}

	b.AppendRevision(png(2), "edit b", core.KindPlainText)
	if err := lib.CommitPost(ctx, b, 0); !errors.Is(err, core.ErrStaleResult) {
		t.Fatalf("Expected ErrStaleResult, got %v", err)
	}

	stored, _ := lib.Post(ctx, post.ID)
	if !stored.CurrentImage.Equal(png(1)) || len(stored.History) != 2 {
		t.Error("Stale commit must not overwrite the newer post")
	}
}

func TestCommitUnknownPost(t *testing.T) {
	lib := New(memory.NewStore())
	if err := lib.CommitPost(context.Background(), newPost(t, "x"), 0); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	lib := New(memory.NewStore())
	ctx := context.Background()
	post := newPost(t, "p")
	_ = lib.CreatePost(ctx, post)

	if err := lib.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if err := lib.DeletePost(ctx, post.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveBlueprintFillsDefaults(t *testing.T) {
	lib := New(memory.NewStore())
	ctx := context.Background()

	saved, err := lib.SaveBlueprint(ctx, core.Blueprint{
		Name: "Swiss grid",
		DNA:  core.DesignDNA{BaseVisualPrompt: "grid [SUBJECT]"},
	})
	if err != nil {
		t.Fatalf("SaveBlueprint() error = %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Error("Expected id and creation time to be assigned")
	}
	if saved.DNA.TemplateName != core.DefaultTemplateName {
		t.Errorf("Expected defaults to be filled, got %q", saved.DNA.TemplateName)
	}

	saved.Name = "Swiss grid v2"
	if _, err := lib.SaveBlueprint(ctx, saved); err != nil {
		t.Fatalf("SaveBlueprint() update error = %v", err)
	}
	all, _ := lib.Blueprints(ctx)
	if len(all) != 1 || all[0].Name != "Swiss grid v2" {
		t.Errorf("Expected in-place update, got %v", all)
	}

	if err := lib.DeleteBlueprint(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteBlueprint() error = %v", err)
	}
	if _, err := lib.Blueprint(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveBrandNamesFromDNA(t *testing.T) {
	lib := New(memory.NewStore())
	ctx := context.Background()

	saved, err := lib.SaveBrand(ctx, core.BrandIdentity{DNA: core.BrandDNA{BrandName: "Kopi Senja"}})
	if err != nil {
		t.Fatalf("SaveBrand() error = %v", err)
	}
	if saved.Name != "Kopi Senja" {
		t.Errorf("Expected name from DNA, got %q", saved.Name)
	}
	got, err := lib.Brand(ctx, saved.ID)
	if err != nil || got.DNA.BrandName != "Kopi Senja" {
		t.Errorf("Brand() = %+v, %v", got, err)
	}
	if err := lib.DeleteBrand(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUsageLogs(t *testing.T) {
	lib := New(memory.NewStore())
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_ = lib.RecordUsage(ctx, core.UsageLog{Feature: "analyze", Timestamp: base, CostUSD: 0.01})
	_ = lib.RecordUsage(ctx, core.UsageLog{Feature: "refine", Timestamp: base.Add(time.Minute), CostUSD: 0.04})

	logs, err := lib.UsageLogs(ctx)
	if err != nil {
		t.Fatalf("UsageLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].Feature != "refine" {
		t.Errorf("Expected newest first, got %+v", logs)
	}
	if logs[1].ID == "" {
		t.Error("Expected id to be assigned")
	}

	if err := lib.ResetUsage(ctx); err != nil {
		t.Fatalf("ResetUsage() error = %v", err)
	}
	logs, _ = lib.UsageLogs(ctx)
	if len(logs) != 0 {
		t.Errorf("Expected empty log after reset, got %d", len(logs))
	}
}
