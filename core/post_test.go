package core

import (
	"errors"
	"testing"
)

func img(b byte) EncodedImage {
	return NewPNG([]byte{0x89, 'P', 'N', 'G', b})
}

func TestNewGeneratedPost(t *testing.T) {
	post, err := NewGeneratedPost("launch", img(1), "")
	if err != nil {
		t.Fatalf("NewGeneratedPost() error = %v", err)
	}

	if len(post.History) != 1 {
		t.Fatalf("Expected 1 revision, got %d", len(post.History))
	}
	if !post.History[0].IsInitial() {
		t.Errorf("Expected initial revision, got %+v", post.History[0])
	}
	if !post.CurrentImage.Equal(img(1)) {
		t.Error("Current image should be the generated image")
	}
	if post.CurrentRevisionID != post.History[0].ID {
		t.Error("Current revision should be the initial revision")
	}
	if post.AspectRatio != AspectSquare {
		t.Errorf("Expected default aspect ratio 1:1, got %s", post.AspectRatio)
	}
}

func TestNewGeneratedPostValidation(t *testing.T) {
	if _, err := NewGeneratedPost("empty", EncodedImage{}, AspectSquare); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty image, got %v", err)
	}
	if _, err := NewGeneratedPost("bad", img(1), "2:1"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for unsupported ratio, got %v", err)
	}
}

func TestAppendRevisionNewestFirst(t *testing.T) {
	post, _ := NewGeneratedPost("p", img(0), AspectPortrait)

	r1 := post.AppendRevision(img(1), "make it blue", KindPlainText)
	r2 := post.AppendRevision(img(2), "match this", KindReference)

	if len(post.History) != 3 {
		t.Fatalf("Expected 3 revisions, got %d", len(post.History))
	}
	if post.History[0].ID != r2.ID || post.History[1].ID != r1.ID {
		t.Error("History should be ordered newest first")
	}
	if !post.CurrentImage.Equal(img(2)) {
		t.Error("Current image should follow the newest revision")
	}
	if post.Version != 2 {
		t.Errorf("Expected version 2, got %d", post.Version)
	}
}

func TestRollbackKeepsHistory(t *testing.T) {
	post, _ := NewGeneratedPost("p", img(0), AspectSquare)
	initialID := post.History[0].ID
	post.AppendRevision(img(1), "one", KindPlainText)
	post.AppendRevision(img(2), "two", KindAnnotation)

	if err := post.Rollback(initialID); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	if len(post.History) != 3 {
		t.Errorf("Rollback should not truncate history, got %d revisions", len(post.History))
	}
	if !post.CurrentImage.Equal(img(0)) {
		t.Error("Current image should be the initial image after rollback")
	}

	// Later revisions stay reachable.
	if err := post.Rollback(post.History[0].ID); err != nil {
		t.Fatalf("Rollback() to newest error = %v", err)
	}
	if !post.CurrentImage.Equal(img(2)) {
		t.Error("Should be able to roll forward to the newest revision")
	}
}

func TestRollbackUnknownRevision(t *testing.T) {
	post, _ := NewGeneratedPost("p", img(0), AspectSquare)
	post.AppendRevision(img(1), "one", KindPlainText)
	before := post.Clone()

	err := post.Rollback("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if post.Version != before.Version || !post.CurrentImage.Equal(before.CurrentImage) || len(post.History) != len(before.History) {
		t.Error("Failed rollback must leave the post unchanged")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	post, _ := NewGeneratedPost("p", img(0), AspectSquare)
	clone := post.Clone()
	clone.AppendRevision(img(1), "edit", KindPlainText)

	if len(post.History) != 1 {
		t.Errorf("Original history changed: %d revisions", len(post.History))
	}
}
