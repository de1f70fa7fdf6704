package refine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dnastudio/core"
)

type stubTransformer struct {
	result core.EncodedImage
	err    error
	calls  []TransformRequest
	// entered and block, when set, let a test pause the call midway.
	entered chan struct{}
	block   chan struct{}
}

func (s *stubTransformer) Transform(ctx context.Context, req TransformRequest) (core.EncodedImage, error) {
	s.calls = append(s.calls, req)
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func png(b byte) core.EncodedImage {
	return core.NewPNG([]byte{0x89, 'P', 'N', 'G', b})
}

func newPost(t *testing.T) *core.GeneratedPost {
	t.Helper()
	post, err := core.NewGeneratedPost("test", png(0), core.AspectPortrait)
	if err != nil {
		t.Fatalf("NewGeneratedPost() error = %v", err)
	}
	return post
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		reference  bool
		annotation bool
		want       core.RevisionKind
	}{
		{"plain", false, false, core.KindPlainText},
		{"reference", true, false, core.KindReference},
		{"annotation", false, true, core.KindAnnotation},
		{"reference wins", true, true, core.KindReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.reference, tt.annotation); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRefinePlainInstruction(t *testing.T) {
	stub := &stubTransformer{result: png(1)}
	orch := NewOrchestrator(stub)
	post := newPost(t)

	rev, err := orch.Refine(context.Background(), post, Request{Instruction: "  make background blue "})
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}

	if len(post.History) != 2 {
		t.Fatalf("Expected 2 revisions, got %d", len(post.History))
	}
	if post.History[0].ID != rev.ID {
		t.Error("New revision should be first in history")
	}
	if !post.CurrentImage.Equal(png(1)) {
		t.Error("Current image should be the transformed image")
	}
	if rev.Kind != core.KindPlainText || rev.Instruction != "make background blue" {
		t.Errorf("Unexpected revision: kind=%s instruction=%q", rev.Kind, rev.Instruction)
	}

	if len(stub.calls) != 1 {
		t.Fatalf("Expected 1 transform call, got %d", len(stub.calls))
	}
	call := stub.calls[0]
	if call.Mode != ModeContentEdit {
		t.Errorf("Expected content edit mode, got %s", call.Mode)
	}
	if call.AspectRatio != core.AspectPortrait {
		t.Errorf("Expected aspect ratio 9:16, got %s", call.AspectRatio)
	}
	if !call.Image.Equal(png(0)) {
		t.Error("Transformer should receive the current image")
	}
}

func TestRefineGuidedModes(t *testing.T) {
	ref := png(9)
	tests := []struct {
		name string
		req  Request
		kind core.RevisionKind
		mode Mode
	}{
		{"reference", Request{Instruction: "swap headline", Reference: &ref}, core.KindReference, ModeContentEdit},
		{"reference with marks", Request{Instruction: "match", Reference: &ref, AnnotationGuided: true}, core.KindReference, ModeStructuralCorrection},
		{"annotation", Request{Instruction: "fix marked area", AnnotationGuided: true}, core.KindAnnotation, ModeStructuralCorrection},
		{"plain", Request{Instruction: "brighter"}, core.KindPlainText, ModeContentEdit},
		{"empty reference ignored", Request{Instruction: "x", Reference: &core.EncodedImage{}}, core.KindPlainText, ModeContentEdit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTransformer{result: png(2)}
			post := newPost(t)

			rev, err := NewOrchestrator(stub).Refine(context.Background(), post, tt.req)
			if err != nil {
				t.Fatalf("Refine() error = %v", err)
			}
			if rev.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", rev.Kind, tt.kind)
			}
			if stub.calls[0].Mode != tt.mode {
				t.Errorf("Mode = %s, want %s", stub.calls[0].Mode, tt.mode)
			}
			if tt.kind == core.KindReference && stub.calls[0].Reference == nil {
				t.Error("Reference image should be forwarded")
			}
		})
	}
}

func TestRefineMarkedImage(t *testing.T) {
	stub := &stubTransformer{result: png(3)}
	post := newPost(t)
	marked := png(7)

	rev, err := NewOrchestrator(stub).Refine(context.Background(), post, Request{Instruction: "move logo", Marked: &marked})
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if rev.Kind != core.KindAnnotation {
		t.Errorf("Kind = %s, want %s", rev.Kind, core.KindAnnotation)
	}
	if stub.calls[0].Mode != ModeStructuralCorrection {
		t.Errorf("Mode = %s, want %s", stub.calls[0].Mode, ModeStructuralCorrection)
	}
	if !stub.calls[0].Image.Equal(marked) {
		t.Error("Transformer should receive the marked image")
	}
	if post.History[1].Image.Equal(marked) {
		t.Error("marked image must not be recorded in history")
	}
}

func TestRefineValidationMakesNoCall(t *testing.T) {
	tests := []struct {
		name string
		post func(t *testing.T) *core.GeneratedPost
		req  Request
	}{
		{"empty instruction", newPost, Request{Instruction: ""}},
		{"blank instruction", newPost, Request{Instruction: " \t\n"}},
		{"no current image", func(t *testing.T) *core.GeneratedPost {
			return &core.GeneratedPost{ID: "bare"}
		}, Request{Instruction: "do it"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTransformer{result: png(1)}
			post := tt.post(t)
			before := post.Clone()

			_, err := NewOrchestrator(stub).Refine(context.Background(), post, tt.req)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("Expected ErrValidation, got %v", err)
			}
			if len(stub.calls) != 0 {
				t.Errorf("Transformer must not be called, got %d calls", len(stub.calls))
			}
			if post.Version != before.Version || len(post.History) != len(before.History) {
				t.Error("Post must not change on validation failure")
			}
		})
	}
}

func TestRefineFailureLeavesPostUnchanged(t *testing.T) {
	stub := &stubTransformer{err: errors.New("quota exceeded")}
	post := newPost(t)
	before := post.Clone()

	_, err := NewOrchestrator(stub).Refine(context.Background(), post, Request{Instruction: "brighter"})
	if !errors.Is(err, core.ErrRefinementFailed) {
		t.Fatalf("Expected ErrRefinementFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Error should carry the service message, got %q", err)
	}
	if len(post.History) != 1 || !post.CurrentImage.Equal(before.CurrentImage) || post.Version != before.Version {
		t.Error("Post must not change when the service fails")
	}
}

func TestRefineEmptyResultFails(t *testing.T) {
	post := newPost(t)
	_, err := NewOrchestrator(&stubTransformer{}).Refine(context.Background(), post, Request{Instruction: "x"})
	if !errors.Is(err, core.ErrRefinementFailed) {
		t.Fatalf("Expected ErrRefinementFailed, got %v", err)
	}
	if len(post.History) != 1 {
		t.Error("Post must not change")
	}
}

func TestRefineStaleResultIsDropped(t *testing.T) {
	stub := &stubTransformer{result: png(5), entered: make(chan struct{}), block: make(chan struct{})}
	orch := NewOrchestrator(stub)
	post := newPost(t)
	post.AppendRevision(png(1), "first edit", core.KindPlainText)
	initialID := post.History[1].ID

	done := make(chan error, 1)
	go func() {
		_, err := orch.Refine(context.Background(), post, Request{Instruction: "slow edit"})
		done <- err
	}()

	<-stub.entered
	if err := orch.Rollback(post, initialID); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	close(stub.block)

	if err := <-done; !errors.Is(err, core.ErrStaleResult) {
		t.Fatalf("Expected ErrStaleResult, got %v", err)
	}
	if len(post.History) != 2 {
		t.Errorf("Stale result must not be appended, got %d revisions", len(post.History))
	}
	if !post.CurrentImage.Equal(png(0)) {
		t.Error("Rollback target should remain current")
	}
}

func TestOrchestratorRollbackUnknown(t *testing.T) {
	post := newPost(t)
	err := NewOrchestrator(&stubTransformer{}).Rollback(post, "nope")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
