package refine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dnastudio/core"

	"github.com/sirupsen/logrus"
)

// Mode selects the prompt strategy used by the generative service.
type Mode int

const (
	// ModeContentEdit changes content while keeping the layout.
	ModeContentEdit Mode = iota
	// ModeStructuralCorrection aligns the image to a reference or to marks
	// drawn over it.
	ModeStructuralCorrection
)

func (m Mode) String() string {
	if m == ModeStructuralCorrection {
		return "structural-correction"
	}
	return "content-edit"
}

// TransformRequest is what a Transformer receives.
type TransformRequest struct {
	Image       core.EncodedImage
	Instruction string
	AspectRatio core.AspectRatio
	Reference   *core.EncodedImage
	Mode        Mode
}

// Transformer produces a new image from an existing one. Implementations
// must not retry.
type Transformer interface {
	Transform(ctx context.Context, req TransformRequest) (core.EncodedImage, error)
}

// Request describes one refinement asked for by the user.
type Request struct {
	Instruction string
	// Reference is an optional image the result should match.
	Reference *core.EncodedImage
	// AnnotationGuided is set when the current image carries marks drawn in
	// an annotation session.
	AnnotationGuided bool
	// Marked, when set, is the current image with annotation marks drawn
	// over it. It is sent in place of the current image and implies
	// AnnotationGuided.
	Marked *core.EncodedImage
}

// Classify derives the revision kind of a request. A reference image takes
// precedence over annotation marks.
func Classify(hasReference, annotationGuided bool) core.RevisionKind {
	switch {
	case hasReference:
		return core.KindReference
	case annotationGuided:
		return core.KindAnnotation
	default:
		return core.KindPlainText
	}
}

// modeFor passes the caller's annotation flag through as the prompt mode.
// A reference image alone does not change the mode.
func modeFor(annotationGuided bool) Mode {
	if annotationGuided {
		return ModeStructuralCorrection
	}
	return ModeContentEdit
}

// Orchestrator validates refinement requests, calls the Transformer and
// records the result on the post.
type Orchestrator struct {
	transformer Transformer
	mu          sync.Mutex
}

func NewOrchestrator(t Transformer) *Orchestrator {
	return &Orchestrator{transformer: t}
}

// Refine transforms the post's current image and appends the result as a
// new revision. Validation errors are reported before the Transformer is
// called. A Transformer failure leaves the post untouched. If the post was
// mutated while the Transformer ran, ErrStaleResult is returned and the
// result is dropped.
func (o *Orchestrator) Refine(ctx context.Context, post *core.GeneratedPost, req Request) (core.Revision, error) {
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		return core.Revision{}, fmt.Errorf("%w: instruction is empty", core.ErrValidation)
	}

	o.mu.Lock()
	image := post.CurrentImage
	ratio := post.AspectRatio
	seen := post.Version
	o.mu.Unlock()

	if image.IsZero() {
		return core.Revision{}, fmt.Errorf("%w: post has no current image", core.ErrValidation)
	}
	if req.Reference != nil && req.Reference.IsZero() {
		req.Reference = nil
	}
	if req.Marked != nil && !req.Marked.IsZero() {
		image = *req.Marked
		req.AnnotationGuided = true
	}

	kind := Classify(req.Reference != nil, req.AnnotationGuided)
	log := logrus.WithFields(logrus.Fields{
		"post_id": post.ID,
		"kind":    kind,
		"mode":    modeFor(req.AnnotationGuided),
		"version": seen,
	})
	log.Info("Refining post")

	result, err := o.transformer.Transform(ctx, TransformRequest{
		Image:       image,
		Instruction: instruction,
		AspectRatio: ratio,
		Reference:   req.Reference,
		Mode:        modeFor(req.AnnotationGuided),
	})
	if err != nil {
		log.WithError(err).Error("Refinement failed")
		return core.Revision{}, fmt.Errorf("%w: %v", core.ErrRefinementFailed, err)
	}
	if result.IsZero() {
		log.Error("Refinement returned no image")
		return core.Revision{}, fmt.Errorf("%w: service returned no image", core.ErrRefinementFailed)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if post.Version != seen {
		log.WithField("current_version", post.Version).Warn("Dropping stale refinement result")
		return core.Revision{}, core.ErrStaleResult
	}
	rev := post.AppendRevision(result, instruction, kind)
	log.WithField("revision_id", rev.ID).Info("Refinement recorded")
	return rev, nil
}

// Rollback makes an earlier revision current. It shares the lock used by
// Refine, so an in-flight refinement started before the rollback is
// reported as stale.
func (o *Orchestrator) Rollback(post *core.GeneratedPost, revisionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := post.Rollback(revisionID); err != nil {
		logrus.WithFields(logrus.Fields{
			"post_id":     post.ID,
			"revision_id": revisionID,
		}).Warn("Rollback target not found")
		return err
	}
	return nil
}
