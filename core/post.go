package core

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// RevisionKind records how a revision was requested.
type RevisionKind string

const (
	KindPlainText  RevisionKind = "plain-text-instruction"
	KindReference  RevisionKind = "visual-reference-guided"
	KindAnnotation RevisionKind = "annotation-guided"
)

// InitialInstruction is the instruction text carried by the revision that
// records the original generation.
const InitialInstruction = "Initial generation"

// Revision is an immutable entry in a post's history.
type Revision struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Instruction string       `json:"instruction"`
	Image       EncodedImage `json:"image"`
	Kind        RevisionKind `json:"kind"`
}

// IsInitial reports whether r records the original generation.
func (r Revision) IsInitial() bool {
	return r.Kind == KindPlainText && r.Instruction == InitialInstruction
}

// GeneratedPost is a generated image together with its revision history.
// History is ordered newest first. CurrentImage always equals the image of
// the revision named by CurrentRevisionID.
type GeneratedPost struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	BlueprintID       string       `json:"blueprintId,omitempty"`
	BrandID           string       `json:"brandId,omitempty"`
	AspectRatio       AspectRatio  `json:"aspectRatio"`
	CurrentImage      EncodedImage `json:"currentImage"`
	CurrentRevisionID string       `json:"currentRevisionId"`
	History           []Revision   `json:"history"`
	// Version is bumped by every mutation and lets callers detect results
	// computed against an older state.
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGeneratedPost records a freshly generated image as a new post with a
// single initial revision.
func NewGeneratedPost(name string, image EncodedImage, ratio AspectRatio) (*GeneratedPost, error) {
	if image.IsZero() {
		return nil, fmt.Errorf("%w: generated image is empty", ErrValidation)
	}
	ratio, err := ParseAspectRatio(string(ratio))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	initial := Revision{
		ID:          ulid.Make().String(),
		Timestamp:   now,
		Instruction: InitialInstruction,
		Image:       image,
		Kind:        KindPlainText,
	}
	return &GeneratedPost{
		ID:                ulid.Make().String(),
		Name:              name,
		AspectRatio:       ratio,
		CurrentImage:      image,
		CurrentRevisionID: initial.ID,
		History:           []Revision{initial},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AppendRevision records image as the newest revision and makes it current.
func (p *GeneratedPost) AppendRevision(image EncodedImage, instruction string, kind RevisionKind) Revision {
	rev := Revision{
		ID:          ulid.Make().String(),
		Timestamp:   time.Now(),
		Instruction: instruction,
		Image:       image,
		Kind:        kind,
	}
	p.History = append([]Revision{rev}, p.History...)
	p.CurrentImage = image
	p.CurrentRevisionID = rev.ID
	p.touch()
	return rev
}

// Rollback makes the revision with the given id current. History is left
// untouched, so later revisions remain reachable.
func (p *GeneratedPost) Rollback(revisionID string) error {
	rev, ok := p.Revision(revisionID)
	if !ok {
		return fmt.Errorf("revision %s: %w", revisionID, ErrNotFound)
	}
	p.CurrentImage = rev.Image
	p.CurrentRevisionID = rev.ID
	p.touch()
	return nil
}

func (p *GeneratedPost) Revision(id string) (Revision, bool) {
	for _, rev := range p.History {
		if rev.ID == id {
			return rev, true
		}
	}
	return Revision{}, false
}

// Clone returns a copy whose history can be mutated independently.
// Image bytes are shared; they are never written in place.
func (p *GeneratedPost) Clone() *GeneratedPost {
	c := *p
	c.History = make([]Revision, len(p.History))
	copy(c.History, p.History)
	return &c
}

func (p *GeneratedPost) touch() {
	p.Version++
	p.UpdatedAt = time.Now()
}
