// Package posts serves generated posts and their revision history.
package posts

import (
	"context"
	"net/http"
	"strings"

	"dnastudio/core"
	"dnastudio/genai"
	"dnastudio/handlers/api/respond"
	"dnastudio/refine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/russross/blackfriday/v2"
	"github.com/sirupsen/logrus"
)

// Store is the slice of the library the post handlers need.
type Store interface {
	Posts(ctx context.Context) ([]*core.GeneratedPost, error)
	Post(ctx context.Context, id string) (*core.GeneratedPost, error)
	CreatePost(ctx context.Context, post *core.GeneratedPost) error
	CommitPost(ctx context.Context, post *core.GeneratedPost, expectedVersion uint64) error
	DeletePost(ctx context.Context, id string) error
	Blueprint(ctx context.Context, id string) (core.Blueprint, error)
	Brand(ctx context.Context, id string) (core.BrandIdentity, error)
}

type Generator interface {
	GeneratePost(ctx context.Context, req genai.GenerateRequest) (core.EncodedImage, error)
	DraftCopy(ctx context.Context, dna core.DesignDNA, brief core.ContentBrief, intensity core.RemixIntensity) (string, error)
}

// Notifier is told about every change to a stored post. A nil post means
// the post was deleted.
type Notifier interface {
	PostUpdated(postID, event string, post *core.GeneratedPost)
}

type CreateRequest struct {
	Name        string            `json:"name"`
	BlueprintID string            `json:"blueprintId"`
	BrandID     string            `json:"brandId,omitempty"`
	Brief       core.ContentBrief `json:"brief"`
	Intensity   string            `json:"intensity"`
	AspectRatio string            `json:"aspectRatio"`
	// UseTemplate attaches the blueprint's template image as a layout guide.
	UseTemplate bool `json:"useTemplate"`
}

type RefineRequest struct {
	Instruction      string             `json:"instruction"`
	Reference        *core.EncodedImage `json:"reference,omitempty"`
	AnnotatedImage   *core.EncodedImage `json:"annotatedImage,omitempty"`
	AnnotationGuided bool               `json:"annotationGuided"`
}

type RefineResponse struct {
	Revision core.Revision       `json:"revision"`
	Post     *core.GeneratedPost `json:"post"`
}

type RollbackRequest struct {
	RevisionID string `json:"revisionId"`
}

type DraftRequest struct {
	BlueprintID string            `json:"blueprintId"`
	Brief       core.ContentBrief `json:"brief"`
	Intensity   string            `json:"intensity"`
}

func notify(n Notifier, postID, event string, post *core.GeneratedPost) {
	if n != nil {
		n.PostUpdated(postID, event, post)
	}
}

func HandleList(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := store.Posts(r.Context())
		if err != nil {
			respond.Error(w, r, err, "Failed to list posts")
			return
		}
		render.JSON(w, r, posts)
	}
}

func HandleGet(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := store.Post(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err, "Failed to load post")
			return
		}
		render.JSON(w, r, post)
	}
}

// HandleCreate generates a post from a blueprint and a brief and records it
// with its initial revision.
func HandleCreate(store Store, gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}

		ratio, err := core.ParseAspectRatio(req.AspectRatio)
		if err != nil {
			respond.Error(w, r, err, "Invalid aspect ratio")
			return
		}
		intensity, err := core.ParseRemixIntensity(req.Intensity)
		if err != nil {
			respond.Error(w, r, err, "Invalid intensity")
			return
		}
		if err := req.Brief.Validate(); err != nil {
			respond.Error(w, r, err, "Invalid brief")
			return
		}

		ctx := r.Context()
		blueprint, err := store.Blueprint(ctx, req.BlueprintID)
		if err != nil {
			respond.Error(w, r, err, "Failed to load blueprint")
			return
		}
		genReq := genai.GenerateRequest{
			DNA:         blueprint.DNA,
			Brief:       req.Brief,
			Intensity:   intensity,
			AspectRatio: ratio,
		}
		if req.UseTemplate {
			genReq.Layout = blueprint.TemplateImage
		}
		if req.BrandID != "" {
			brand, err := store.Brand(ctx, req.BrandID)
			if err != nil {
				respond.Error(w, r, err, "Failed to load brand")
				return
			}
			genReq.Brand = &brand.DNA
		}

		image, err := gen.GeneratePost(ctx, genReq)
		if err != nil {
			respond.Error(w, r, err, "Failed to generate post")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = req.Brief.Topic
		}
		post, err := core.NewGeneratedPost(name, image, ratio)
		if err != nil {
			respond.Error(w, r, err, "Failed to record post")
			return
		}
		post.BlueprintID = blueprint.ID
		post.BrandID = req.BrandID

		if err := store.CreatePost(ctx, post); err != nil {
			respond.Error(w, r, err, "Failed to save post")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, post)
	}
}

// HandleDraft returns a markdown production report for a brief.
func HandleDraft(store Store, gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DraftRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}

		intensity, err := core.ParseRemixIntensity(req.Intensity)
		if err != nil {
			respond.Error(w, r, err, "Invalid intensity")
			return
		}
		blueprint, err := store.Blueprint(r.Context(), req.BlueprintID)
		if err != nil {
			respond.Error(w, r, err, "Failed to load blueprint")
			return
		}
		report, err := gen.DraftCopy(r.Context(), blueprint.DNA, req.Brief, intensity)
		if err != nil {
			respond.Error(w, r, err, "Failed to draft copy")
			return
		}
		render.JSON(w, r, map[string]string{
			"markdown": report,
			"html":     string(blackfriday.Run([]byte(report))),
		})
	}
}

// HandleRefine runs one refinement against the stored post. The result is
// only written if nobody changed the post while the service was working.
func HandleRefine(store Store, orch *refine.Orchestrator, n Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefineRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}

		ctx := r.Context()
		post, err := store.Post(ctx, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err, "Failed to load post")
			return
		}
		loaded := post.Version

		rev, err := orch.Refine(ctx, post, refine.Request{
			Instruction:      req.Instruction,
			Reference:        req.Reference,
			AnnotationGuided: req.AnnotationGuided,
			Marked:           req.AnnotatedImage,
		})
		if err != nil {
			respond.Error(w, r, err, "Failed to refine post")
			return
		}
		if err := store.CommitPost(ctx, post, loaded); err != nil {
			respond.Error(w, r, err, "Failed to save post")
			return
		}

		logrus.WithFields(logrus.Fields{
			"post_id":     post.ID,
			"revision_id": rev.ID,
			"kind":        rev.Kind,
		}).Info("Post refined")
		notify(n, post.ID, "refined", post)
		render.JSON(w, r, RefineResponse{Revision: rev, Post: post})
	}
}

func HandleRollback(store Store, orch *refine.Orchestrator, n Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RollbackRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}
		if req.RevisionID == "" {
			respond.BadRequest(w, r, "revisionId is required")
			return
		}

		ctx := r.Context()
		post, err := store.Post(ctx, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err, "Failed to load post")
			return
		}
		loaded := post.Version

		if err := orch.Rollback(post, req.RevisionID); err != nil {
			respond.Error(w, r, err, "Failed to roll back post")
			return
		}
		if err := store.CommitPost(ctx, post, loaded); err != nil {
			respond.Error(w, r, err, "Failed to save post")
			return
		}

		notify(n, post.ID, "rolled-back", post)
		render.JSON(w, r, post)
	}
}

func HandleDelete(store Store, n Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.DeletePost(r.Context(), id); err != nil {
			respond.Error(w, r, err, "Failed to delete post")
			return
		}
		notify(n, id, "deleted", nil)
		w.WriteHeader(http.StatusNoContent)
	}
}
