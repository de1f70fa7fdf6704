// Package dna serves blueprint and brand extraction and their libraries.
package dna

import (
	"context"
	"net/http"
	"strings"

	"dnastudio/core"
	"dnastudio/genai"
	"dnastudio/handlers/api/respond"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/russross/blackfriday/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Analyzer interface {
	AnalyzeBlueprint(ctx context.Context, img core.EncodedImage, notes string) (genai.BlueprintAnalysis, error)
	AnalyzeBrand(ctx context.Context, img core.EncodedImage) (core.BrandDNA, error)
	GenerateTemplate(ctx context.Context, dna core.DesignDNA) (core.EncodedImage, error)
}

type Store interface {
	Blueprints(ctx context.Context) ([]core.Blueprint, error)
	Blueprint(ctx context.Context, id string) (core.Blueprint, error)
	SaveBlueprint(ctx context.Context, b core.Blueprint) (core.Blueprint, error)
	DeleteBlueprint(ctx context.Context, id string) error
	Brands(ctx context.Context) ([]core.BrandIdentity, error)
	SaveBrand(ctx context.Context, b core.BrandIdentity) (core.BrandIdentity, error)
	DeleteBrand(ctx context.Context, id string) error
}

type AnalyzeRequest struct {
	Image core.EncodedImage `json:"image"`
	Notes string            `json:"notes,omitempty"`
}

type SaveBlueprintRequest struct {
	core.Blueprint
	// RenderTemplate asks for a placeholder mockup to be generated before
	// saving.
	RenderTemplate bool `json:"renderTemplate"`
}

func HandleAnalyzeBlueprint(ai Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}
		analysis, err := ai.AnalyzeBlueprint(r.Context(), req.Image, req.Notes)
		if err != nil {
			respond.Error(w, r, err, "Failed to analyze blueprint")
			return
		}
		render.JSON(w, r, analysis)
	}
}

func HandleListBlueprints(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blueprints, err := store.Blueprints(r.Context())
		if err != nil {
			respond.Error(w, r, err, "Failed to list blueprints")
			return
		}
		render.JSON(w, r, blueprints)
	}
}

func HandleSaveBlueprint(store Store, ai Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveBlueprintRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}
		b := req.Blueprint
		b.DNA = b.DNA.WithDefaults()
		if err := b.DNA.Validate(); err != nil {
			respond.Error(w, r, err, "Invalid blueprint")
			return
		}
		if strings.TrimSpace(b.Name) == "" {
			b.Name = b.DNA.TemplateName
		}
		if b.AspectRatio == "" {
			b.AspectRatio = core.AspectSquare
		}

		if req.RenderTemplate {
			template, err := ai.GenerateTemplate(r.Context(), b.DNA)
			if err != nil {
				respond.Error(w, r, err, "Failed to render template")
				return
			}
			b.TemplateImage = &template
		}

		saved, err := store.SaveBlueprint(r.Context(), b)
		if err != nil {
			respond.Error(w, r, err, "Failed to save blueprint")
			return
		}
		logrus.WithFields(logrus.Fields{
			"blueprint_id": saved.ID,
			"template":     saved.TemplateImage != nil,
		}).Info("Blueprint saved")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

// HandleBlueprintBrief renders the blueprint's markdown documentation as HTML.
func HandleBlueprintBrief(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := store.Blueprint(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err, "Failed to load blueprint")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(blackfriday.Run([]byte(b.MarkdownBrief)))
	}
}

// HandleExportDNA returns the blueprint's DNA as a YAML document.
func HandleExportDNA(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := store.Blueprint(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err, "Failed to load blueprint")
			return
		}
		out, err := yaml.Marshal(b.DNA.WithDefaults())
		if err != nil {
			respond.Error(w, r, err, "Failed to encode blueprint")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(out)
	}
}

func HandleDeleteBlueprint(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteBlueprint(r.Context(), chi.URLParam(r, "id")); err != nil {
			respond.Error(w, r, err, "Failed to delete blueprint")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleAnalyzeBrand(ai Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if !respond.DecodeJSON(w, r, &req) {
			return
		}
		brand, err := ai.AnalyzeBrand(r.Context(), req.Image)
		if err != nil {
			respond.Error(w, r, err, "Failed to analyze brand")
			return
		}
		render.JSON(w, r, brand)
	}
}

func HandleListBrands(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := store.Brands(r.Context())
		if err != nil {
			respond.Error(w, r, err, "Failed to list brands")
			return
		}
		render.JSON(w, r, brands)
	}
}

func HandleSaveBrand(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b core.BrandIdentity
		if !respond.DecodeJSON(w, r, &b) {
			return
		}
		saved, err := store.SaveBrand(r.Context(), b)
		if err != nil {
			respond.Error(w, r, err, "Failed to save brand")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

func HandleDeleteBrand(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteBrand(r.Context(), chi.URLParam(r, "id")); err != nil {
			respond.Error(w, r, err, "Failed to delete brand")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
