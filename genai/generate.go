package genai

import (
	"context"
	"fmt"
	"strings"

	"dnastudio/core"
	"dnastudio/refine"
)

// Feature names recorded in usage logs.
const (
	FeatureAnalyzeBlueprint = "analyze-blueprint"
	FeatureAnalyzeBrand     = "analyze-brand"
	FeatureTemplate         = "generate-template"
	FeatureGeneratePost     = "generate-post"
	FeatureDraftCopy        = "draft-copy"
	FeatureRefine           = "refine"
)

// GenerateRequest describes a new post built from a blueprint.
type GenerateRequest struct {
	DNA         core.DesignDNA
	Brief       core.ContentBrief
	Intensity   core.RemixIntensity
	Brand       *core.BrandDNA
	AspectRatio core.AspectRatio
	// Layout is an optional template image the result should follow.
	Layout *core.EncodedImage
}

// AnalyzeBlueprint extracts the structural DNA of a reference design.
func (c *Client) AnalyzeBlueprint(ctx context.Context, img core.EncodedImage, notes string) (BlueprintAnalysis, error) {
	if img.IsZero() {
		return BlueprintAnalysis{}, fmt.Errorf("%w: reference image is required", core.ErrValidation)
	}
	raw, err := c.generateText(ctx, FeatureAnalyzeBlueprint, image(img.DataURL()), text(builderText(notes)))
	if err != nil {
		return BlueprintAnalysis{}, err
	}
	return ParseBlueprintAnalysis(raw)
}

// AnalyzeBrand extracts brand identity rules from an image.
func (c *Client) AnalyzeBrand(ctx context.Context, img core.EncodedImage) (core.BrandDNA, error) {
	if img.IsZero() {
		return core.BrandDNA{}, fmt.Errorf("%w: brand image is required", core.ErrValidation)
	}
	raw, err := c.generateText(ctx, FeatureAnalyzeBrand, image(img.DataURL()), text(brandPrompt))
	if err != nil {
		return core.BrandDNA{}, err
	}
	return parseBrand(raw)
}

// GenerateTemplate renders a placeholder mockup of a blueprint. Templates
// are always square.
func (c *Client) GenerateTemplate(ctx context.Context, dna core.DesignDNA) (core.EncodedImage, error) {
	dna = dna.WithDefaults()
	if err := dna.Validate(); err != nil {
		return core.EncodedImage{}, err
	}
	return c.generateImage(ctx, FeatureTemplate, core.AspectSquare, text(templateText(dna)))
}

// GeneratePost renders a finished post from a blueprint and a brief.
func (c *Client) GeneratePost(ctx context.Context, req GenerateRequest) (core.EncodedImage, error) {
	req.DNA = req.DNA.WithDefaults()
	if err := req.DNA.Validate(); err != nil {
		return core.EncodedImage{}, err
	}
	if err := req.Brief.Validate(); err != nil {
		return core.EncodedImage{}, err
	}
	if req.Intensity == "" {
		req.Intensity = core.IntensityStrict
	}
	if req.AspectRatio == "" {
		req.AspectRatio = core.AspectSquare
	}
	parts := []any{text(postText(req))}
	if req.Layout != nil && !req.Layout.IsZero() {
		parts = append(parts, image(req.Layout.DataURL()))
	}
	return c.generateImage(ctx, FeatureGeneratePost, req.AspectRatio, parts...)
}

// DraftCopy returns a markdown production report for a brief without
// rendering an image.
func (c *Client) DraftCopy(ctx context.Context, dna core.DesignDNA, brief core.ContentBrief, intensity core.RemixIntensity) (string, error) {
	if err := brief.Validate(); err != nil {
		return "", err
	}
	if intensity == "" {
		intensity = core.IntensityStrict
	}
	raw, err := c.generateText(ctx, FeatureDraftCopy, text(draftText(dna.WithDefaults(), brief, intensity)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// Transform implements refine.Transformer.
func (c *Client) Transform(ctx context.Context, req refine.TransformRequest) (core.EncodedImage, error) {
	parts := []any{image(req.Image.DataURL())}
	if req.Reference != nil && !req.Reference.IsZero() {
		parts = append(parts, image(req.Reference.DataURL()))
	}
	parts = append(parts, text(transformText(req)))
	return c.generateImage(ctx, FeatureRefine, req.AspectRatio, parts...)
}

var _ refine.Transformer = (*Client)(nil)
