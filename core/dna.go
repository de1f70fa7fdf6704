package core

import (
	"fmt"
	"strings"
	"time"
)

// StructuralRules describes the visual system of a reference design.
type StructuralRules struct {
	LayoutArchetype  string `json:"layout_archetype" yaml:"layout_archetype"`
	TypographySystem string `json:"typography_system" yaml:"typography_system"`
	ColorGrammar     string `json:"color_grammar" yaml:"color_grammar"`
	CompositionMap   string `json:"composition_map" yaml:"composition_map"`
	AestheticMotifs  string `json:"aesthetic_motifs" yaml:"aesthetic_motifs"`
}

type LayoutConstraints struct {
	ForbiddenElements []string `json:"forbidden_elements" yaml:"forbidden_elements"`
	MandatoryAnchors  []string `json:"mandatory_anchors" yaml:"mandatory_anchors"`
	WhiteSpaceLogic   string   `json:"white_space_logic" yaml:"white_space_logic"`
}

type PlaceholderMap struct {
	HeadlineStyle string `json:"headline_style" yaml:"headline_style"`
	BodyStyle     string `json:"body_style" yaml:"body_style"`
	CTAStyle      string `json:"cta_style" yaml:"cta_style"`
}

// DesignDNA is the structural blueprint extracted from a reference design.
// BaseVisualPrompt uses [HEADLINE], [SUBJECT] and [BODY] as variables.
type DesignDNA struct {
	TemplateName      string            `json:"template_name" yaml:"template_name"`
	StructuralRules   StructuralRules   `json:"structural_rules" yaml:"structural_rules"`
	LayoutConstraints LayoutConstraints `json:"layout_constraints" yaml:"layout_constraints"`
	PlaceholderMap    PlaceholderMap    `json:"placeholder_map" yaml:"placeholder_map"`
	BaseVisualPrompt  string            `json:"base_visual_dna_prompt" yaml:"base_visual_dna_prompt"`
}

const (
	DefaultTemplateName = "Untitled blueprint"
	unspecified         = "unspecified"
)

// WithDefaults returns a copy of d with every missing field filled in.
// Lists are never nil and text fields are trimmed.
func (d DesignDNA) WithDefaults() DesignDNA {
	out := DesignDNA{
		TemplateName: orDefault(d.TemplateName, DefaultTemplateName),
		StructuralRules: StructuralRules{
			LayoutArchetype:  orDefault(d.StructuralRules.LayoutArchetype, unspecified),
			TypographySystem: orDefault(d.StructuralRules.TypographySystem, unspecified),
			ColorGrammar:     orDefault(d.StructuralRules.ColorGrammar, unspecified),
			CompositionMap:   orDefault(d.StructuralRules.CompositionMap, unspecified),
			AestheticMotifs:  orDefault(d.StructuralRules.AestheticMotifs, unspecified),
		},
		LayoutConstraints: LayoutConstraints{
			ForbiddenElements: cleanList(d.LayoutConstraints.ForbiddenElements),
			MandatoryAnchors:  cleanList(d.LayoutConstraints.MandatoryAnchors),
			WhiteSpaceLogic:   orDefault(d.LayoutConstraints.WhiteSpaceLogic, unspecified),
		},
		PlaceholderMap: PlaceholderMap{
			HeadlineStyle: orDefault(d.PlaceholderMap.HeadlineStyle, unspecified),
			BodyStyle:     orDefault(d.PlaceholderMap.BodyStyle, unspecified),
			CTAStyle:      orDefault(d.PlaceholderMap.CTAStyle, unspecified),
		},
		BaseVisualPrompt: strings.TrimSpace(d.BaseVisualPrompt),
	}
	if out.BaseVisualPrompt == "" {
		out.BaseVisualPrompt = out.fallbackPrompt()
	}
	return out
}

// Validate checks the fields that cannot be defaulted meaningfully.
func (d DesignDNA) Validate() error {
	if strings.TrimSpace(d.BaseVisualPrompt) == "" {
		return fmt.Errorf("%w: blueprint has no base visual prompt", ErrValidation)
	}
	return nil
}

// fallbackPrompt assembles a master prompt from the structural rules when
// the analysis did not produce one.
func (d DesignDNA) fallbackPrompt() string {
	r := d.StructuralRules
	if r.LayoutArchetype == unspecified && r.AestheticMotifs == unspecified {
		return ""
	}
	return fmt.Sprintf("[SUBJECT] in a %s layout, %s, colors: %s. Headline [HEADLINE], body [BODY].",
		r.LayoutArchetype, r.AestheticMotifs, r.ColorGrammar)
}

// Blueprint is a saved reference design and its extracted DNA.
type Blueprint struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Tags          []string      `json:"tags"`
	SourceImage   EncodedImage  `json:"imageSource"`
	TemplateImage *EncodedImage `json:"templateImage,omitempty"`
	MarkdownBrief string        `json:"markdownBrief"`
	DNA           DesignDNA     `json:"jsonSpec"`
	AspectRatio   AspectRatio   `json:"aspectRatio"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// BrandDNA captures the identity rules of a brand.
type BrandDNA struct {
	BrandName         string   `json:"brand_name"`
	BrandVibe         string   `json:"brand_vibe"`
	Palette           []string `json:"color_palette"`
	Typography        string   `json:"typography"`
	LogoUsage         string   `json:"logo_usage"`
	VisualConstraints []string `json:"visual_constraints"`
}

const DefaultBrandName = "Unnamed brand"

func (b BrandDNA) WithDefaults() BrandDNA {
	return BrandDNA{
		BrandName:         orDefault(b.BrandName, DefaultBrandName),
		BrandVibe:         orDefault(b.BrandVibe, unspecified),
		Palette:           cleanList(b.Palette),
		Typography:        orDefault(b.Typography, unspecified),
		LogoUsage:         orDefault(b.LogoUsage, unspecified),
		VisualConstraints: cleanList(b.VisualConstraints),
	}
}

// BrandIdentity is a saved brand reference.
type BrandIdentity struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	SourceImage EncodedImage `json:"imageSource"`
	DNA         BrandDNA     `json:"dna"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// ContentBrief is the variable content poured into a blueprint.
type ContentBrief struct {
	Topic             string `json:"topic"`
	ElementsToDisplay string `json:"elements_to_display"`
	CopyInstructions  string `json:"copy_instructions"`
	TargetAudience    string `json:"target_audience"`
}

func (c ContentBrief) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("%w: brief topic is required", ErrValidation)
	}
	return nil
}

// RemixIntensity controls how far a generation may drift from the blueprint.
type RemixIntensity string

const (
	IntensityStrict RemixIntensity = "strict"
	IntensityLight  RemixIntensity = "light"
	IntensityHeavy  RemixIntensity = "heavy"
)

func ParseRemixIntensity(s string) (RemixIntensity, error) {
	switch RemixIntensity(s) {
	case "":
		return IntensityStrict, nil
	case IntensityStrict, IntensityLight, IntensityHeavy:
		return RemixIntensity(s), nil
	}
	return "", fmt.Errorf("%w: unknown remix intensity %q", ErrValidation, s)
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
