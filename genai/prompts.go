package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"dnastudio/core"
	"dnastudio/refine"
)

const jsonMarker = "---JSON_START---"

const builderPrompt = `You are a Design Systems Engineer. Analyze the image to extract its "Structural Blueprint".
IGNORE the specific topic/content. FOCUS on the layout architecture and aesthetic rules.

Output:
1. A Markdown "System Documentation": how the grid works, why fonts were chosen, and how the negative space is utilized.
2. A JSON Structural Spec.

JSON Schema:
{
  "template_name": "string",
  "structural_rules": {
    "layout_archetype": "e.g., Split-Screen, Rule of Thirds, Minimalist Center",
    "typography_system": "Specific pairings and hierarchy rules",
    "color_grammar": "Palette logic and contrast ratios",
    "composition_map": "Map elements to a 9-patch grid (Top-Left, Center, etc.)",
    "aesthetic_motifs": "Textures, lighting, shadows, rendering style"
  },
  "layout_constraints": {
    "forbidden_elements": ["Things that would break this style"],
    "mandatory_anchors": ["Elements that MUST stay fixed"],
    "white_space_logic": "How to handle empty areas"
  },
  "placeholder_map": {
    "headline_style": "Description of font/placement",
    "body_style": "Description of font/placement",
    "cta_style": "Description of button/link style"
  },
  "base_visual_dna_prompt": "A master prompt describing ONLY the visual style and layout, using [HEADLINE], [SUBJECT], and [BODY] as variables."
}

Return ONLY Markdown first, then "` + jsonMarker + `", then the JSON.`

const brandPrompt = `You are a Brand Strategist. Analyze the image and extract the brand identity it expresses.
Return ONLY a JSON object with this shape:
{
  "brand_name": "string",
  "brand_vibe": "One sentence on the emotional tone",
  "color_palette": ["#hex codes in order of importance"],
  "typography": "Typeface families and how they are paired",
  "logo_usage": "Placement, clear space and sizing rules",
  "visual_constraints": ["Rules the brand never breaks"]
}`

func builderText(notes string) string {
	if strings.TrimSpace(notes) == "" {
		notes = "None"
	}
	return builderPrompt + "\n\nContext Notes: " + notes
}

func templateText(dna core.DesignDNA) string {
	return fmt.Sprintf(`You are a professional mockup generator.
TASK: Generate a clean Design Template based on this blueprint: %s

REPLACEMENT RULES:
- Replace [HEADLINE] with "MAIN TITLE"
- Replace [SUBJECT] with a generic gray mannequin or abstract silhouette in the specified style
- Replace [BODY] with "LOREM IPSUM"
- Keep layout, alignment, and anchors EXACTLY as described in: %s
- MAINTAIN the texture, lighting, and color mood of the blueprint.`,
		dna.BaseVisualPrompt, dna.StructuralRules.CompositionMap)
}

var intensityRules = map[core.RemixIntensity]string{
	core.IntensityStrict: "Reproduce the layout exactly. Only the content may change.",
	core.IntensityLight:  "Keep the layout and anchors. Minor stylistic variation is allowed.",
	core.IntensityHeavy:  "Keep the spirit of the design system. Composition may be reinterpreted.",
}

func briefText(brief core.ContentBrief) string {
	return fmt.Sprintf(`NEW CONTENT BRIEF (VARIABLE):
- Topic: %s
- Display Requirements: %s
- Copy Tone: %s
- Audience: %s`, brief.Topic, brief.ElementsToDisplay, brief.CopyInstructions, brief.TargetAudience)
}

func brandText(brand *core.BrandDNA) string {
	if brand == nil {
		return ""
	}
	b := brand.WithDefaults()
	return fmt.Sprintf(`

BRAND OVERLAY (MANDATORY):
- Brand: %s
- Vibe: %s
- Palette: %s
- Typography: %s
- Logo: %s
- Never: %s`, b.BrandName, b.BrandVibe, strings.Join(b.Palette, ", "), b.Typography, b.LogoUsage,
		strings.Join(b.VisualConstraints, "; "))
}

func postText(req GenerateRequest) string {
	system, _ := json.Marshal(req.DNA)
	layout := ""
	if req.Layout != nil {
		layout = "\nThe attached image is the layout template. Match its composition."
	}
	return fmt.Sprintf(`You are a Content Production Unit.
MISSION: Apply NEW CONTENT to an EXISTING DESIGN SYSTEM and render the finished post.

DESIGN SYSTEM (FIXED): %s

%s

STRICTNESS LEVEL: %s. %s%s%s`,
		system, briefText(req.Brief), req.Intensity, intensityRules[req.Intensity], brandText(req.Brand), layout)
}

func draftText(dna core.DesignDNA, brief core.ContentBrief, intensity core.RemixIntensity) string {
	system, _ := json.Marshal(dna)
	return fmt.Sprintf(`You are a Content Production Unit.
MISSION: Apply NEW CONTENT to an EXISTING DESIGN SYSTEM.

DESIGN SYSTEM (FIXED): %s

%s

STRICTNESS LEVEL: %s

OUTPUT:
1. A FINISHED VISUAL PROMPT: Merge the Design System DNA with the New Content Brief.
   - Ensure the [SUBJECT] describes the new elements to display.
   - Keep the layout and anchors from the original.
2. 3 PRODUCTION-READY HEADLINES based on the tone.
3. FULL CAPTION + 3 CTA options.
4. COLOR PALETTE codes for the new elements.

Format as a clean Markdown report.`, system, briefText(brief), intensity)
}

func transformText(req refine.TransformRequest) string {
	switch {
	case req.Mode == refine.ModeStructuralCorrection && req.Reference != nil:
		return fmt.Sprintf(`STRUCTURAL CORRECTION. The first image is the current design, the second is the target reference.
Rebuild the first image so its layout, alignment and proportions match the reference while keeping its content.
Additional instruction: %s
Keep the aspect ratio at %s.`, req.Instruction, req.AspectRatio)
	case req.Mode == refine.ModeStructuralCorrection:
		return fmt.Sprintf(`STRUCTURAL CORRECTION. The image carries hand-drawn marks (strokes, boxes, circles, notes).
Apply what the marks ask for, then remove every mark from the result.
Instruction: %s
Keep the aspect ratio at %s.`, req.Instruction, req.AspectRatio)
	case req.Reference != nil:
		return fmt.Sprintf(`CONTENT EDIT. The first image is the current design, the second is a visual reference for the change.
Keep the layout, typography and palette of the first image exactly.
Apply only this change, using the reference for look and content: %s
Keep the aspect ratio at %s.`, req.Instruction, req.AspectRatio)
	default:
		return fmt.Sprintf(`CONTENT EDIT. Keep the layout, typography and palette of the image exactly.
Apply only this change: %s
Keep the aspect ratio at %s.`, req.Instruction, req.AspectRatio)
	}
}
