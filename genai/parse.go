package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dnastudio/core"
)

// ErrParse is returned when a text response does not carry the expected JSON.
var ErrParse = errors.New("failed to parse structural DNA")

// BlueprintAnalysis is the result of analysing a reference design.
type BlueprintAnalysis struct {
	Markdown string         `json:"markdown"`
	DNA      core.DesignDNA `json:"json"`
}

// ParseBlueprintAnalysis splits a builder response into its markdown report
// and the DNA that follows the JSON marker.
func ParseBlueprintAnalysis(raw string) (BlueprintAnalysis, error) {
	markdown, jsonPart, ok := strings.Cut(raw, jsonMarker)
	if !ok {
		return BlueprintAnalysis{}, fmt.Errorf("%w: marker %s not found", ErrParse, jsonMarker)
	}
	var dna core.DesignDNA
	if err := json.Unmarshal([]byte(stripFences(jsonPart)), &dna); err != nil {
		return BlueprintAnalysis{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return BlueprintAnalysis{
		Markdown: strings.TrimSpace(markdown),
		DNA:      dna.WithDefaults(),
	}, nil
}

func parseBrand(raw string) (core.BrandDNA, error) {
	var dna core.BrandDNA
	if err := json.Unmarshal([]byte(stripFences(raw)), &dna); err != nil {
		return core.BrandDNA{}, fmt.Errorf("failed to parse brand DNA: %w", err)
	}
	return dna.WithDefaults(), nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
