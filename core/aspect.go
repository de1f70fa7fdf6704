package core

import "fmt"

// AspectRatio is the requested output shape of a generated image.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectClassic   AspectRatio = "4:3"
	AspectTall      AspectRatio = "3:4"
)

var aspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectClassic, AspectTall}

// AspectRatios lists the supported ratios.
func AspectRatios() []AspectRatio {
	out := make([]AspectRatio, len(aspectRatios))
	copy(out, aspectRatios)
	return out
}

// ParseAspectRatio validates s. An empty string selects 1:1.
func ParseAspectRatio(s string) (AspectRatio, error) {
	if s == "" {
		return AspectSquare, nil
	}
	for _, r := range aspectRatios {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported aspect ratio %q", ErrValidation, s)
}
