package genai

import (
	"encoding/json"
	"strings"
)

type LiteralType string

const (
	LiteralTypeText     LiteralType = "text"
	LiteralTypeImageURL LiteralType = "image_url"
)

type textPart struct {
	Type LiteralType `json:"type"`
	Text string      `json:"text"`
}

type imageURL struct {
	URL string `json:"url"`
}

type imagePart struct {
	Type     LiteralType `json:"type"`
	ImageURL imageURL    `json:"image_url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

type imageConfigBody struct {
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

type chatCompletionsRequest struct {
	Model       string           `json:"model"`
	Messages    []chatMessage    `json:"messages"`
	Modalities  []string         `json:"modalities,omitempty"`
	Stream      bool             `json:"stream"`
	ImageConfig *imageConfigBody `json:"image_config,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type responseMessage struct {
	// Content is either a string or a list of typed parts.
	Content json.RawMessage `json:"content"`
	Images  []struct {
		ImageURL imageURL `json:"image_url"`
	} `json:"images"`
}

type chatCompletionsResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Model   string `json:"model"`
	Choices []struct {
		Message responseMessage `json:"message"`
	} `json:"choices"`
	Usage usage `json:"usage"`
}

// text returns the textual content of the first choice.
func (r *chatCompletionsResponse) text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	raw := r.Choices[0].Message.Content
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []textPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == LiteralTypeText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func userMessage(parts ...any) []chatMessage {
	return []chatMessage{{Role: "user", Content: parts}}
}

func text(s string) textPart {
	return textPart{Type: LiteralTypeText, Text: s}
}

func image(dataURL string) imagePart {
	return imagePart{Type: LiteralTypeImageURL, ImageURL: imageURL{URL: dataURL}}
}
