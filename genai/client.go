// Package genai talks to an OpenAI-compatible chat completions endpoint
// that can return images (OpenRouter and compatible gateways).
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"dnastudio/config"
	"dnastudio/core"

	"github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned when no API key was configured.
var ErrNotConfigured = errors.New("generative service API key is not configured")

// UsageRecorder receives one entry per completed call.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, entry core.UsageLog) error
}

type Client struct {
	cfg   config.GenAI
	http  *http.Client
	usage UsageRecorder
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithUsageRecorder(r UsageRecorder) Option {
	return func(c *Client) { c.usage = r }
}

func NewClient(cfg config.GenAI, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.APIKey == "" {
		logrus.Warn("GENAI_API_KEY not set. Generation and refinement will fail.")
	}
	return c
}

// complete sends one chat completion request. It never retries.
func (c *Client) complete(ctx context.Context, feature string, body chatCompletionsRequest) (*chatCompletionsResponse, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log := logrus.WithFields(logrus.Fields{"feature": feature, "model": body.Model})
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Error("Generative service request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse response (%d): %s", resp.StatusCode, truncate(string(respBody), 500))
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("api error (%d): %s", resp.StatusCode, parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api error (%d): %s", resp.StatusCode, truncate(string(respBody), 500))
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned (%d)", resp.StatusCode)
	}

	log.WithFields(logrus.Fields{
		"duration":      time.Since(started).Round(time.Millisecond),
		"input_tokens":  parsed.Usage.PromptTokens,
		"output_tokens": parsed.Usage.CompletionTokens,
	}).Info("Generative service call completed")
	c.recordUsage(ctx, feature, body.Model, parsed)
	return &parsed, nil
}

func (c *Client) recordUsage(ctx context.Context, feature, model string, resp chatCompletionsResponse) {
	if c.usage == nil {
		return
	}
	if resp.Model != "" {
		model = resp.Model
	}
	entry := c.cost(core.UsageLog{
		Feature:      feature,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})
	if err := c.usage.RecordUsage(ctx, entry); err != nil {
		logrus.WithField("feature", feature).WithError(err).Warn("Failed to record usage")
	}
}

// cost prices an entry from its token counts.
func (c *Client) cost(entry core.UsageLog) core.UsageLog {
	entry.CostUSD = float64(entry.InputTokens)*c.cfg.InputUSDPerMTok/1e6 +
		float64(entry.OutputTokens)*c.cfg.OutputUSDPerMTok/1e6
	entry.CostIDR = entry.CostUSD * c.cfg.USDToIDR
	return entry
}

// firstImage extracts the first image of the first choice.
func firstImage(resp *chatCompletionsResponse) (core.EncodedImage, error) {
	images := resp.Choices[0].Message.Images
	if len(images) == 0 {
		if msg := strings.TrimSpace(resp.text()); msg != "" {
			return core.EncodedImage{}, fmt.Errorf("no image returned: %s", truncate(msg, 300))
		}
		return core.EncodedImage{}, errors.New("no image returned")
	}
	url := strings.TrimSpace(images[0].ImageURL.URL)
	if !strings.HasPrefix(url, "data:") {
		return core.EncodedImage{}, fmt.Errorf("unsupported image URL %q", truncate(url, 80))
	}
	img, err := core.ParseDataURL(url)
	if err != nil {
		return core.EncodedImage{}, err
	}
	if img.IsZero() {
		return core.EncodedImage{}, errors.New("image payload is empty")
	}
	return img, nil
}

func (c *Client) generateImage(ctx context.Context, feature string, ratio core.AspectRatio, parts ...any) (core.EncodedImage, error) {
	resp, err := c.complete(ctx, feature, chatCompletionsRequest{
		Model:       c.cfg.ImageModel,
		Messages:    userMessage(parts...),
		Modalities:  []string{"image", "text"},
		ImageConfig: &imageConfigBody{AspectRatio: string(ratio)},
	})
	if err != nil {
		return core.EncodedImage{}, err
	}
	return firstImage(resp)
}

func (c *Client) generateText(ctx context.Context, feature string, parts ...any) (string, error) {
	resp, err := c.complete(ctx, feature, chatCompletionsRequest{
		Model:    c.cfg.TextModel,
		Messages: userMessage(parts...),
	})
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
