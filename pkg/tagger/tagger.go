// Package tagger generates topical tags and a short supplemental summary
// for an article using Google GenAI Gemini.
package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"stockpile/pkg/retry"
	"stockpile/pkg/types"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second

	fillerTag     = "Other"
	maxSummaryLen = 100

	noDescription = "(no description)"
)

const promptTemplate = `Given the following article information, generate fitting tags and a supplemental summary.

# Article title
%s

# Article description
%s

# Output format
Respond with JSON in exactly this shape:

{
  "tags": ["tag1", "tag2", "tag3"],
  "summary": "supplemental summary (100 characters or fewer)"
}

# Requirements
- 3 to 5 tags, each a short word or phrase that captures the article
- The summary adds information the description lacks (100 characters or fewer)
- Return an empty summary when there is nothing worth adding
`

// DefaultTags returns the fallback tags used when generation fails. Each
// call returns a fresh slice because callers append to the result.
func DefaultTags() []string {
	return []string{"Uncategorized", "Needs Review"}
}

// Config holds construction parameters for a Generator.
type Config struct {
	APIKey  string
	Model   string // defaults to gemini-2.0-flash
	Timeout time.Duration
	Retry   retry.Policy
	MinTags int
	MaxTags int
}

// Generator produces tags and summaries. Generate never fails: any error
// degrades to the default tags and an empty summary.
type Generator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   retry.Policy
	minTags int
	maxTags int
	logger  *slog.Logger
}

// New creates a Generator backed by the Gemini API.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MinTags <= 0 {
		cfg.MinTags = 3
	}
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = 5
	}

	return &Generator{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		minTags: cfg.MinTags,
		maxTags: cfg.MaxTags,
		logger:  logger.With("component", "tagger"),
	}, nil
}

// Generate returns 3-5 tags and a summary of at most 100 characters for the
// given title and description.
func (g *Generator) Generate(ctx context.Context, title, description string) types.TagResult {
	if description == "" {
		description = noDescription
	}
	prompt := fmt.Sprintf(promptTemplate, title, description)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var raw string
	err := retry.Do(ctx, g.logger, g.retry, "generate tags", func(ctx context.Context) error {
		text, err := g.call(ctx, prompt)
		if err != nil {
			return err
		}
		raw = text
		return nil
	})
	if err != nil {
		g.logger.Warn("tag generation failed, using fallback", "title", title, "err", err)
		return fallbackResult()
	}

	result, err := parseResponse(raw)
	if err != nil {
		g.logger.Warn("unparsable tag response, using fallback", "title", title, "err", err)
		return fallbackResult()
	}

	if n := len(result.Tags); n < g.minTags || n > g.maxTags {
		g.logger.Warn("tag count out of range, adjusting", "count", n)
		result.Tags = AdjustTags(result.Tags, g.minTags, g.maxTags)
	}
	result.Summary = TruncateSummary(result.Summary, maxSummaryLen)

	g.logger.Info("tags generated", "title", title, "tags", result.Tags)
	return result
}

func (g *Generator) call(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", retry.Permanent(fmt.Errorf("empty gemini response"))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", retry.Permanent(fmt.Errorf("gemini response has no text parts"))
	}
	return text, nil
}

// parseResponse decodes the model output, tolerating a markdown code fence
// around the JSON payload.
func parseResponse(raw string) (types.TagResult, error) {
	cleaned := stripCodeFence(raw)

	var result types.TagResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return types.TagResult{}, fmt.Errorf("decode tag response: %w", err)
	}
	return result, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// AdjustTags forces the tag count into [min, max]: short lists are padded
// with the filler tag, long lists keep the first max entries in order.
func AdjustTags(tags []string, min, max int) []string {
	adjusted := append([]string(nil), tags...)
	for len(adjusted) < min {
		adjusted = append(adjusted, fillerTag)
	}
	if len(adjusted) > max {
		adjusted = adjusted[:max]
	}
	return adjusted
}

// TruncateSummary cuts s to at most limit characters.
func TruncateSummary(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func fallbackResult() types.TagResult {
	return types.TagResult{Tags: DefaultTags(), Summary: ""}
}
