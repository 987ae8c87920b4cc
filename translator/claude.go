package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ============================================================================
// CLAUDE PROVIDER — Anthropic Messages API
// ============================================================================

const defaultClaudeURL = "https://api.anthropic.com"

// ClaudeProvider implements Provider with the Anthropic Messages API.
type ClaudeProvider struct {
	model   string
	baseURL string
	client  *http.Client
	api     anthropic.Client
}

// ClaudeOption customizes a ClaudeProvider.
type ClaudeOption func(*ClaudeProvider)

// WithClaudeURL overrides the API base URL.
func WithClaudeURL(url string) ClaudeOption {
	return func(c *ClaudeProvider) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) ClaudeOption {
	return func(c *ClaudeProvider) { c.client = client }
}

// NewClaude creates a Claude provider. Retries are left to the Router.
func NewClaude(apiKey, model string, opts ...ClaudeOption) *ClaudeProvider {
	c := &ClaudeProvider{
		model:   model,
		baseURL: defaultClaudeURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithHTTPClient(c.client),
		option.WithMaxRetries(0),
	)
	return c
}

// Name implements Provider.
func (c *ClaudeProvider) Name() string { return "claude" }

// Complete implements Provider.
func (c *ClaudeProvider) Complete(ctx context.Context, p Prompt) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(p.MaxTokens),
		Temperature: anthropic.Float(p.Temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.User))},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: c.Name(), Status: apiErr.StatusCode, Message: errorMessage(apiErr.RawJSON())}
		}
		return "", fmt.Errorf("claude request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "" || block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}
	return b.String(), nil
}

// errorMessage pulls error.message out of an Anthropic error body.
func errorMessage(raw string) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(raw), &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return preview(raw, 200)
}
