package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ============================================================================
// GEMINI PROVIDER — Google Gemini through the generative-ai SDK
// ============================================================================

// GeminiProvider implements Provider with the Gemini API.
type GeminiProvider struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// NewGemini creates a Gemini provider. Extra client options are appended
// after the API key.
func NewGemini(apiKey, model string, opts ...option.ClientOption) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: model, opts: opts}
}

// Name implements Provider.
func (g *GeminiProvider) Name() string { return "gemini" }

// Complete implements Provider.
func (g *GeminiProvider) Complete(ctx context.Context, p Prompt) (string, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)...)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	if p.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(p.System))
	}
	model.SetTemperature(float32(p.Temperature))
	if p.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// classifyGeminiError maps client errors onto APIError so invalid keys and
// disabled models are not retried.
func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{Provider: "gemini", Status: gerr.Code, Message: gerr.Message}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
