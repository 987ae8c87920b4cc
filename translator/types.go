package translator

import (
	"context"
	"errors"
	"fmt"
)

// ============================================================================
// TRANSLATOR — AI boundary for dataset context → chart proposals
// ============================================================================
// The translator is the only component that calls an external AI service.
// It sends a schema summary, column types, a handful of sample rows and a
// statistical summary; it gets back proposal records, a code snippet or an
// interpretation. Everything that comes back is untrusted text until the
// parser and the proposal validator have accepted it.
// ============================================================================

var (
	// ErrParse means a response could not be reduced to JSON.
	ErrParse = errors.New("unparseable LLM response")

	// ErrNoValidProvider means no provider produced a result.
	ErrNoValidProvider = errors.New("no valid LLM API keys found")

	// ErrEmptyResponse means a provider answered without any text.
	ErrEmptyResponse = errors.New("empty LLM response")

	// ErrProviderRejected marks client errors that retrying cannot fix.
	ErrProviderRejected = errors.New("request rejected by provider")
)

// Provider sends one prompt to an LLM backend and returns its raw text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Prompt is one system + user message pair.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Request is the dataset context sent with every proposal or code request.
type Request struct {
	Context      string
	Schema       string
	ColumnTypes  string
	ColumnRoles  string
	SampleData   string
	StatsSummary string
}

// Interpretation is the analyst commentary for one chart.
type Interpretation struct {
	Interpretation  string `json:"interpretation"`
	Recommendations string `json:"recommendations"`
}

// Fallback commentary used when interpretation cannot be generated.
const (
	FallbackInterpretation  = "Unable to generate interpretation at this time."
	FallbackRecommendations = "Please review the visualization manually."
)

// FallbackCommentary returns the fixed interpretation used on failure.
func FallbackCommentary() Interpretation {
	return Interpretation{
		Interpretation:  FallbackInterpretation,
		Recommendations: FallbackRecommendations,
	}
}

// APIError is a non-2xx answer from a provider's HTTP API.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Status, e.Message)
}

// Unwrap classifies 4xx answers other than 429 as rejected.
func (e *APIError) Unwrap() error {
	if e.Status >= 400 && e.Status < 500 && e.Status != 429 {
		return ErrProviderRejected
	}
	return nil
}
