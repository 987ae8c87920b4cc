package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/ifatmagamha/data-viz/config"
	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/logging"
)

// ============================================================================
// ROUTER — Ordered provider fallback with retry and circuit breaking
// ============================================================================
// For each request the providers are tried in order, configured provider
// first. Per provider:
//   1. skip it when its API key is missing or a placeholder
//   2. call it through its circuit breaker and parse the answer, retrying
//      call+parse with exponential backoff
//   3. on exhaustion, fall through to the next provider
// When nothing succeeds every provider's failure is joined into one error.
// ============================================================================

const (
	defaultRetryDelay   = 500 * time.Millisecond
	defaultCodeLanguage = "python"
	breakerThreshold    = 3
)

// Router is the single entry point for LLM requests.
type Router struct {
	entries     []*entry
	validator   *ProposalValidator
	retries     int
	delay       time.Duration
	timeout     time.Duration
	temperature float64
	language    string
}

type entry struct {
	name     string
	provider Provider
	unusable error
	breaker  circuitbreaker.CircuitBreaker[string]
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithProviders replaces the configured providers, in order.
func WithProviders(providers ...Provider) RouterOption {
	return func(r *Router) {
		r.entries = r.entries[:0]
		for _, p := range providers {
			r.entries = append(r.entries, newEntry(p.Name(), p, nil))
		}
	}
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) { r.delay = d }
}

// WithCodeLanguage sets the language generated snippets are written in.
func WithCodeLanguage(language string) RouterOption {
	return func(r *Router) {
		if language != "" {
			r.language = language
		}
	}
}

// NewRouter builds the provider chain from settings.
func NewRouter(s config.Settings, opts ...RouterOption) (*Router, error) {
	validator, err := NewProposalValidator()
	if err != nil {
		return nil, err
	}

	r := &Router{
		validator:   validator,
		retries:     s.LLMMaxRetries,
		delay:       defaultRetryDelay,
		timeout:     s.LLMTimeout,
		temperature: s.LLMTemperature,
		language:    defaultCodeLanguage,
	}

	for _, name := range s.ProviderOrder() {
		key, err := s.RequireKey(name)
		if err != nil {
			r.entries = append(r.entries, newEntry(name, nil, err))
			continue
		}
		var p Provider
		switch name {
		case config.ProviderClaude:
			p = NewClaude(key, s.ClaudeModel, WithClaudeURL(s.ClaudeURL))
		case config.ProviderGemini:
			p = NewGemini(key, s.GeminiModel)
		}
		r.entries = append(r.entries, newEntry(name, p, nil))
	}

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func newEntry(name string, p Provider, unusable error) *entry {
	return &entry{
		name:     name,
		provider: p,
		unusable: unusable,
		breaker: circuitbreaker.New[string](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerThreshold
			},
		}),
	}
}

// Providers lists provider names in the order they are tried.
func (r *Router) Providers() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// ============================================================================
// REQUESTS
// ============================================================================

// Proposals asks for 3-5 chart proposals for the dataset.
func (r *Router) Proposals(ctx context.Context, req Request) ([]engine.Proposal, error) {
	prompt := BuildProposalPrompt(req, r.temperature)
	proposals, err := route(ctx, r, "proposals", prompt, func(text string) ([]engine.Proposal, error) {
		return ParseProposals(text, r.validator)
	})
	if err != nil {
		return nil, err
	}
	logging.Info().
		Add(logging.Component("router")).
		Add(logging.Count("proposals", len(proposals))).
		Msg("generated visualization proposals")
	return proposals, nil
}

// Code asks for one program answering the question.
func (r *Router) Code(ctx context.Context, req Request, question string) (string, error) {
	prompt := BuildCodePrompt(req, question, r.language, r.temperature)
	return route(ctx, r, "code", prompt, func(text string) (string, error) {
		code := ExtractCode(text)
		if code == "" {
			return "", ErrEmptyResponse
		}
		return code, nil
	})
}

// Interpret asks for commentary on one chart. It never fails: any error
// yields the fixed fallback commentary.
func (r *Router) Interpret(ctx context.Context, title string, chartType engine.ChartType, dataSummary, question string) Interpretation {
	prompt := BuildInterpretPrompt(title, chartType, dataSummary, question)
	out, err := route(ctx, r, "interpretation", prompt, ParseInterpretation)
	if err != nil {
		logging.Warn().
			Add(logging.Component("router")).
			Add(logging.Err(err)).
			Msg("interpretation failed, using fallback commentary")
		return FallbackCommentary()
	}
	return out
}

// ============================================================================
// FALLBACK CHAIN
// ============================================================================

func route[T any](ctx context.Context, r *Router, op string, prompt Prompt, parse func(string) (T, error)) (T, error) {
	var zero T
	var errs []error

	for _, e := range r.entries {
		if e.unusable != nil {
			logging.Warn().
				Add(logging.Component("router")).
				Add(logging.Provider(e.name)).
				Add(logging.Err(e.unusable)).
				Msg("provider not configured, skipping")
			errs = append(errs, fmt.Errorf("%s: %w", e.name, e.unusable))
			continue
		}

		logging.Info().
			Add(logging.Component("router")).
			Add(logging.Provider(e.name)).
			Add(logging.Str("operation", op)).
			Msg("calling provider")

		out, err := attempt(ctx, r, e, op, prompt, parse)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		logging.Warn().
			Add(logging.Component("router")).
			Add(logging.Provider(e.name)).
			Add(logging.Err(err)).
			Msg("provider failed, falling back")
		errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
	}

	if len(errs) == 0 {
		return zero, ErrNoValidProvider
	}
	return zero, fmt.Errorf("%w: %w", ErrNoValidProvider, errors.Join(errs...))
}

// attempt runs call+parse against one provider under retry.
func attempt[T any](ctx context.Context, r *Router, e *entry, op string, prompt Prompt, parse func(string) (T, error)) (T, error) {
	retrier := retry.New[T](retry.Config{
		MaxAttempts:        r.retries + 1,
		InitialDelay:       r.delay,
		BackoffPolicy:      retry.BackoffExponential,
		Multiplier:         2.0,
		NonRetryableErrors: []error{config.ErrConfiguration, ErrProviderRejected, context.Canceled},
	})

	n := 0
	var last error
	out, err := retrier.Do(ctx, func(ctx context.Context) (T, error) {
		n++
		var zero T
		callCtx, cancel := withTimeout(ctx, r.timeout)
		defer cancel()

		start := time.Now()
		text, err := e.breaker.Execute(callCtx, func(ctx context.Context) (string, error) {
			return e.provider.Complete(ctx, prompt)
		})
		if err == nil {
			var parsed T
			if parsed, err = parse(text); err == nil {
				logging.Debug().
					Add(logging.Provider(e.name)).
					Add(logging.Attempt(n)).
					Add(logging.Duration(time.Since(start))).
					Msg(op + " succeeded")
				return parsed, nil
			}
		}
		logging.Warn().
			Add(logging.Component("router")).
			Add(logging.Provider(e.name)).
			Add(logging.Attempt(n)).
			Add(logging.Duration(time.Since(start))).
			Add(logging.Err(err)).
			Msg(op + " attempt failed")
		last = err
		return zero, err
	})
	if err != nil {
		if last == nil {
			last = err
		}
		return out, fmt.Errorf("failed after %d attempts: %w", n, last)
	}
	return out, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
