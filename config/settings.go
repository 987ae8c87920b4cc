// Package config resolves runtime settings from an ordered list of sources.
//
// Each option is looked up in source order and the first source that knows
// it wins, so a secrets file can override the environment, which in turn
// overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ifatmagamha/data-viz/logging"
)

// ErrConfiguration is the sentinel for every configuration failure.
var ErrConfiguration = errors.New("configuration error")

// Provider names.
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Settings holds every resolved option.
type Settings struct {
	LLMProvider  string
	ClaudeAPIKey string
	ClaudeModel  string
	ClaudeURL    string
	GeminiAPIKey string
	GeminiModel  string

	MaxRowsPreview int
	MaxSchemaCols  int
	MaxExampleLen  int
	ProfileMaxCols int

	LLMMaxRetries  int
	LLMTemperature float64
	LLMTimeout     time.Duration

	EnableCodeExecution  bool
	MaxCodeExecutionTime time.Duration
	CodeMemoryLimitPages int
	SandboxModule        string

	MissingThreshold float64

	LogLevel  string
	LogFormat string
}

// option binds a setting key to its default and its parser.
type option struct {
	key   string
	def   string
	apply func(s *Settings, raw string) error
}

var options = []option{
	{"llm_provider", ProviderClaude, str(func(s *Settings) *string { return &s.LLMProvider })},
	{"claude_api_key", "", str(func(s *Settings) *string { return &s.ClaudeAPIKey })},
	{"claude_model", "claude-3-5-sonnet-20241022", str(func(s *Settings) *string { return &s.ClaudeModel })},
	{"claude_url", "https://api.anthropic.com", str(func(s *Settings) *string { return &s.ClaudeURL })},
	{"gemini_api_key", "", str(func(s *Settings) *string { return &s.GeminiAPIKey })},
	{"gemini_model", "gemini-2.5-flash", str(func(s *Settings) *string { return &s.GeminiModel })},
	{"max_rows_preview", "30", integer(func(s *Settings) *int { return &s.MaxRowsPreview })},
	{"max_schema_cols", "60", integer(func(s *Settings) *int { return &s.MaxSchemaCols })},
	{"max_example_len", "60", integer(func(s *Settings) *int { return &s.MaxExampleLen })},
	{"profile_max_cols", "80", integer(func(s *Settings) *int { return &s.ProfileMaxCols })},
	{"llm_max_retries", "2", integer(func(s *Settings) *int { return &s.LLMMaxRetries })},
	{"llm_temperature", "0.7", float(func(s *Settings) *float64 { return &s.LLMTemperature })},
	{"llm_timeout", "60s", duration(func(s *Settings) *time.Duration { return &s.LLMTimeout })},
	{"enable_code_execution", "false", boolean(func(s *Settings) *bool { return &s.EnableCodeExecution })},
	{"max_code_execution_time", "30s", duration(func(s *Settings) *time.Duration { return &s.MaxCodeExecutionTime })},
	{"code_memory_limit_pages", "256", integer(func(s *Settings) *int { return &s.CodeMemoryLimitPages })},
	{"sandbox_module", "", str(func(s *Settings) *string { return &s.SandboxModule })},
	{"missing_threshold", "0.5", float(func(s *Settings) *float64 { return &s.MissingThreshold })},
	{"log_level", "INFO", str(func(s *Settings) *string { return &s.LogLevel })},
	{"log_format", "console", str(func(s *Settings) *string { return &s.LogFormat })},
}

// Keys returns every recognised setting key in declaration order.
func Keys() []string {
	keys := make([]string, len(options))
	for i, o := range options {
		keys[i] = o.key
	}
	return keys
}

// ============================================================================
// LOAD
// ============================================================================

// Load resolves every option from the sources in order; the first source
// holding a key wins. Options no source knows keep their built-in default.
func Load(sources ...Source) (Settings, error) {
	var s Settings
	for _, o := range options {
		raw, from := o.def, "default"
		for _, src := range sources {
			if v, ok := src.Lookup(o.key); ok {
				raw, from = v, src.Name()
				break
			}
		}
		if err := o.apply(&s, strings.TrimSpace(raw)); err != nil {
			return Settings{}, fmt.Errorf("%w: %s from %s: %v", ErrConfiguration, o.key, from, err)
		}
	}

	s.LLMProvider = strings.ToLower(s.LLMProvider)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	logging.Debug().
		Add(logging.Component("config")).
		Add(logging.Provider(s.LLMProvider)).
		Add(logging.Count("sources", len(sources))).
		Msg("settings resolved")
	return s, nil
}

// Default returns the built-in settings.
func Default() Settings {
	s, _ := Load()
	return s
}

// Validate checks ranges and enumerations.
func (s Settings) Validate() error {
	switch {
	case s.LLMProvider != ProviderClaude && s.LLMProvider != ProviderGemini:
		return fmt.Errorf("%w: llm_provider must be %q or %q, got %q", ErrConfiguration, ProviderClaude, ProviderGemini, s.LLMProvider)
	case s.LLMMaxRetries < 0:
		return fmt.Errorf("%w: llm_max_retries must not be negative", ErrConfiguration)
	case s.LLMTemperature < 0 || s.LLMTemperature > 2:
		return fmt.Errorf("%w: llm_temperature must be within [0, 2]", ErrConfiguration)
	case s.MaxRowsPreview < 1 || s.MaxSchemaCols < 1 || s.MaxExampleLen < 1 || s.ProfileMaxCols < 1:
		return fmt.Errorf("%w: preview and schema caps must be positive", ErrConfiguration)
	case s.MissingThreshold < 0 || s.MissingThreshold > 1:
		return fmt.Errorf("%w: missing_threshold must be within [0, 1]", ErrConfiguration)
	case s.MaxCodeExecutionTime <= 0:
		return fmt.Errorf("%w: max_code_execution_time must be positive", ErrConfiguration)
	case s.CodeMemoryLimitPages < 1 || s.CodeMemoryLimitPages > 65536:
		return fmt.Errorf("%w: code_memory_limit_pages must be within [1, 65536]", ErrConfiguration)
	}
	return nil
}

// ============================================================================
// CREDENTIALS
// ============================================================================

// MissingSettingError names a credential that is absent or still holds a
// template placeholder.
type MissingSettingError struct {
	Setting     string
	Placeholder bool
}

func (e *MissingSettingError) Error() string {
	if e.Placeholder {
		return fmt.Sprintf("%s still holds a placeholder value", e.Setting)
	}
	return fmt.Sprintf("%s is not set", e.Setting)
}

func (e *MissingSettingError) Unwrap() error { return ErrConfiguration }

var placeholders = []string{"your_claude", "your_gemini"}

// RequireKey returns the API key for provider, or a *MissingSettingError
// when it is empty or a placeholder.
func (s Settings) RequireKey(provider string) (string, error) {
	var key, setting string
	switch strings.ToLower(provider) {
	case ProviderClaude:
		key, setting = s.ClaudeAPIKey, "claude_api_key"
	case ProviderGemini:
		key, setting = s.GeminiAPIKey, "gemini_api_key"
	default:
		return "", fmt.Errorf("%w: unknown provider %q", ErrConfiguration, provider)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", &MissingSettingError{Setting: setting}
	}
	lower := strings.ToLower(key)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return "", &MissingSettingError{Setting: setting, Placeholder: true}
		}
	}
	return key, nil
}

// ProviderOrder lists providers with the configured one first.
func (s Settings) ProviderOrder() []string {
	if s.LLMProvider == ProviderGemini {
		return []string{ProviderGemini, ProviderClaude}
	}
	return []string{ProviderClaude, ProviderGemini}
}

// LoggingConfig maps the log settings onto the logger configuration.
func (s Settings) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = s.LogLevel
	cfg.Format = s.LogFormat
	return cfg
}
