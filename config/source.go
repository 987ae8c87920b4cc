package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ifatmagamha/data-viz/logging"
)

// Source is one named place settings can come from.
type Source interface {
	Name() string
	Lookup(key string) (string, bool)
}

// ============================================================================
// MAP SOURCES — YAML secrets and settings files
// ============================================================================

// MapSource serves settings from an in-memory map with lower-case keys.
type MapSource struct {
	name   string
	values map[string]string
}

// NewMapSource builds a source from key/value pairs.
func NewMapSource(name string, values map[string]string) *MapSource {
	m := &MapSource{name: name, values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[strings.ToLower(k)] = v
	}
	return m
}

// Name implements Source.
func (m *MapSource) Name() string { return m.name }

// Lookup implements Source.
func (m *MapSource) Lookup(key string) (string, bool) {
	v, ok := m.values[strings.ToLower(key)]
	return v, ok
}

// Len returns the number of keys held.
func (m *MapSource) Len() int { return len(m.values) }

// ReadYAML parses a flat YAML mapping of scalars. Null values are treated as
// absent so a later source can still supply them.
func ReadYAML(name string, r io.Reader) (*MapSource, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, name, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			continue
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: %s: %s must be a scalar", ErrConfiguration, name, k)
		default:
			values[k] = fmt.Sprint(v)
		}
	}
	return NewMapSource(name, values), nil
}

// SecretsFile reads a YAML secrets store such as
//
//	claude_api_key: sk-...
//	gemini_api_key: AIza...
func SecretsFile(path string) (*MapSource, error) {
	return readYAMLFile("secrets:"+path, path)
}

// SettingsFile reads a YAML settings file with the same flat layout.
func SettingsFile(path string) (*MapSource, error) {
	return readYAMLFile("file:"+path, path)
}

func readYAMLFile(name, path string) (*MapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	defer f.Close()
	return ReadYAML(name, f)
}

// LoadFile resolves settings from the environment over a YAML settings file
// over the defaults.
func LoadFile(path string) (Settings, error) {
	file, err := SettingsFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Load(Env{}, file)
}

// ============================================================================
// ENVIRONMENT
// ============================================================================

// Env reads process environment variables named after the upper-cased key.
// Empty variables count as unset.
type Env struct {
	Prefix string
}

// Name implements Source.
func (e Env) Name() string { return "env" }

// Lookup implements Source.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(e.Prefix + strings.ToUpper(key))
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// LoadDotEnv copies .env files into the process environment without
// overriding variables that are already set. A missing file is logged and
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		switch {
		case err == nil:
			logging.Debug().Add(logging.Component("config")).Add(logging.Str("path", p)).Msg("loaded .env file")
		case errors.Is(err, fs.ErrNotExist):
			logging.Warn().Add(logging.Component("config")).Add(logging.Str("path", p)).Msg("no .env file found")
		default:
			return fmt.Errorf("%w: %s: %v", ErrConfiguration, p, err)
		}
	}
	return nil
}

// ============================================================================
// DEFAULTS
// ============================================================================

// Defaults serves the built-in default of every option. Load falls back to
// them anyway; listing Defaults explicitly documents the precedence.
type Defaults struct{}

// Name implements Source.
func (Defaults) Name() string { return "default" }

// Lookup implements Source.
func (Defaults) Lookup(key string) (string, bool) {
	for _, o := range options {
		if o.key == key {
			return o.def, true
		}
	}
	return "", false
}
