package schema

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column classification
// ============================================================================
// Two entry points:
//   DetectKind   raw strings → semantic kind (used by loaders)
//   Discover     typed table → Schema with roles and cardinality hints
//
// Kind detection order per column:
//   1. all missing            → unknown
//   2. two values in {0,1,true,false,yes,no} → boolean
//   3. every value a date     → datetime
//   4. every value a number   → numeric
//   5. low cardinality        → categorical
//   6. otherwise              → text
// ============================================================================

var booleanTokens = map[string]bool{
	"0": true, "1": true, "true": true, "false": true, "yes": true, "no": true,
}

// DetectKind classifies a column of raw cell strings. Null tokens are ignored.
func DetectKind(values []string) engine.ColumnKind {
	var present []string
	unique := make(map[string]bool)
	for _, v := range values {
		if engine.IsNullToken(v) {
			continue
		}
		v = strings.TrimSpace(v)
		present = append(present, v)
		unique[v] = true
	}

	if len(present) == 0 {
		return engine.KindUnknown
	}
	if len(unique) == 2 && isBooleanSet(unique) {
		return engine.KindBoolean
	}
	if all(present, func(s string) bool { _, ok := engine.ParseTime(s); return ok }) {
		return engine.KindDatetime
	}
	if all(present, func(s string) bool { _, ok := engine.ParseNumber(s); return ok }) {
		return engine.KindNumeric
	}
	if engine.IsCategorical(len(unique), len(present)) {
		return engine.KindCategorical
	}
	return engine.KindText
}

// ParseCell converts a raw string to the cell type of kind. Null tokens and
// values that do not parse become nil.
func ParseCell(kind engine.ColumnKind, raw string) any {
	if engine.IsNullToken(raw) {
		return nil
	}
	s := strings.TrimSpace(raw)
	switch kind {
	case engine.KindNumeric:
		if f, ok := engine.ParseNumber(s); ok {
			return f
		}
		return nil
	case engine.KindDatetime:
		if t, ok := engine.ParseTime(s); ok {
			return t
		}
		return nil
	case engine.KindBoolean:
		if b, ok := engine.ParseBool(s); ok {
			return b
		}
		return nil
	case engine.KindUnknown:
		return nil
	}
	return s
}

// ColumnFromStrings detects the kind of raw values and builds a typed column.
func ColumnFromStrings(name string, raw []string) *engine.Column {
	kind := DetectKind(raw)
	values := make([]any, len(raw))
	for i, s := range raw {
		values[i] = ParseCell(kind, s)
	}
	return &engine.Column{Name: name, Kind: kind, Values: values}
}

func isBooleanSet(unique map[string]bool) bool {
	for v := range unique {
		if !booleanTokens[strings.ToLower(v)] {
			return false
		}
	}
	return true
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

// ============================================================================
// DISCOVERY
// ============================================================================

// Discover builds a Schema for a typed table.
func Discover(t *engine.Table, name string) *Schema {
	s := &Schema{
		Name:         name,
		Rows:         t.Len(),
		DiscoveredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if s.Name == "" {
		s.Name = "Auto-discovered Dataset"
	}
	for _, c := range t.Columns() {
		s.Columns = append(s.Columns, analyzeColumn(c, t.Len()))
	}
	return s
}

func analyzeColumn(c *engine.Column, totalRows int) ColumnMeta {
	distinct := c.Distinct()
	meta := ColumnMeta{
		Key:          c.Name,
		DisplayName:  toDisplayName(c.Name),
		Kind:         SemanticKind(c),
		Unique:       len(distinct),
		Missing:      c.NullCount(),
		SampleValues: collectSamples(distinct, 10),
	}

	switch {
	case meta.Unique <= 10:
		meta.CardinalityHint = "low"
	case meta.Unique <= 100:
		meta.CardinalityHint = "medium"
	default:
		meta.CardinalityHint = "high"
	}

	meta.Role = classifyRole(c, meta, totalRows)
	if meta.Role == RoleEmpty {
		meta.CardinalityHint = ""
	}
	return meta
}

// classifyRole decides dimension vs measure vs the rest.
func classifyRole(c *engine.Column, meta ColumnMeta, totalRows int) Role {
	uniquePerRow := meta.Unique == totalRows && totalRows > 10

	switch meta.Kind {
	case engine.KindUnknown:
		return RoleEmpty

	case engine.KindNumeric:
		if hasDecimals(c) {
			return RoleMeasure
		}
		if uniquePerRow {
			return RoleIdentifier
		}
		// Few distinct integers read as codes (priority 1-5).
		ratio := float64(meta.Unique) / float64(max(totalRows, 1))
		if meta.Unique < 20 && ratio < 0.3 {
			return RoleDimension
		}
		return RoleMeasure

	case engine.KindDatetime:
		return RoleTemporal

	case engine.KindBoolean:
		return RoleDimension

	case engine.KindCategorical:
		if uniquePerRow {
			return RoleIdentifier
		}
		return RoleDimension

	default:
		if uniquePerRow {
			return RoleIdentifier
		}
		return RoleText
	}
}

// SemanticKind refines a column's stored kind: a numeric column holding
// exactly the values 0 and 1 is boolean.
func SemanticKind(c *engine.Column) engine.ColumnKind {
	if c.Kind != engine.KindNumeric {
		return c.Kind
	}
	distinct := c.Distinct()
	if len(distinct) != 2 {
		return c.Kind
	}
	for _, v := range distinct {
		if f, ok := v.(float64); !ok || (f != 0 && f != 1) {
			return c.Kind
		}
	}
	return engine.KindBoolean
}

func hasDecimals(c *engine.Column) bool {
	for _, v := range c.Values {
		if f, ok := v.(float64); ok && f != float64(int64(f)) {
			return true
		}
	}
	return false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values, sorted for
// deterministic output.
func collectSamples(distinct []any, maxSamples int) []string {
	samples := make([]string, 0, len(distinct))
	for _, v := range distinct {
		samples = append(samples, engine.FormatValue(v))
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

// NormalizeName cleans a column name: lowercase, trimmed, spaces and hyphens
// become underscores, anything else that is not a letter, digit or
// underscore is removed.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
