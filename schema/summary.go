package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// SUMMARY — Compact column listing for LLM prompts
// ============================================================================

// Summary lists up to maxCols columns as "- name:kind:example", where the
// example is the first non-null value truncated to maxExampleLen runes.
func Summary(t *engine.Table, maxCols, maxExampleLen int) string {
	cols := t.Columns()
	shown := cols
	if maxCols > 0 && len(cols) > maxCols {
		shown = cols[:maxCols]
	}

	lines := make([]string, 0, len(shown)+1)
	for _, c := range shown {
		lines = append(lines, fmt.Sprintf("- %s:%s:%s", c.Name, c.Kind, truncate(firstExample(c), maxExampleLen)))
	}
	if len(shown) < len(cols) {
		lines = append(lines, fmt.Sprintf("... (+%d more columns)", len(cols)-len(shown)))
	}
	return strings.Join(lines, "\n")
}

// ColumnTypes maps each column to its semantic kind.
func ColumnTypes(t *engine.Table) map[string]string {
	out := make(map[string]string, t.Width())
	for _, c := range t.Columns() {
		out[c.Name] = string(SemanticKind(c))
	}
	return out
}

// ColumnTypesText renders ColumnTypes as sorted "- name: kind" lines.
func ColumnTypesText(t *engine.Table) string {
	types := ColumnTypes(t)
	names := make([]string, 0, len(types))
	for n := range types {
		names = append(names, n)
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, n := range names {
		lines[i] = fmt.Sprintf("- %s: %s", n, types[n])
	}
	return strings.Join(lines, "\n")
}

func firstExample(c *engine.Column) string {
	for _, v := range c.Values {
		if v != nil {
			return engine.FormatValue(v)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
