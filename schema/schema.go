package schema

import (
	"fmt"
	"strings"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// SCHEMA — Describes the shape of a dataset for prompts and previews
// ============================================================================
// Discovered from a loaded table. The translator sends its text form to the
// LLM next to the summary and sample rows; the CLI prints it for profiling.
// ============================================================================

// Role is how a column is expected to be used in a chart.
type Role string

const (
	RoleDimension  Role = "dimension"  // grouping / color / x axis
	RoleMeasure    Role = "measure"    // numeric y / aggregation input
	RoleTemporal   Role = "temporal"   // time axis
	RoleText       Role = "text"       // free text, rarely chartable
	RoleIdentifier Role = "identifier" // unique per row
	RoleEmpty      Role = "empty"      // no values
)

// Schema describes every column of a table.
type Schema struct {
	Name         string       `json:"name"`
	Rows         int          `json:"rows"`
	Columns      []ColumnMeta `json:"columns"`
	DiscoveredAt string       `json:"discoveredAt,omitempty"`
}

// ColumnMeta describes one column.
type ColumnMeta struct {
	Key             string            `json:"key"`
	DisplayName     string            `json:"displayName"`
	Kind            engine.ColumnKind `json:"kind"`
	Role            Role              `json:"role"`
	SampleValues    []string          `json:"sampleValues"`
	Unique          int               `json:"unique"`
	Missing         int               `json:"missing"`
	CardinalityHint string            `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// Keys returns all column keys in table order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		keys[i] = c.Key
	}
	return keys
}

// KeysWithRole returns the keys of columns playing the given role.
func (s *Schema) KeysWithRole(role Role) []string {
	var keys []string
	for _, c := range s.Columns {
		if c.Role == role {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Column looks up a column by key.
func (s *Schema) Column(key string) (ColumnMeta, bool) {
	for _, c := range s.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnMeta{}, false
}

// Text renders one line per column: kind, role and cardinality.
func (s *Schema) Text() string {
	lines := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		line := fmt.Sprintf("- %s: %s (%s", c.Key, c.Kind, c.Role)
		if c.CardinalityHint != "" {
			line += ", " + c.CardinalityHint + " cardinality"
		}
		lines = append(lines, line+")")
	}
	return strings.Join(lines, "\n")
}
