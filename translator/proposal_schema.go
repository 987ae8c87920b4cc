package translator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ifatmagamha/data-viz/engine"
)

// ProposalSchemaJSON is the structural contract for one proposal record.
// Cross-field rules (filter value shapes) are left to engine.Proposal.
const ProposalSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "chart_type", "x"],
  "properties": {
    "id": {"type": "integer"},
    "title": {"type": "string"},
    "chart_type": {"enum": ["bar", "line", "scatter", "box", "hist", "heatmap"]},
    "x": {"type": "string", "minLength": 1},
    "y": {"type": ["string", "null"]},
    "color": {"type": ["string", "null"]},
    "aggregation": {"enum": ["mean", "sum", "count", "median", "none"]},
    "filters": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["col", "op"],
        "properties": {
          "col": {"type": "string", "minLength": 1},
          "op": {"enum": ["==", "!=", ">", "<", "in"]}
        }
      }
    },
    "reasoning": {"type": ["string", "null", "array"]},
    "interpretation": {"type": ["string", "null", "array"]},
    "recommendations": {"type": ["string", "null", "array"]},
    "formatting": {
      "type": "object",
      "properties": {
        "x_label": {"type": ["string", "null"]},
        "y_label": {"type": ["string", "null"]},
        "sort": {"enum": ["asc", "desc", null]},
        "top_k": {"type": "integer", "minimum": 1, "maximum": 200}
      }
    }
  }
}`

const proposalSchemaURL = "proposal.schema.json"

// ProposalValidator checks decoded JSON records against ProposalSchemaJSON.
type ProposalValidator struct {
	schema *jsonschema.Schema
}

// NewProposalValidator compiles the proposal schema.
func NewProposalValidator() (*ProposalValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(proposalSchemaURL, strings.NewReader(ProposalSchemaJSON)); err != nil {
		return nil, fmt.Errorf("invalid proposal schema: %w", err)
	}
	sch, err := compiler.Compile(proposalSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile proposal schema: %w", err)
	}
	return &ProposalValidator{schema: sch}, nil
}

// Validate checks one record decoded with encoding/json. Violations are
// returned as *engine.ValidationError naming the offending field.
func (v *ProposalValidator) Validate(record any) error {
	err := v.schema.Validate(record)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	leaf := firstLeaf(verr)
	return &engine.ValidationError{
		Field:  fieldPath(leaf.InstanceLocation),
		Reason: leaf.Message,
	}
}

func firstLeaf(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	return e
}

// fieldPath turns a JSON pointer such as /filters/0/op into filters[0].op.
func fieldPath(pointer string) string {
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.Atoi(p); err == nil {
			b.WriteString("[" + p + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	if b.Len() == 0 {
		return "record"
	}
	return b.String()
}
