package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// PROPOSAL DECODING + VALIDATION
// ============================================================================
// Records are decoded through pointer-typed shadows so that "absent" and
// "present but wrong" stay distinguishable: absent fields take defaults,
// wrong values fail. Nothing is coerced into the closed enums.
// ============================================================================

type rawFormatting struct {
	XLabel *string `json:"x_label"`
	YLabel *string `json:"y_label"`
	Sort   *string `json:"sort"`
	TopK   *int    `json:"top_k"`
}

type rawFilter struct {
	Col   string          `json:"col"`
	Op    string          `json:"op"`
	Value json.RawMessage `json:"value"`
}

type rawProposal struct {
	ID              *int           `json:"id"`
	Title           *string        `json:"title"`
	ChartType       *string        `json:"chart_type"`
	X               *string        `json:"x"`
	Y               *string        `json:"y"`
	Color           *string        `json:"color"`
	Aggregation     *string        `json:"aggregation"`
	Filters         []rawFilter    `json:"filters"`
	Reasoning       FreeText       `json:"reasoning"`
	Interpretation  FreeText       `json:"interpretation"`
	Recommendations FreeText       `json:"recommendations"`
	Code            string         `json:"code"`
	Formatting      *rawFormatting `json:"formatting"`
}

// UnmarshalJSON decodes a proposal record, applies defaults, and validates it.
// A missing id decodes as 0; callers assign sequence positions.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	var raw rawProposal
	if err := json.Unmarshal(data, &raw); err != nil {
		return decodeError(err)
	}

	if raw.Title == nil {
		return invalid("title", nil, "field is required")
	}
	if raw.ChartType == nil {
		return invalid("chart_type", nil, "field is required")
	}
	if raw.X == nil {
		return invalid("x", nil, "field is required")
	}

	out := Proposal{
		Title:           *raw.Title,
		ChartType:       ChartType(*raw.ChartType),
		X:               *raw.X,
		Y:               deref(raw.Y),
		Color:           deref(raw.Color),
		Aggregation:     AggNone,
		Filters:         make([]FilterSpec, 0, len(raw.Filters)),
		Reasoning:       raw.Reasoning,
		Interpretation:  raw.Interpretation,
		Recommendations: raw.Recommendations,
		Code:            raw.Code,
		Formatting:      FormattingSpec{TopK: DefaultTopK},
	}
	if raw.ID != nil {
		out.ID = *raw.ID
	}
	if raw.Aggregation != nil {
		out.Aggregation = Aggregation(*raw.Aggregation)
	}

	for i, rf := range raw.Filters {
		value, err := decodeFilterValue(rf.Value)
		if err != nil {
			return invalid(fmt.Sprintf("filters[%d].value", i), nil, "%v", err)
		}
		out.Filters = append(out.Filters, FilterSpec{Col: rf.Col, Op: FilterOp(rf.Op), Value: value})
	}

	if f := raw.Formatting; f != nil {
		out.Formatting.XLabel = deref(f.XLabel)
		out.Formatting.YLabel = deref(f.YLabel)
		if f.Sort != nil {
			out.Formatting.Sort = SortOrder(*f.Sort)
			if *f.Sort == "" {
				return invalid("formatting.sort", *f.Sort, "must be asc, desc or null")
			}
		}
		if f.TopK != nil {
			out.Formatting.TopK = *f.TopK
		}
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*p = out
	return nil
}

// Validate checks the closed enums, the top_k range and filter shapes.
// Column existence is not checked here; the chart builder reports it.
func (p Proposal) Validate() error {
	if !p.ChartType.Valid() {
		return invalid("chart_type", string(p.ChartType), "must be one of %s", joinValues(ChartTypes))
	}
	if strings.TrimSpace(p.X) == "" {
		return invalid("x", p.X, "must name a column")
	}
	if !p.Aggregation.Valid() {
		return invalid("aggregation", string(p.Aggregation), "must be one of %s", joinValues(Aggregations))
	}
	if !p.Formatting.Sort.Valid() {
		return invalid("formatting.sort", string(p.Formatting.Sort), "must be asc, desc or null")
	}
	if p.Formatting.TopK < MinTopK || p.Formatting.TopK > MaxTopK {
		return invalid("formatting.top_k", p.Formatting.TopK, "must be between %d and %d", MinTopK, MaxTopK)
	}
	for i, f := range p.Filters {
		field := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(f.Col) == "" {
			return invalid(field+".col", f.Col, "must name a column")
		}
		if !f.Op.Valid() {
			return invalid(field+".op", string(f.Op), "must be one of %s", joinValues(FilterOps))
		}
		if err := checkFilterValue(f.Op, f.Value); err != nil {
			return invalid(field+".value", nil, "%v", err)
		}
	}
	return nil
}

// ParseProposal decodes and validates one JSON proposal record.
func ParseProposal(data []byte) (Proposal, error) {
	var p Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return Proposal{}, decodeError(err)
	}
	return p, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeFilterValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("value is required")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("value is required")
	}
	return v, nil
}

func checkFilterValue(op FilterOp, v any) error {
	if list, ok := v.([]any); ok {
		if op != OpIn {
			return fmt.Errorf("a list value is only allowed with %q", OpIn)
		}
		for _, item := range list {
			if !isScalar(item) {
				return fmt.Errorf("list items must be strings, numbers or booleans, got %T", item)
			}
		}
		return nil
	}
	if !isScalar(v) {
		return fmt.Errorf("must be a string, number or boolean, got %T", v)
	}
	return nil
}

func isScalar(v any) bool {
	switch normalizeCell(v).(type) {
	case string, float64, bool:
		return true
	}
	return false
}

// decodeError maps JSON decoding failures to validation errors naming the field.
func decodeError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return invalid(ute.Field, ute.Value, "expected %s", ute.Type)
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
