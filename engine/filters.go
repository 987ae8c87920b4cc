package engine

import (
	"fmt"

	"github.com/ifatmagamha/data-viz/logging"
)

// ============================================================================
// FILTERS — Conjunctive predicate filtering
// ============================================================================
// Filters run left to right, each narrowing the surviving row indices; the
// result is copied out once at the end. A filter on an unknown column is a
// no-op so a hallucinated column does not sink the whole proposal.
// Comparisons the column's values cannot support surface as errors.
// ============================================================================

// ApplyFilters returns a copy of the rows matching every filter.
// An empty filter list returns a copy of the whole table.
func ApplyFilters(t *Table, filters []FilterSpec) (*Table, error) {
	if len(filters) == 0 {
		return t.Clone(), nil
	}

	indices := seq(t.Len())
	for _, f := range filters {
		col, ok := t.Column(f.Col)
		if !ok {
			logging.Debug().
				Add(logging.Component("filters")).
				Add(logging.Column(f.Col)).
				Msg("skipping filter on unknown column")
			continue
		}

		pred, err := buildPredicate(col, f)
		if err != nil {
			return nil, err
		}

		kept := make([]int, 0, len(indices))
		for _, i := range indices {
			match, err := pred(col.Values[i])
			if err != nil {
				return nil, err
			}
			if match {
				kept = append(kept, i)
			}
		}
		indices = kept
	}

	return t.Select(indices), nil
}

// predicate evaluates one cell.
type predicate func(cell any) (bool, error)

func buildPredicate(col *Column, f FilterSpec) (predicate, error) {
	switch f.Op {
	case OpEq:
		want := coerceForKind(col.Kind, f.Value, true)
		return func(cell any) (bool, error) {
			return cell != nil && valuesEqual(cell, want), nil
		}, nil

	case OpNe:
		want := coerceForKind(col.Kind, f.Value, true)
		return func(cell any) (bool, error) {
			return cell == nil || !valuesEqual(cell, want), nil
		}, nil

	case OpGt, OpLt:
		want := coerceForKind(col.Kind, f.Value, false)
		sign := 1
		if f.Op == OpLt {
			sign = -1
		}
		return func(cell any) (bool, error) {
			if cell == nil {
				return false, nil
			}
			cmp, ok := compareValues(cell, want)
			if !ok {
				return false, &TypeMismatchError{Column: col.Name, Op: string(f.Op), Value: f.Value}
			}
			return cmp == sign, nil
		}, nil

	case OpIn:
		set := inSet(f.Value)
		wants := make([]any, len(set))
		for i, v := range set {
			wants[i] = coerceForKind(col.Kind, v, true)
		}
		return func(cell any) (bool, error) {
			if cell == nil {
				return false, nil
			}
			for _, w := range wants {
				if valuesEqual(cell, w) {
					return true, nil
				}
			}
			return false, nil
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown filter operator %q", ErrValidation, f.Op)
}

// inSet treats a scalar as a one-element set.
func inSet(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return []any{v}
}
