package engine

import (
	"errors"
	"reflect"
	"testing"
)

// ============================================================================
// FILTER STAGE
// ============================================================================

func TestApplyFiltersEmptyIsIdentity(t *testing.T) {
	src := sampleTable(t)

	for _, filters := range [][]FilterSpec{nil, {}} {
		out, err := ApplyFilters(src, filters)
		if err != nil {
			t.Fatalf("ApplyFilters failed: %v", err)
		}
		assertEqual(t, out.Len(), src.Len(), "row count")
		for i := 0; i < src.Len(); i++ {
			if !reflect.DeepEqual(out.Row(i), src.Row(i)) {
				t.Errorf("row %d = %v, want %v", i, out.Row(i), src.Row(i))
			}
		}

		// The result is a copy.
		col, _ := out.Column("genre")
		col.Values[0] = "Changed"
		assertEqual(t, src.Value(0, "genre"), any("Action"), "source after mutating copy")
	}
}

func TestApplyFiltersOperators(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterSpec
		rows   int
		holds  func(row map[string]any) bool
	}{
		{"eq string", FilterSpec{"genre", OpEq, "Action"}, 2,
			func(r map[string]any) bool { return r["genre"] == "Action" }},
		{"ne string", FilterSpec{"genre", OpNe, "Drama"}, 4,
			func(r map[string]any) bool { return r["genre"] != "Drama" }},
		{"gt number", FilterSpec{"rating", OpGt, 8.0}, 3,
			func(r map[string]any) bool { return r["rating"].(float64) > 8 }},
		{"lt number", FilterSpec{"rating", OpLt, 7.5}, 2,
			func(r map[string]any) bool { return r["rating"].(float64) < 7.5 }},
		{"in numbers", FilterSpec{"year", OpIn, []any{2020.0, 2022.0}}, 4,
			func(r map[string]any) bool { y := r["year"].(float64); return y == 2020 || y == 2022 }},
		{"in scalar", FilterSpec{"genre", OpIn, "Comedy"}, 2,
			func(r map[string]any) bool { return r["genre"] == "Comedy" }},
		{"string coerced to number", FilterSpec{"year", OpEq, "2021"}, 2,
			func(r map[string]any) bool { return r["year"].(float64) == 2021 }},
		{"number compared as text", FilterSpec{"director", OpNe, 5.0}, 6,
			func(r map[string]any) bool { return true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyFilters(sampleTable(t), []FilterSpec{tt.filter})
			if err != nil {
				t.Fatalf("ApplyFilters failed: %v", err)
			}
			assertEqual(t, out.Len(), tt.rows, "rows")
			for i := 0; i < out.Len(); i++ {
				row := make(map[string]any)
				for _, name := range out.Names() {
					row[name] = out.Value(i, name)
				}
				if !tt.holds(row) {
					t.Errorf("row %v violates %v", row, tt.filter)
				}
			}
		})
	}
}

func TestApplyFiltersConjunction(t *testing.T) {
	out, err := ApplyFilters(sampleTable(t), []FilterSpec{
		{Col: "genre", Op: OpEq, Value: "Action"},
		{Col: "year", Op: OpGt, Value: 2020.0},
	})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	assertEqual(t, out.Len(), 1, "rows")
	assertEqual(t, out.Value(0, "revenue"), any(120.0), "revenue")
}

func TestApplyFiltersUnknownColumnSkipped(t *testing.T) {
	out, err := ApplyFilters(sampleTable(t), []FilterSpec{
		{Col: "budget", Op: OpGt, Value: 10.0},
		{Col: "genre", Op: OpEq, Value: "Drama"},
	})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	assertEqual(t, out.Len(), 2, "rows")
}

func TestApplyFiltersPreservesOrder(t *testing.T) {
	out, err := ApplyFilters(sampleTable(t), []FilterSpec{{Col: "genre", Op: OpNe, Value: "Comedy"}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	want := []any{"Action", "Drama", "Action", "Drama"}
	if got := columnValues(t, out, "genre"); !reflect.DeepEqual(got, want) {
		t.Errorf("genre = %v, want %v", got, want)
	}
}

func TestApplyFiltersTypeMismatch(t *testing.T) {
	_, err := ApplyFilters(sampleTable(t), []FilterSpec{{Col: "genre", Op: OpGt, Value: 5.0}})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestApplyFiltersNulls(t *testing.T) {
	tbl, err := NewTableFromRows([]string{"city"}, [][]any{{"Paris"}, {nil}, {"Rome"}})
	if err != nil {
		t.Fatalf("NewTableFromRows failed: %v", err)
	}

	tests := []struct {
		op   FilterOp
		val  any
		rows int
	}{
		{OpEq, "Paris", 1},
		{OpNe, "Paris", 2},
		{OpIn, []any{"Paris", "Rome"}, 2},
		{OpGt, "A", 2},
	}
	for _, tt := range tests {
		out, err := ApplyFilters(tbl, []FilterSpec{{Col: "city", Op: tt.op, Value: tt.val}})
		if err != nil {
			t.Fatalf("%s: %v", tt.op, err)
		}
		assertEqual(t, out.Len(), tt.rows, string(tt.op))
	}
}

func TestApplyFiltersDates(t *testing.T) {
	tbl, err := NewTableFromRows([]string{"day"}, [][]any{
		{mustTime(t, "2024-01-01")}, {mustTime(t, "2024-03-15")}, {mustTime(t, "2024-06-30")},
	})
	if err != nil {
		t.Fatalf("NewTableFromRows failed: %v", err)
	}
	out, err := ApplyFilters(tbl, []FilterSpec{{Col: "day", Op: OpGt, Value: "2024-02-01"}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	assertEqual(t, out.Len(), 2, "rows after 2024-02-01")
}
