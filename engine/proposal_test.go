package engine

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ============================================================================
// 1. DECODING + DEFAULTS
// ============================================================================

func TestParseProposalDefaults(t *testing.T) {
	p := mustProposal(t, `{"title":"Genres","chart_type":"bar","x":"genre"}`)

	assertEqual(t, p.Aggregation, AggNone, "default aggregation")
	assertEqual(t, p.Formatting.TopK, DefaultTopK, "default top_k")
	assertEqual(t, p.Formatting.Sort, SortNone, "default sort")
	assertEqual(t, p.ID, 0, "missing id")
	if p.Filters == nil || len(p.Filters) != 0 {
		t.Errorf("filters = %#v, want empty non-nil list", p.Filters)
	}
}

func TestParseProposalFull(t *testing.T) {
	p := mustProposal(t, `{
		"id": 3,
		"title": "Revenue by genre",
		"chart_type": "bar",
		"x": "genre",
		"y": "revenue",
		"color": "director",
		"aggregation": "sum",
		"filters": [{"col": "year", "op": "in", "value": [2020, 2021]}],
		"reasoning": "Compare genres",
		"recommendations": ["Invest in Action", "Review Comedy"],
		"formatting": {"x_label": "Genre", "y_label": "Revenue", "sort": "desc", "top_k": 5}
	}`)

	assertEqual(t, p.ID, 3, "id")
	assertEqual(t, p.Y, "revenue", "y")
	assertEqual(t, p.Color, "director", "color")
	assertEqual(t, p.Aggregation, AggSum, "aggregation")
	assertEqual(t, p.Formatting.Sort, SortDesc, "sort")
	assertEqual(t, p.Formatting.TopK, 5, "top_k")
	assertEqual(t, p.XLabel(), "Genre", "x label")
	assertEqual(t, string(p.Recommendations), "Invest in Action\nReview Comedy", "recommendations")

	if len(p.Filters) != 1 {
		t.Fatalf("filters = %d, want 1", len(p.Filters))
	}
	want := []any{float64(2020), float64(2021)}
	if !reflect.DeepEqual(p.Filters[0].Value, want) {
		t.Errorf("filter value = %#v, want %#v", p.Filters[0].Value, want)
	}
}

func TestLabelsFallBackToColumns(t *testing.T) {
	p := mustProposal(t, `{"title":"t","chart_type":"scatter","x":"rating","y":"revenue"}`)
	assertEqual(t, p.XLabel(), "rating", "x label")
	assertEqual(t, p.YLabel(), "revenue", "y label")
}

// ============================================================================
// 2. VALIDATION FAILURES
// ============================================================================

func TestParseProposalRejects(t *testing.T) {
	tests := []struct {
		name   string
		record string
		field  string
	}{
		{"missing title", `{"chart_type":"bar","x":"genre"}`, "title"},
		{"missing chart_type", `{"title":"t","x":"genre"}`, "chart_type"},
		{"missing x", `{"title":"t","chart_type":"bar"}`, "x"},
		{"empty x", `{"title":"t","chart_type":"bar","x":"  "}`, "x"},
		{"unknown chart", `{"title":"t","chart_type":"pie","x":"genre"}`, "chart_type"},
		{"unknown aggregation", `{"title":"t","chart_type":"bar","x":"genre","aggregation":"max"}`, "aggregation"},
		{"top_k zero", `{"title":"t","chart_type":"bar","x":"genre","formatting":{"top_k":0}}`, "formatting.top_k"},
		{"top_k too large", `{"title":"t","chart_type":"bar","x":"genre","formatting":{"top_k":201}}`, "formatting.top_k"},
		{"empty sort", `{"title":"t","chart_type":"bar","x":"genre","formatting":{"sort":""}}`, "formatting.sort"},
		{"unknown sort", `{"title":"t","chart_type":"bar","x":"genre","formatting":{"sort":"up"}}`, "formatting.sort"},
		{"unknown op", `{"title":"t","chart_type":"bar","x":"genre","filters":[{"col":"year","op":">=","value":1}]}`, "filters[0].op"},
		{"list without in", `{"title":"t","chart_type":"bar","x":"genre","filters":[{"col":"year","op":"==","value":[1,2]}]}`, "filters[0].value"},
		{"object value", `{"title":"t","chart_type":"bar","x":"genre","filters":[{"col":"year","op":"==","value":{"a":1}}]}`, "filters[0].value"},
		{"null value", `{"title":"t","chart_type":"bar","x":"genre","filters":[{"col":"year","op":"==","value":null}]}`, "filters[0].value"},
		{"empty col", `{"title":"t","chart_type":"bar","x":"genre","filters":[{"col":"","op":"==","value":1}]}`, "filters[0].col"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProposal([]byte(tt.record))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			assertEqual(t, ve.Field, tt.field, "field")
		})
	}
}

func TestParseProposalWrongType(t *testing.T) {
	_, err := ParseProposal([]byte(`{"title":"t","chart_type":"bar","x":"genre","formatting":{"top_k":"5"}}`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestParseProposalMalformed(t *testing.T) {
	_, err := ParseProposal([]byte(`{"title":`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

// ============================================================================
// 3. ROUND TRIP
// ============================================================================

func TestProposalRoundTrip(t *testing.T) {
	records := []string{
		`{"title":"Minimal","chart_type":"hist","x":"rating"}`,
		`{"id":1,"title":"Revenue","chart_type":"bar","x":"genre","y":"revenue","aggregation":"sum",
		  "filters":[{"col":"year","op":"in","value":[2020,"2021"]},{"col":"genre","op":"!=","value":"Drama"}],
		  "interpretation":"Action leads","formatting":{"sort":"asc","top_k":7,"y_label":"USD"}}`,
	}

	for _, record := range records {
		first := mustProposal(t, record)
		data, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		second, err := ParseProposal(data)
		if err != nil {
			t.Fatalf("re-parse of %s failed: %v", data, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip changed proposal:\n first  %#v\n second %#v", first, second)
		}
	}
}

func TestMarshalKeepsDefaults(t *testing.T) {
	p := mustProposal(t, `{"title":"t","chart_type":"line","x":"year"}`)
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, want := range []string{`"aggregation":"none"`, `"top_k":20`, `"filters":[]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("%s missing %s", data, want)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	p := Proposal{Title: "t", ChartType: ChartBar, X: "genre"}.WithDefaults()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	assertEqual(t, p.Aggregation, AggNone, "aggregation")
	assertEqual(t, p.Formatting.TopK, DefaultTopK, "top_k")
}

func TestFreeTextNull(t *testing.T) {
	p := mustProposal(t, `{"title":"t","chart_type":"bar","x":"genre","reasoning":null}`)
	assertEqual(t, p.Reasoning, FreeText(""), "reasoning")
}
