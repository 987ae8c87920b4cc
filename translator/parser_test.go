package translator

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// JSON EXTRACTION
// ============================================================================

func TestExtractJSON_FirstFencedBlockOnly(t *testing.T) {
	text := "Here are the charts:\n" +
		"```json\n[{\"title\": \"First\", \"chart_type\": \"bar\", \"x\": \"genre\"}]\n```\n" +
		"Alternative:\n" +
		"```json\n[{\"title\": \"Second\", \"chart_type\": \"line\", \"x\": \"year\"}]\n```\n" +
		"```\n{\"title\": \"Third\", \"chart_type\": \"hist\", \"x\": \"rating\"}\n```\n"

	proposals, err := ParseProposals(text, mustValidator(t))
	if err != nil {
		t.Fatalf("ParseProposals failed: %v", err)
	}
	if len(proposals) != 1 || proposals[0].Title != "First" {
		t.Fatalf("got %+v, want only the first block", proposals)
	}
}

func TestExtractJSON_BracketMatching(t *testing.T) {
	text := `Sure! {"proposals": [{"title": "A", "chart_type": "box", "x": "genre", "y": "rating"}]} Hope this helps.`

	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if !strings.HasPrefix(string(raw), `{"proposals"`) || !strings.HasSuffix(string(raw), "]}") {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_WholeResponse(t *testing.T) {
	// The brace inside the title cuts bracket matching short.
	text := `{"title": "a } b", "chart_type": "bar", "x": "genre"}`

	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if string(raw) != text {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_Unparseable(t *testing.T) {
	for _, text := range []string{"", "no json at all", "{broken", "```json\n[1, 2\n```"} {
		if _, err := ExtractJSON(text); !errors.Is(err, ErrParse) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrParse", text, err)
		}
	}
}

// ============================================================================
// PROPOSAL RECORDS
// ============================================================================

func TestParseProposals_DropsInvalidRecords(t *testing.T) {
	text := `[
		{"title": "Revenue by genre", "chart_type": "bar", "x": "genre", "y": "revenue", "aggregation": "sum"},
		{"title": "Pie", "chart_type": "pie", "x": "genre"},
		{"title": "Ratings", "chart_type": "hist", "x": "rating"}
	]`

	proposals, err := ParseProposals(text, mustValidator(t))
	if err != nil {
		t.Fatalf("ParseProposals failed: %v", err)
	}
	if len(proposals) != 2 {
		t.Fatalf("got %d proposals, want 2", len(proposals))
	}
	if proposals[0].ID != 1 || proposals[1].ID != 3 {
		t.Errorf("ids = %d, %d; want positions 1 and 3", proposals[0].ID, proposals[1].ID)
	}
	if proposals[1].Formatting.TopK != engine.DefaultTopK || proposals[1].Aggregation != engine.AggNone {
		t.Errorf("defaults not applied: %+v", proposals[1])
	}
}

func TestParseProposals_KeepsExplicitIDs(t *testing.T) {
	proposals, err := ParseProposals(`{"proposals": [{"id": 7, "title": "t", "chart_type": "scatter", "x": "a", "y": "b"}]}`, nil)
	if err != nil {
		t.Fatalf("ParseProposals failed: %v", err)
	}
	if proposals[0].ID != 7 {
		t.Errorf("ID = %d, want 7", proposals[0].ID)
	}
}

func TestParseProposals_SingleRecord(t *testing.T) {
	proposals, err := ParseProposals(`{"title": "t", "chart_type": "heatmap", "x": "a", "y": "b"}`, mustValidator(t))
	if err != nil {
		t.Fatalf("ParseProposals failed: %v", err)
	}
	if len(proposals) != 1 || proposals[0].ChartType != engine.ChartHeatmap {
		t.Errorf("got %+v", proposals)
	}
}

func TestParseProposals_NothingValid(t *testing.T) {
	_, err := ParseProposals(`[{"title": "t", "chart_type": "pie", "x": "a"}, {"chart_type": "bar", "x": "a"}]`, mustValidator(t))
	if !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "2 records") {
		t.Errorf("error %q should count the records", err)
	}
}

func TestParseProposals_EmptyArray(t *testing.T) {
	if _, err := ParseProposals(`[]`, nil); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestParseProposals_ScalarDocument(t *testing.T) {
	if _, err := ParseProposals("```json\n[1]\n```", nil); err == nil {
		t.Error("expected an error for a list of numbers")
	}
}

// ============================================================================
// VALIDATOR
// ============================================================================

func TestProposalValidator_FieldPath(t *testing.T) {
	v := mustValidator(t)
	record := map[string]any{
		"title":      "t",
		"chart_type": "bar",
		"x":          "genre",
		"formatting": map[string]any{"top_k": 500.0},
	}

	err := v.Validate(record)
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *engine.ValidationError", err)
	}
	if verr.Field != "formatting.top_k" {
		t.Errorf("Field = %q, want formatting.top_k", verr.Field)
	}
}

func TestProposalValidator_Accepts(t *testing.T) {
	record := map[string]any{
		"id": 2.0, "title": "t", "chart_type": "line", "x": "year", "y": nil,
		"aggregation": "mean",
		"filters":     []any{map[string]any{"col": "genre", "op": "in", "value": []any{"Action"}}},
		"reasoning":   []any{"first", "second"},
		"formatting":  map[string]any{"sort": nil, "top_k": 10.0},
	}
	if err := mustValidator(t).Validate(record); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFieldPath(t *testing.T) {
	tests := map[string]string{
		"":              "record",
		"/chart_type":   "chart_type",
		"/filters/0/op": "filters[0].op",
	}
	for in, want := range tests {
		if got := fieldPath(in); got != want {
			t.Errorf("fieldPath(%q) = %q, want %q", in, got, want)
		}
	}
}

// ============================================================================
// CODE + COMMENTARY
// ============================================================================

func TestExtractCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```python\nprint(1)\n```", "print(1)"},
		{"Here you go:\n```\nx = 1\ny = 2\n```\nthanks", "x = 1\ny = 2"},
		{"  print(2)\n", "print(2)"},
	}
	for _, tt := range tests {
		if got := ExtractCode(tt.in); got != tt.want {
			t.Errorf("ExtractCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInterpretation(t *testing.T) {
	got, err := ParseInterpretation("```json\n{\"interpretation\": \"Action leads.\", \"recommendations\": [\"Invest\", \"Monitor\"]}\n```")
	if err != nil {
		t.Fatalf("ParseInterpretation failed: %v", err)
	}
	if got.Interpretation != "Action leads." || got.Recommendations != "Invest\nMonitor" {
		t.Errorf("got %+v", got)
	}

	prose, err := ParseInterpretation("Revenue is concentrated in two genres.")
	if err != nil {
		t.Fatalf("ParseInterpretation failed: %v", err)
	}
	if prose.Interpretation != "Revenue is concentrated in two genres." || prose.Recommendations != seeInterpretation {
		t.Errorf("got %+v", prose)
	}

	if _, err := ParseInterpretation("   "); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestPreview_RuneBoundary(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"café au lait", 4, "caf..."},
		{"日本語", 4, "日..."},
		{"日本語", 1, "..."},
	}
	for _, tt := range tests {
		got := preview(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("preview(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

// ── Test Data ──────────────────────────────────────────────────────────────

func mustValidator(t *testing.T) *ProposalValidator {
	t.Helper()
	v, err := NewProposalValidator()
	if err != nil {
		t.Fatalf("NewProposalValidator: %v", err)
	}
	return v
}
