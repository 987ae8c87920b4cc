package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ============================================================================
// RENDER PIPELINE
// ============================================================================

func TestRenderFilterAggregateSort(t *testing.T) {
	p := mustProposal(t, `{
		"id": 1, "title": "Recent revenue", "chart_type": "bar",
		"x": "genre", "y": "revenue", "aggregation": "sum",
		"filters": [{"col": "year", "op": ">", "value": 2020}],
		"formatting": {"sort": "desc"}
	}`)
	fig, err := Render(sampleTable(t), p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := []Point{{X: "Action", Y: 120}, {X: "Comedy", Y: 95}, {X: "Drama", Y: 90}}
	if !reflect.DeepEqual(fig.Series[0].Points, want) {
		t.Errorf("points = %v, want %v", fig.Series[0].Points, want)
	}
}

func TestRenderLeavesSourceUntouched(t *testing.T) {
	src := sampleTable(t)
	p := mustProposal(t, `{"title":"t","chart_type":"bar","x":"genre","y":"revenue","aggregation":"mean",
		"filters":[{"col":"genre","op":"==","value":"Drama"}]}`)
	if _, err := Render(src, p); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertEqual(t, src.Len(), 6, "source rows")
	assertEqual(t, src.Width(), 5, "source columns")
}

func TestRenderErrorNamesProposal(t *testing.T) {
	p := mustProposal(t, `{"id":7,"title":"Budget","chart_type":"bar","x":"genre","y":"budget"}`)
	_, err := Render(sampleTable(t), p)

	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %T, want *RenderError", err)
	}
	assertEqual(t, re.ProposalID, 7, "proposal id")
	if !errors.Is(err, ErrReference) {
		t.Errorf("err = %v, want wrapped ErrReference", err)
	}
	if !strings.Contains(err.Error(), "Budget") {
		t.Errorf("message %q does not name the proposal", err)
	}
}

func TestRenderAllIsolatesFailures(t *testing.T) {
	proposals := []Proposal{
		mustProposal(t, `{"id":1,"title":"Ok","chart_type":"bar","x":"genre","y":"revenue","aggregation":"sum"}`),
		mustProposal(t, `{"id":2,"title":"Missing","chart_type":"line","x":"year","y":"budget"}`),
		mustProposal(t, `{"id":3,"title":"Half heatmap","chart_type":"heatmap","x":"genre"}`),
		mustProposal(t, `{"id":4,"title":"Also ok","chart_type":"hist","x":"rating"}`),
	}
	results := RenderAll(sampleTable(t), proposals)
	assertEqual(t, len(results), 4, "results")

	assertEqual(t, results[0].OK(), true, "proposal 1")
	assertEqual(t, errors.Is(results[1].Err, ErrReference), true, "proposal 2 reference error")
	assertEqual(t, errors.Is(results[2].Err, ErrPrecondition), true, "proposal 3 precondition error")
	assertEqual(t, results[3].OK(), true, "proposal 4")
	for i, r := range results {
		assertEqual(t, r.Proposal.ID, i+1, "order")
	}
}

// ============================================================================
// PREVIEWS + NARRATIVE
// ============================================================================

func TestBuildTableData(t *testing.T) {
	data := BuildTableData(sampleTable(t), "Movies", 2)
	assertEqual(t, len(data.Rows), 2, "rows")
	assertEqual(t, data.TotalRows, 6, "total rows")
	assertEqual(t, data.Columns[1].Align, "right", "numeric align")
	if !reflect.DeepEqual(data.Rows[0], []string{"Action", "8.5", "100", "2020", "A"}) {
		t.Errorf("row 0 = %v", data.Rows[0])
	}
}

func TestSampleText(t *testing.T) {
	text := SampleText(sampleTable(t), 3)
	lines := strings.Split(text, "\n")
	assertEqual(t, len(lines), 4, "header + 3 rows")
	if !strings.HasPrefix(lines[0], "genre") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "Comedy") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestDescribeFigure(t *testing.T) {
	p := mustProposal(t, `{"title":"Revenue","chart_type":"bar","x":"genre","y":"revenue","aggregation":"sum"}`)
	fig, err := Render(sampleTable(t), p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	text := DescribeFigure(fig)
	for _, want := range []string{`"Revenue"`, "highest 220 at genre=Action", "lowest 95 at genre=Comedy"} {
		if !strings.Contains(text, want) {
			t.Errorf("description %q missing %q", text, want)
		}
	}
}
