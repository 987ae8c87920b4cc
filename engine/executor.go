package engine

import (
	"time"

	"github.com/ifatmagamha/data-viz/logging"
)

// ============================================================================
// EXECUTOR — Filter → Aggregate → Chart, one proposal at a time
// ============================================================================
// Entry point: Render(table, proposal, opts...)
//
// Pipeline:
//   1. Apply filters → new table (source untouched)
//   2. Aggregate when the chart and aggregation call for it
//   3. Dispatch to the chart builder
//
// RenderAll runs Render per proposal and never lets one failure stop the
// rest. Nothing here calls an LLM; all computation is local.
// ============================================================================

// Rendered pairs a proposal with its figure or the error that replaced it.
type Rendered struct {
	Proposal Proposal
	Figure   *Figure
	Err      error
}

// OK reports whether the proposal rendered.
func (r Rendered) OK() bool { return r.Err == nil && r.Figure != nil }

// Render builds the figure for one proposal. Every failure is returned as a
// *RenderError naming the proposal.
func Render(t *Table, p Proposal, opts ...Option) (*Figure, error) {
	start := time.Now()
	fail := func(err error) (*Figure, error) {
		logging.Warn().
			Add(logging.Component("executor")).
			Add(logging.ProposalID(p.ID)).
			Add(logging.ChartType(string(p.ChartType))).
			Add(logging.Err(err)).
			Msg("proposal failed to render")
		return nil, &RenderError{ProposalID: p.ID, Title: p.Title, Err: err}
	}

	if t == nil {
		return fail(ErrPrecondition)
	}

	// 1. Filter
	filtered, err := ApplyFilters(t, p.Filters)
	if err != nil {
		return fail(err)
	}

	// 2. Aggregate
	shaped, err := Aggregate(filtered, p)
	if err != nil {
		return fail(err)
	}

	// 3. Build
	fig, err := BuildChart(shaped, p, opts...)
	if err != nil {
		return fail(err)
	}

	logging.Debug().
		Add(logging.Component("executor")).
		Add(logging.ProposalID(p.ID)).
		Add(logging.ChartType(string(p.ChartType))).
		Add(logging.Rows(shaped.Len())).
		Add(logging.Duration(time.Since(start))).
		Msg("proposal rendered")
	return fig, nil
}

// RenderAll renders every proposal in order. Failures stay attached to
// their proposal.
func RenderAll(t *Table, proposals []Proposal, opts ...Option) []Rendered {
	out := make([]Rendered, len(proposals))
	for i, p := range proposals {
		fig, err := Render(t, p, opts...)
		out[i] = Rendered{Proposal: p, Figure: fig, Err: err}
	}
	return out
}
