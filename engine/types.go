package engine

import (
	"encoding/json"
	"strings"
)

// ============================================================================
// ENGINE TYPES — Proposal Schema
// ============================================================================
// A Proposal is the contract between the LLM translator and the engine.
// The translator produces it from untrusted text; the engine renders it.
// ============================================================================

// ChartType is one of the six supported chart kinds.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartScatter ChartType = "scatter"
	ChartBox     ChartType = "box"
	ChartHist    ChartType = "hist"
	ChartHeatmap ChartType = "heatmap"
)

// ChartTypes lists the supported chart kinds in presentation order.
var ChartTypes = []ChartType{ChartBar, ChartLine, ChartScatter, ChartBox, ChartHist, ChartHeatmap}

// Valid reports whether c is a supported chart kind.
func (c ChartType) Valid() bool {
	for _, t := range ChartTypes {
		if c == t {
			return true
		}
	}
	return false
}

// Aggregation is the per-group reduction applied to y.
type Aggregation string

const (
	AggMean   Aggregation = "mean"
	AggSum    Aggregation = "sum"
	AggCount  Aggregation = "count"
	AggMedian Aggregation = "median"
	AggNone   Aggregation = "none"
)

// Aggregations lists the supported reductions.
var Aggregations = []Aggregation{AggMean, AggSum, AggCount, AggMedian, AggNone}

// Valid reports whether a is a supported aggregation.
func (a Aggregation) Valid() bool {
	for _, v := range Aggregations {
		if a == v {
			return true
		}
	}
	return false
}

// FilterOp is a filter comparison operator.
type FilterOp string

const (
	OpEq FilterOp = "=="
	OpNe FilterOp = "!="
	OpGt FilterOp = ">"
	OpLt FilterOp = "<"
	OpIn FilterOp = "in"
)

// FilterOps lists the supported operators.
var FilterOps = []FilterOp{OpEq, OpNe, OpGt, OpLt, OpIn}

// Valid reports whether op is a supported operator.
func (op FilterOp) Valid() bool {
	for _, v := range FilterOps {
		if op == v {
			return true
		}
	}
	return false
}

// SortOrder orders aggregated rows by their reduced value. Empty means unsorted.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether s is asc, desc or absent.
func (s SortOrder) Valid() bool {
	return s == SortNone || s == SortAsc || s == SortDesc
}

// top_k bounds.
const (
	DefaultTopK = 20
	MinTopK     = 1
	MaxTopK     = 200
)

// ============================================================================
// PROPOSAL
// ============================================================================

// FilterSpec is one predicate. Value is a scalar (string, float64, bool) or,
// for OpIn, a []any of scalars.
type FilterSpec struct {
	Col   string   `json:"col"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

// FormattingSpec carries axis labels and the sort/top-k bounds of aggregation.
type FormattingSpec struct {
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Sort   SortOrder `json:"sort,omitempty"`
	TopK   int       `json:"top_k"`
}

// Proposal describes one candidate chart.
type Proposal struct {
	ID              int            `json:"id"`
	Title           string         `json:"title"`
	ChartType       ChartType      `json:"chart_type"`
	X               string         `json:"x"`
	Y               string         `json:"y,omitempty"`
	Color           string         `json:"color,omitempty"`
	Aggregation     Aggregation    `json:"aggregation"`
	Filters         []FilterSpec   `json:"filters"`
	Reasoning       FreeText       `json:"reasoning,omitempty"`
	Interpretation  FreeText       `json:"interpretation,omitempty"`
	Recommendations FreeText       `json:"recommendations,omitempty"`
	Code            string         `json:"code,omitempty"`
	Formatting      FormattingSpec `json:"formatting"`
}

// ProposalsResponse is an ordered list of proposals; order is presentation order.
type ProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
}

// WithDefaults fills the defaulted fields of a proposal built in code:
// aggregation none, top_k 20 and a non-nil filter list.
func (p Proposal) WithDefaults() Proposal {
	if p.Aggregation == "" {
		p.Aggregation = AggNone
	}
	if p.Formatting.TopK == 0 {
		p.Formatting.TopK = DefaultTopK
	}
	if p.Filters == nil {
		p.Filters = []FilterSpec{}
	}
	return p
}

// XLabel returns the display label for x, falling back to the column name.
func (p Proposal) XLabel() string {
	if p.Formatting.XLabel != "" {
		return p.Formatting.XLabel
	}
	return p.X
}

// YLabel returns the display label for y, falling back to the column name.
func (p Proposal) YLabel() string {
	if p.Formatting.YLabel != "" {
		return p.Formatting.YLabel
	}
	return p.Y
}

// ============================================================================
// FREE TEXT
// ============================================================================

// FreeText is explanatory prose passed through unmodified. Models sometimes
// answer with a list of bullet strings; those are joined one per line.
type FreeText string

// UnmarshalJSON accepts a string, null, or an array of strings.
func (t *FreeText) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != nil {
			*t = FreeText(*s)
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = FreeText(strings.Join(list, "\n"))
	return nil
}
