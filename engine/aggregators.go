package engine

import (
	"sort"

	"github.com/ifatmagamha/data-viz/logging"
)

// ============================================================================
// AGGREGATORS — Group by x, reduce y, sort, top-k
// ============================================================================
// Pipeline: group → reduce → sort → limit.
// Groups are emitted in first-occurrence order of their key and null keys
// are dropped. Sorting is stable, so ties keep that emission order.
// The output holds exactly two columns, x and y.
// ============================================================================

// Group is one distinct x value and the rows that carry it.
type Group struct {
	Key   any
	Rows  []int
	Value any // float64, or nil when no numeric y survived
}

// AggregationApplies reports whether a proposal's chart and aggregation call
// for the aggregation stage.
func AggregationApplies(p Proposal) bool {
	if p.ChartType != ChartBar && p.ChartType != ChartLine {
		return false
	}
	return p.Y != "" && p.Aggregation != "" && p.Aggregation != AggNone
}

// Aggregate reduces the table to one {x, y} row per x group when the
// proposal asks for it. Otherwise, or when x or y is not a column, the
// input is returned unchanged.
func Aggregate(t *Table, p Proposal) (*Table, error) {
	if !AggregationApplies(p) {
		return t, nil
	}
	xcol, okX := t.Column(p.X)
	ycol, okY := t.Column(p.Y)
	if !okX || !okY || p.X == p.Y {
		logging.Debug().
			Add(logging.Component("aggregators")).
			Add(logging.ProposalID(p.ID)).
			Add(logging.Reason("x or y unavailable")).
			Msg("skipping aggregation")
		return t, nil
	}

	// 1. Group
	groups := GroupRows(xcol)

	// 2. Reduce
	for i := range groups {
		v, err := reduce(p.Aggregation, ycol, groups[i].Rows)
		if err != nil {
			return nil, err
		}
		groups[i].Value = v
	}

	// 3. Sort
	SortGroups(groups, p.Formatting.Sort)

	// 4. Limit
	limit := p.Formatting.TopK
	if limit <= 0 {
		limit = DefaultTopK
	}
	if len(groups) > limit {
		groups = groups[:limit]
	}

	keys := make([]any, len(groups))
	values := make([]any, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
		values[i] = g.Value
	}
	return NewTable(
		&Column{Name: p.X, Kind: xcol.Kind, Values: keys},
		&Column{Name: p.Y, Kind: KindNumeric, Values: values},
	)
}

// ============================================================================
// GROUPING
// ============================================================================

// GroupRows partitions row indices by the column's value in first-occurrence
// order. Rows with a null key are excluded.
func GroupRows(col *Column) []Group {
	return groupIndices(col, seq(col.Len()))
}

// groupIndices groups only the listed rows.
func groupIndices(col *Column, rows []int) []Group {
	index := make(map[any]int)
	var groups []Group
	for _, i := range rows {
		v := col.Values[i]
		if v == nil {
			continue
		}
		k := groupKey(v)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, Group{Key: v})
		}
		groups[gi].Rows = append(groups[gi].Rows, i)
	}
	return groups
}

// ============================================================================
// REDUCTION
// ============================================================================

func reduce(agg Aggregation, ycol *Column, rows []int) (any, error) {
	if agg == AggCount {
		return float64(len(rows)), nil
	}

	nums := make([]float64, 0, len(rows))
	for _, i := range rows {
		v := ycol.Values[i]
		if v == nil {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			return nil, &TypeMismatchError{Column: ycol.Name, Op: string(agg), Value: v}
		}
		nums = append(nums, f)
	}

	switch agg {
	case AggSum:
		return Sum(nums), nil
	case AggMean:
		if len(nums) == 0 {
			return nil, nil
		}
		return Mean(nums), nil
	case AggMedian:
		if len(nums) == 0 {
			return nil, nil
		}
		return Median(nums), nil
	}
	return nil, &ValidationError{Field: "aggregation", Value: string(agg), Reason: "unsupported aggregation"}
}

// Sum adds the values.
func Sum(nums []float64) float64 {
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	return Sum(nums) / float64(len(nums))
}

// Median returns the middle value, averaging the two middle values for an
// even count. The input is not modified.
func Median(nums []float64) float64 {
	return Quantile(nums, 0.5)
}

// Quantile returns the q-quantile with linear interpolation between closest
// ranks. The input is not modified.
func Quantile(nums []float64, q float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups orders groups by their reduced value. Nulls sort last in both
// directions and ties keep their current order.
func SortGroups(groups []Group, order SortOrder) {
	if order != SortAsc && order != SortDesc {
		return
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, aok := groups[i].Value.(float64)
		b, bok := groups[j].Value.(float64)
		switch {
		case !aok || !bok:
			return aok && !bok
		case order == SortAsc:
			return a < b
		default:
			return a > b
		}
	})
}
