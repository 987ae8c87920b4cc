package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER — Short narrative summary of a figure
// ============================================================================
// The summary is plain sentences, one per series, and serves as the data
// context for interpretation requests and as CLI text output.
// ============================================================================

// DescribeFigure summarizes what a figure shows.
func DescribeFigure(fig *Figure) string {
	if fig == nil {
		return "No figure."
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%s chart %q.", fig.ChartType, fig.Title))

	if fig.Heatmap != nil {
		lines = append(lines, describeHeatmap(fig))
		return strings.Join(lines, "\n")
	}

	for _, s := range fig.Series {
		switch {
		case len(s.Boxes) > 0:
			lines = append(lines, describeBoxes(s)...)
		case len(s.Bins) > 0:
			lines = append(lines, describeBins(s))
		default:
			lines = append(lines, describePoints(fig, s))
		}
	}
	if len(fig.Series) == 0 || fig.PointCount() == 0 {
		lines = append(lines, "No data points.")
	}
	return strings.Join(lines, "\n")
}

func describePoints(fig *Figure, s Series) string {
	if len(s.Points) == 0 {
		return fmt.Sprintf("%s: no points.", s.Name)
	}
	hi, lo := s.Points[0], s.Points[0]
	var total float64
	for _, p := range s.Points {
		if p.Y > hi.Y {
			hi = p
		}
		if p.Y < lo.Y {
			lo = p
		}
		total += p.Y
	}
	mean := total / float64(len(s.Points))
	return fmt.Sprintf("%s: %d points over %s; highest %s at %s=%s, lowest %s at %s=%s, mean %s.",
		s.Name, len(s.Points), fig.XLabel,
		FormatFloat(hi.Y), fig.XLabel, FormatValue(hi.X),
		FormatFloat(lo.Y), fig.XLabel, FormatValue(lo.X),
		FormatFloat(RoundTo(mean, 2)))
}

func describeBoxes(s Series) []string {
	out := make([]string, 0, len(s.Boxes))
	for _, b := range s.Boxes {
		out = append(out, fmt.Sprintf("%s / %s: n=%d, median %s, IQR %s to %s, range %s to %s.",
			s.Name, b.Label, b.Count, FormatFloat(b.Median),
			FormatFloat(b.Q1), FormatFloat(b.Q3), FormatFloat(b.Min), FormatFloat(b.Max)))
	}
	return out
}

func describeBins(s Series) string {
	peak := s.Bins[0]
	total := 0
	for _, b := range s.Bins {
		if b.Count > peak.Count {
			peak = b
		}
		total += b.Count
	}
	return fmt.Sprintf("%s: %d values in %d bins; most frequent %s (%d).",
		s.Name, total, len(s.Bins), peak.Label, peak.Count)
}

func describeHeatmap(fig *Figure) string {
	hm := fig.Heatmap
	best, bx, by := -1, 0, 0
	for y, row := range hm.Z {
		for x, n := range row {
			if n > best {
				best, bx, by = n, x, y
			}
		}
	}
	if best <= 0 {
		return "No co-occurring values."
	}
	return fmt.Sprintf("%d x %d grid of %d rows; most common pair %s=%s, %s=%s (%d).",
		len(hm.X), len(hm.Y), hm.Total(),
		fig.XLabel, hm.X[bx], fig.YLabel, hm.Y[by], best)
}
