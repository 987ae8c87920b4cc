package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ifatmagamha/data-viz/engine"
)

// ============================================================================
// RENDER OUTPUT
// ============================================================================

type renderedOutput struct {
	Proposal engine.Proposal `json:"proposal"`
	Figure   *engine.Figure  `json:"figure,omitempty"`
	Summary  string          `json:"summary,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (a *App) writeRendered(rendered []engine.Rendered, format string) error {
	switch format {
	case "json", "pretty":
		out := make([]renderedOutput, len(rendered))
		for i, r := range rendered {
			out[i] = renderedOutput{Proposal: r.Proposal, Figure: r.Figure}
			if r.OK() {
				out[i].Summary = engine.DescribeFigure(r.Figure)
			} else if r.Err != nil {
				out[i].Error = r.Err.Error()
			}
		}
		return writeJSON(a.stdout, out, format)
	case "csv":
		cw := csv.NewWriter(a.stdout)
		for _, r := range rendered {
			if r.OK() {
				writeFigureCSV(cw, r.Figure)
				cw.Write(nil)
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		for _, r := range rendered {
			fmt.Fprintf(a.stdout, "[%d] %s (%s)\n", r.Proposal.ID, r.Proposal.Title, r.Proposal.ChartType)
			if r.OK() {
				fmt.Fprintf(a.stdout, "%s\n\n", engine.DescribeFigure(r.Figure))
			} else {
				fmt.Fprintf(a.stdout, "  failed: %v\n\n", r.Err)
			}
		}
		return nil
	}
}

// writeFigureCSV writes one figure as a sheet-ready table: x label plus
// one column per series.
func writeFigureCSV(cw *csv.Writer, fig *engine.Figure) {
	cw.Write([]string{fig.Title})

	if h := fig.Heatmap; h != nil {
		cw.Write(append([]string{fig.YLabel + " \\ " + fig.XLabel}, h.X...))
		for i, label := range h.Y {
			row := []string{label}
			for _, v := range h.Z[i] {
				row = append(row, engine.FormatInt(v))
			}
			cw.Write(row)
		}
		return
	}

	xLabel := fig.XLabel
	if xLabel == "" {
		xLabel = "Label"
	}
	headers := []string{xLabel}
	for _, s := range fig.Series {
		headers = append(headers, s.Name)
	}

	var labels []string
	cells := map[string][]string{}
	add := func(label string, col int, value string) {
		row, ok := cells[label]
		if !ok {
			row = make([]string, len(fig.Series))
			labels = append(labels, label)
		}
		row[col] = value
		cells[label] = row
	}
	for col, s := range fig.Series {
		for _, p := range s.Points {
			add(engine.FormatValue(p.X), col, engine.FormatFloat(p.Y))
		}
		for _, b := range s.Bins {
			add(b.Label, col, fmt.Sprint(b.Count))
		}
		for _, b := range s.Boxes {
			add(b.Label, col, fmt.Sprintf("%s / %s / %s / %s / %s",
				engine.FormatFloat(b.Min), engine.FormatFloat(b.Q1), engine.FormatFloat(b.Median),
				engine.FormatFloat(b.Q3), engine.FormatFloat(b.Max)))
		}
	}

	cw.Write(headers)
	for _, label := range labels {
		cw.Write(append([]string{label}, cells[label]...))
	}
}

// ============================================================================
// JSON + FILES
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error
	if format == "json" {
		out, err = json.Marshal(v)
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeTo writes pretty JSON to path, or stdout when path is empty.
func (a *App) writeTo(path string, v any) error {
	if path == "" {
		return writeJSON(a.stdout, v, "pretty")
	}
	err := writeFile(path, func(w io.Writer) error { return writeJSON(w, v, "pretty") })
	if err == nil {
		fmt.Fprintf(a.stderr, "wrote %s\n", path)
	}
	return err
}

// writeFile buffers the output and only creates path once write succeeds.
func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return nil
}
