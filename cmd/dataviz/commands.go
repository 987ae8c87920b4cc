package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/export"
	"github.com/ifatmagamha/data-viz/schema"
	"github.com/ifatmagamha/data-viz/session"
	"github.com/ifatmagamha/data-viz/translator"
)

// dataOptions are the flags every dataset command shares.
type dataOptions struct {
	file  string
	clean bool
}

func (o *dataOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "CSV, TSV or XLSX data file (required)")
	cmd.Flags().BoolVar(&o.clean, "clean", false, "Normalize names, drop duplicates and fill missing values first")
	_ = cmd.MarkFlagRequired("file")
}

// ============================================================================
// PROFILE
// ============================================================================

func (a *App) newProfileCmd() *cobra.Command {
	var data dataOptions
	var format string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the schema summary, column profile and quality report",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(data.file, data.clean)
			if err != nil {
				return err
			}
			profile, quality, err := s.Profile()
			if err != nil {
				return err
			}

			discovered := schema.Discover(s.Table(), s.Name())

			if format == "json" || format == "pretty" {
				out := map[string]any{
					"dataset": s.Name(),
					"schema":  discovered,
					"types":   schema.ColumnTypes(s.Table()),
					"profile": profile,
					"quality": quality,
				}
				if report, ok := s.CleaningReport(); ok {
					out["cleaning"] = report
				}
				return writeJSON(a.stdout, out, format)
			}

			fmt.Fprintf(a.stdout, "Dataset: %s\n\n", s.Name())
			if report, ok := s.CleaningReport(); ok {
				fmt.Fprintf(a.stdout, "Cleaning: %d×%d → %d×%d, %d duplicates removed, dropped %v\n\n",
					report.OriginalRows, report.OriginalCols, report.FinalRows, report.FinalCols,
					report.DuplicatesRemoved, report.DroppedColumns)
			}
			fmt.Fprintf(a.stdout, "Schema:\n%s\n\n", schema.Summary(s.Table(), a.settings.MaxSchemaCols, a.settings.MaxExampleLen))
			fmt.Fprintf(a.stdout, "Roles:\n%s\n\n", discovered.Text())
			fmt.Fprintf(a.stdout, "Profile:\n%s\n\n", profile.Text())
			fmt.Fprintf(a.stdout, "Quality:\n%s\n", quality.Text())
			return nil
		},
	}
	data.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, pretty")
	return cmd
}

// ============================================================================
// PROPOSE
// ============================================================================

func (a *App) newProposeCmd() *cobra.Command {
	var data dataOptions
	var question, out string

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Ask the LLM for 3-5 chart proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(data.file, data.clean)
			if err != nil {
				return err
			}
			proposals, err := s.Propose(cmd.Context(), question)
			if err != nil {
				return err
			}
			return a.writeTo(out, engine.ProposalsResponse{Proposals: proposals})
		},
	}
	data.bind(cmd)
	cmd.Flags().StringVarP(&question, "question", "q", "", "What you want to learn from the data")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write proposals JSON to a file instead of stdout")
	return cmd
}

// ============================================================================
// RENDER
// ============================================================================

type renderOptions struct {
	data      dataOptions
	proposals string
	html      string
	pngDir    string
	format    string
	question  string
}

func (a *App) newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render proposals from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(opts.data.file, opts.data.clean)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(opts.proposals)
			if err != nil {
				return fmt.Errorf("reading proposals: %w", err)
			}
			validator, err := translator.NewProposalValidator()
			if err != nil {
				return err
			}
			proposals, err := translator.ParseProposals(string(raw), validator)
			if err != nil {
				return err
			}
			s.SetProposals(proposals)
			return a.renderSession(cmd.Context(), s, opts)
		},
	}
	opts.data.bind(cmd)
	cmd.Flags().StringVarP(&opts.proposals, "proposals", "p", "", "Proposals JSON file (required)")
	cmd.Flags().StringVar(&opts.html, "html", "", "Write an HTML dashboard to this path")
	cmd.Flags().StringVar(&opts.pngDir, "png-dir", "", "Write one PNG per chart into this directory")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json, pretty, csv")
	cmd.Flags().StringVarP(&opts.question, "question", "q", "", "Question shown on the dashboard")
	_ = cmd.MarkFlagRequired("proposals")
	return cmd
}

// ============================================================================
// RUN — propose + render + dashboard
// ============================================================================

func (a *App) newRunCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Propose, render and write an HTML dashboard in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(opts.data.file, opts.data.clean)
			if err != nil {
				return err
			}
			if _, err := s.Propose(cmd.Context(), opts.question); err != nil {
				return err
			}
			if opts.html == "" {
				opts.html = s.DashboardFileName()
			}
			return a.renderSession(cmd.Context(), s, opts)
		},
	}
	opts.data.bind(cmd)
	cmd.Flags().StringVarP(&opts.question, "question", "q", "", "What you want to learn from the data")
	cmd.Flags().StringVar(&opts.html, "html", "", "Dashboard path (default: named after the session)")
	cmd.Flags().StringVar(&opts.pngDir, "png-dir", "", "Write one PNG per chart into this directory")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json, pretty, csv")
	return cmd
}

// renderSession writes the rendered output, then the PNGs and the dashboard.
// A chart that fails to export is reported and skipped; its siblings and the
// dashboard are still written.
func (a *App) renderSession(ctx context.Context, s *session.Session, opts renderOptions) error {
	rendered, err := s.RenderAll()
	if err != nil {
		return err
	}
	if err := a.writeRendered(rendered, opts.format); err != nil {
		return err
	}

	if opts.pngDir != "" {
		if err := os.MkdirAll(opts.pngDir, 0o755); err != nil {
			return err
		}
		for i, r := range rendered {
			if !r.OK() {
				continue
			}
			path := filepath.Join(opts.pngDir, s.ChartFileName(i, "png"))
			if err := writeFile(path, func(w io.Writer) error { return s.ExportPNG(w, i) }); err != nil {
				if errors.Is(err, export.ErrRasterUnsupported) {
					fmt.Fprintf(a.stderr, "skipping PNG for %q: %v\n", r.Proposal.Title, err)
				} else {
					fmt.Fprintf(a.stderr, "PNG export failed for %q: %v\n", r.Proposal.Title, err)
				}
				continue
			}
			fmt.Fprintf(a.stderr, "wrote %s\n", path)
		}
	}

	if opts.html != "" {
		err := writeFile(opts.html, func(w io.Writer) error { return s.ExportHTML(ctx, w, opts.question) })
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "wrote %s\n", opts.html)
	}
	return nil
}

// ============================================================================
// EXEC — generated code in the sandbox
// ============================================================================

func (a *App) newExecCmd() *cobra.Command {
	var data dataOptions
	var question, out string

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Generate one program for the question and run it in the sandbox",
		Long: `Generate one program answering the question and run it inside the WebAssembly
sandbox configured by sandbox_module. Requires enable_code_execution.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(data.file, data.clean)
			if err != nil {
				return err
			}
			run, err := s.RunCode(cmd.Context(), question)
			if run.Code != "" {
				fmt.Fprintf(a.stderr, "generated code:\n%s\n", run.Code)
			}
			if err != nil {
				if run.Result != nil && run.Result.Stderr != "" {
					fmt.Fprintf(a.stderr, "program stderr:\n%s\n", run.Result.Stderr)
				}
				return err
			}
			fmt.Fprintln(a.stderr, engine.DescribeFigure(run.Result.Figure))
			return a.writeTo(out, run.Result.Figure)
		},
	}
	data.bind(cmd)
	cmd.Flags().StringVarP(&question, "question", "q", "", "What the program should chart (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the figure JSON to a file instead of stdout")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}
