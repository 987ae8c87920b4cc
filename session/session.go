// Package session holds one analysis session: the loaded dataset, the
// working copy after cleaning, the current proposals and everything
// rendered from them.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/ifatmagamha/data-viz/config"
	"github.com/ifatmagamha/data-viz/dataset"
	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/export"
	"github.com/ifatmagamha/data-viz/logging"
	"github.com/ifatmagamha/data-viz/sandbox"
	"github.com/ifatmagamha/data-viz/schema"
	"github.com/ifatmagamha/data-viz/translator"
)

var (
	// ErrNoData means no dataset is loaded.
	ErrNoData = errors.New("no dataset loaded")

	// ErrNoProposals means nothing has been proposed yet.
	ErrNoProposals = errors.New("no proposals")
)

// Assistant is the LLM surface a session needs. *translator.Router
// satisfies it.
type Assistant interface {
	Proposals(ctx context.Context, req translator.Request) ([]engine.Proposal, error)
	Code(ctx context.Context, req translator.Request, question string) (string, error)
	Interpret(ctx context.Context, title string, chartType engine.ChartType, dataSummary, question string) translator.Interpretation
}

// Session is safe for concurrent use.
type Session struct {
	id         string
	settings   config.Settings
	assistant  Assistant
	executor   *sandbox.Executor
	renderOpts []engine.Option

	mu         sync.Mutex
	name       string
	source     *engine.Table
	working    *engine.Table
	report     *dataset.CleaningReport
	question   string
	proposals  []engine.Proposal
	rendered   []engine.Rendered
	commentary map[int]translator.Interpretation
}

// Option customizes a Session.
type Option func(*Session)

// WithExecutor sets the sandbox used by RunCode.
func WithExecutor(e *sandbox.Executor) Option {
	return func(s *Session) { s.executor = e }
}

// WithRenderOptions passes chart builder options to every render.
func WithRenderOptions(opts ...engine.Option) Option {
	return func(s *Session) { s.renderOpts = append(s.renderOpts, opts...) }
}

// New starts an empty session.
func New(settings config.Settings, assistant Assistant, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		settings:   settings,
		assistant:  assistant,
		commentary: map[int]translator.Interpretation{},
	}
	for _, opt := range opts {
		opt(s)
	}
	logging.Debug().
		Add(logging.SessionID(s.id)).
		Msg("session started")
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ============================================================================
// DATA
// ============================================================================

// Load reads a dataset file and makes it the session's data.
func (s *Session) Load(path string) error {
	t, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	s.setData(filepath.Base(path), t)
	return nil
}

// LoadReader reads a dataset; name carries the extension that selects the
// format.
func (s *Session) LoadReader(r io.Reader, name string) error {
	t, err := dataset.Load(r, name)
	if err != nil {
		return err
	}
	s.setData(name, t)
	return nil
}

// SetTable uses an in-memory table as the session's data.
func (s *Session) SetTable(name string, t *engine.Table) {
	s.setData(name, t)
}

func (s *Session) setData(name string, t *engine.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.name = name
	s.source = t
	s.working = t
	s.report = nil
	s.resetProposals(nil)

	logging.Info().
		Add(logging.SessionID(s.id)).
		Add(logging.Str("dataset", name)).
		Add(logging.Rows(t.Len())).
		Add(logging.Count("columns", t.Width())).
		Msg("dataset loaded")
}

// Clean runs the cleaning pipeline on the source table and replaces the
// working table. The source table is kept unchanged.
func (s *Session) Clean() (dataset.CleaningReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return dataset.CleaningReport{}, ErrNoData
	}
	cleaned, report, err := dataset.AutoClean(s.source, s.settings.MissingThreshold)
	if err != nil {
		return report, err
	}
	s.working = cleaned
	s.report = &report
	s.resetProposals(nil)
	return report, nil
}

// Source returns the table as loaded.
func (s *Session) Source() *engine.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Table returns the working table.
func (s *Session) Table() *engine.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

// Name returns the dataset name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// CleaningReport returns the last cleaning report, if any.
func (s *Session) CleaningReport() (dataset.CleaningReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return dataset.CleaningReport{}, false
	}
	return *s.report, true
}

// Profile summarizes the working table.
func (s *Session) Profile() (schema.Profile, schema.Report, error) {
	t := s.Table()
	if t == nil {
		return schema.Profile{}, schema.Report{}, ErrNoData
	}
	return schema.QuickProfile(t, s.settings.ProfileMaxCols), schema.QualityReport(t), nil
}

// Context builds the LLM request for the working table.
func (s *Session) Context(question string) (translator.Request, error) {
	t := s.Table()
	if t == nil {
		return translator.Request{}, ErrNoData
	}
	return translator.BuildRequest(t, question, translator.Caps{
		MaxRows:       s.settings.MaxRowsPreview,
		MaxCols:       s.settings.MaxSchemaCols,
		MaxExampleLen: s.settings.MaxExampleLen,
	}), nil
}

// ============================================================================
// PROPOSALS + RENDERING
// ============================================================================

// Propose asks the assistant for chart proposals and makes them current.
func (s *Session) Propose(ctx context.Context, question string) ([]engine.Proposal, error) {
	req, err := s.Context(question)
	if err != nil {
		return nil, err
	}
	proposals, err := s.assistant.Proposals(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.question = question
	s.resetProposals(proposals)
	s.mu.Unlock()

	logging.Info().
		Add(logging.SessionID(s.id)).
		Add(logging.Count("proposals", len(proposals))).
		Msg("proposals ready")
	return proposals, nil
}

// SetProposals replaces the current proposals, for example with ones read
// from a file.
func (s *Session) SetProposals(proposals []engine.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetProposals(proposals)
}

// Proposals returns the current proposals.
func (s *Session) Proposals() []engine.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.Proposal(nil), s.proposals...)
}

// resetProposals requires s.mu.
func (s *Session) resetProposals(proposals []engine.Proposal) {
	s.proposals = proposals
	s.rendered = make([]engine.Rendered, len(proposals))
	s.commentary = map[int]translator.Interpretation{}
}

// Render renders proposal i against the working table.
func (s *Session) Render(i int) (engine.Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(i); err != nil {
		return engine.Rendered{}, err
	}
	return s.renderLocked(i), nil
}

// RenderAll renders every proposal; failures stay attached to their
// proposal.
func (s *Session) RenderAll() ([]engine.Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.working == nil {
		return nil, ErrNoData
	}
	if len(s.proposals) == 0 {
		return nil, ErrNoProposals
	}
	out := make([]engine.Rendered, len(s.proposals))
	for i := range s.proposals {
		out[i] = s.renderLocked(i)
	}
	return out, nil
}

func (s *Session) renderLocked(i int) engine.Rendered {
	if r := s.rendered[i]; r.Figure != nil || r.Err != nil {
		return r
	}
	p := s.proposals[i]
	fig, err := engine.Render(s.working, p, s.renderOpts...)
	s.rendered[i] = engine.Rendered{Proposal: p, Figure: fig, Err: err}
	return s.rendered[i]
}

func (s *Session) checkIndex(i int) error {
	if s.working == nil {
		return ErrNoData
	}
	if len(s.proposals) == 0 {
		return ErrNoProposals
	}
	if i < 0 || i >= len(s.proposals) {
		return fmt.Errorf("proposal index %d out of range [0, %d)", i, len(s.proposals))
	}
	return nil
}

// Interpret asks for commentary on rendered proposal i. Commentary is
// cached per proposal.
func (s *Session) Interpret(ctx context.Context, i int) (translator.Interpretation, error) {
	r, err := s.Render(i)
	if err != nil {
		return translator.Interpretation{}, err
	}
	if r.Err != nil {
		return translator.Interpretation{}, r.Err
	}

	s.mu.Lock()
	cached, ok := s.commentary[i]
	question := s.question
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	out := s.assistant.Interpret(ctx, r.Proposal.Title, r.Figure.ChartType, engine.DescribeFigure(r.Figure), question)

	s.mu.Lock()
	s.commentary[i] = out
	s.mu.Unlock()
	return out, nil
}

// ============================================================================
// EXPORT
// ============================================================================

// ExportHTML renders every proposal, interprets the ones that rendered and
// writes the dashboard.
func (s *Session) ExportHTML(ctx context.Context, w io.Writer, question string) error {
	rendered, err := s.RenderAll()
	if err != nil {
		return err
	}
	if question == "" {
		s.mu.Lock()
		question = s.question
		s.mu.Unlock()
	}

	items := make([]export.Item, len(rendered))
	for i, r := range rendered {
		items[i] = export.ItemFrom(r)
		if !r.OK() {
			continue
		}
		commentary, err := s.Interpret(ctx, i)
		if err != nil {
			return err
		}
		items[i].Interpretation = commentary.Interpretation
		items[i].Recommendations = commentary.Recommendations
	}

	return export.Dashboard(w, export.DashboardInput{
		Title:       "Data Visualization Dashboard",
		Question:    question,
		DatasetName: s.Name(),
		Items:       items,
	})
}

// ExportPNG writes proposal i as a PNG.
func (s *Session) ExportPNG(w io.Writer, i int) error {
	r, err := s.Render(i)
	if err != nil {
		return err
	}
	if r.Err != nil {
		return r.Err
	}
	return export.WritePNG(w, r.Figure, export.DefaultWidth, export.DefaultHeight)
}

// ChartFileName names the export file for proposal i.
func (s *Session) ChartFileName(i int, ext string) string {
	return fmt.Sprintf("chart-%s-%02d.%s", s.id[:8], i+1, ext)
}

// DashboardFileName names the session's HTML dashboard.
func (s *Session) DashboardFileName() string {
	return fmt.Sprintf("dashboard-%s.html", s.id[:8])
}

// ============================================================================
// CODE EXECUTION
// ============================================================================

// CodeRun is one generated snippet and its outcome.
type CodeRun struct {
	Code   string
	Result *sandbox.Result
}

// RunCode asks for a snippet answering the question and runs it in the
// sandbox against the working table.
func (s *Session) RunCode(ctx context.Context, question string) (CodeRun, error) {
	if s.executor == nil || !s.executor.Enabled() {
		return CodeRun{}, sandbox.ErrDisabled
	}
	req, err := s.Context(question)
	if err != nil {
		return CodeRun{}, err
	}
	code, err := s.assistant.Code(ctx, req, question)
	if err != nil {
		return CodeRun{}, err
	}

	run := CodeRun{Code: code}
	run.Result, err = s.executor.Run(ctx, code, s.Table())
	return run, err
}
