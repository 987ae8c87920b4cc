// Package sandbox runs generated chart code inside a WebAssembly runtime.
//
// A WASI build of an interpreter is the guest. Each run gets a fresh
// runtime: the snippet arrives on stdin, the table is mounted read-only at
// /data/data.csv, there is no environment, no network and no other file
// access, linear memory is capped and the wall-clock budget is enforced by
// closing the module when the context expires.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing/fstest"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/ifatmagamha/data-viz/config"
	"github.com/ifatmagamha/data-viz/dataset"
	"github.com/ifatmagamha/data-viz/engine"
	"github.com/ifatmagamha/data-viz/logging"
)

var (
	// ErrExecution wraps every failure of a snippet run.
	ErrExecution = errors.New("code execution failed")

	// ErrTimeout means the run exceeded its wall-clock budget.
	ErrTimeout = errors.New("execution time limit exceeded")

	// ErrNoFigure means the program finished without printing a figure.
	ErrNoFigure = errors.New("no figure produced")

	// ErrDisabled means code execution is switched off.
	ErrDisabled = errors.New("code execution is disabled")
)

// Guest paths.
const (
	DataDir  = "/data"
	DataFile = "data.csv"

	maxOutputBytes = 1 << 20
)

// Result is the outcome of one run.
type Result struct {
	Figure   *engine.Figure
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs snippets against a compiled interpreter module.
type Executor struct {
	module  []byte
	args    []string
	timeout time.Duration
	pages   uint32
	enabled bool
	cache   wazero.CompilationCache
}

// Option customizes an Executor.
type Option func(*Executor)

// WithTimeout sets the wall-clock budget per run.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithMemoryLimitPages caps guest memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) { e.pages = pages }
}

// WithArgs sets the guest's argv. The first entry is the program name.
func WithArgs(args ...string) Option {
	return func(e *Executor) { e.args = args }
}

// New creates an enabled executor for the given interpreter module.
func New(module []byte, opts ...Option) *Executor {
	e := &Executor{
		module:  module,
		args:    []string{"interpreter"},
		timeout: 30 * time.Second,
		pages:   256,
		enabled: true,
		cache:   wazero.NewCompilationCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromSettings builds the executor described by the settings. It is
// disabled unless enable_code_execution is set, in which case
// sandbox_module must point at a WASI interpreter.
func FromSettings(s config.Settings) (*Executor, error) {
	if !s.EnableCodeExecution {
		return &Executor{}, nil
	}
	if s.SandboxModule == "" {
		return nil, fmt.Errorf("%w: sandbox_module is required when enable_code_execution is set", config.ErrConfiguration)
	}
	module, err := os.ReadFile(s.SandboxModule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return New(module,
		WithTimeout(s.MaxCodeExecutionTime),
		WithMemoryLimitPages(uint32(s.CodeMemoryLimitPages)),
	), nil
}

// Enabled reports whether Run will execute anything.
func (e *Executor) Enabled() bool { return e.enabled }

// Close releases compiled code.
func (e *Executor) Close(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close(ctx)
}

// ============================================================================
// RUN
// ============================================================================

// Run executes code with t mounted as /data/data.csv and returns the figure
// the program printed.
func (e *Executor) Run(ctx context.Context, code string, t *engine.Table) (*Result, error) {
	if !e.enabled {
		return nil, ErrDisabled
	}

	// 1. Stage the data mount
	var csvBuf bytes.Buffer
	if t != nil {
		if err := dataset.WriteCSV(&csvBuf, t); err != nil {
			return nil, fmt.Errorf("%w: writing data mount: %v", ErrExecution, err)
		}
	}
	data := fstest.MapFS{DataFile: &fstest.MapFile{Data: csvBuf.Bytes(), Mode: 0o444}}

	// 2. Fresh runtime per run
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rt := wazero.NewRuntimeWithConfig(runCtx, wazero.NewRuntimeConfig().
		WithMemoryLimitPages(e.pages).
		WithCloseOnContextDone(true).
		WithCompilationCache(e.cache))
	defer rt.Close(context.Background())

	if _, err := wasi_snapshot_preview1.Instantiate(runCtx, rt); err != nil {
		return nil, fmt.Errorf("%w: instantiating WASI: %v", ErrExecution, err)
	}
	compiled, err := rt.CompileModule(runCtx, e.module)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling interpreter: %v", ErrExecution, err)
	}

	// 3. Execute
	stdout := &cappedBuffer{limit: maxOutputBytes}
	stderr := &cappedBuffer{limit: maxOutputBytes}
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(e.args...).
		WithStdin(strings.NewReader(code)).
		WithStdout(stdout).
		WithStderr(stderr).
		WithFSConfig(wazero.NewFSConfig().WithFSMount(data, DataDir))

	start := time.Now()
	mod, err := rt.InstantiateModule(runCtx, compiled, cfg)
	if mod != nil {
		mod.Close(context.Background())
	}
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	log := logging.Info().
		Add(logging.Component("sandbox")).
		Add(logging.Duration(res.Duration)).
		Add(logging.Count("stdout_bytes", len(res.Stdout)))

	if err := exitError(runCtx, err); err != nil {
		log.Add(logging.Err(err)).Msg("snippet failed")
		return res, err
	}

	// 4. Collect the figure
	fig, ok := findFigure(res.Stdout)
	if !ok {
		log.Add(logging.Reason("no figure on stdout")).Msg("snippet finished without a figure")
		return res, fmt.Errorf("%w: %w", ErrExecution, ErrNoFigure)
	}
	res.Figure = fig
	log.Add(logging.ChartType(string(fig.ChartType))).Msg("snippet produced a figure")
	return res, nil
}

// exitError maps an instantiation error onto the package errors. A clean
// proc_exit(0) is success.
func exitError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrExecution, ErrTimeout)
	}
	var exit *sys.ExitError
	if errors.As(err, &exit) {
		if exit.ExitCode() == 0 {
			return nil
		}
		return fmt.Errorf("%w: exit code %d", ErrExecution, exit.ExitCode())
	}
	return fmt.Errorf("%w: %v", ErrExecution, err)
}

// findFigure looks for a figure object, last line first, then the whole
// output.
func findFigure(stdout string) (*engine.Figure, bool) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if fig, ok := decodeFigure(lines[i]); ok {
			return fig, true
		}
	}
	return decodeFigure(stdout)
}

func decodeFigure(s string) (*engine.Figure, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var fig engine.Figure
	if err := json.Unmarshal([]byte(s), &fig); err != nil || !fig.ChartType.Valid() {
		return nil, false
	}
	if len(fig.Series) == 0 && fig.Heatmap == nil {
		return nil, false
	}
	return &fig, true
}

// cappedBuffer keeps the first limit bytes and discards the rest.
type cappedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room > 0 {
		if len(p) > room {
			b.Buffer.Write(p[:room])
		} else {
			b.Buffer.Write(p)
		}
	}
	return len(p), nil
}
