package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ifatmagamha/data-viz/config"
	"github.com/ifatmagamha/data-viz/logging"
	"github.com/ifatmagamha/data-viz/sandbox"
	"github.com/ifatmagamha/data-viz/session"
	"github.com/ifatmagamha/data-viz/translator"
)

// ============================================================================
// DATAVIZ CLI — LLM-proposed charts for any tabular dataset
// ============================================================================

const version = "0.3.0"

// App is the command tree plus the settings its commands share.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	global   globalOptions
	settings config.Settings
}

type globalOptions struct {
	configPath  string
	secretsPath string
	envPath     string
	logLevel    string
	logFormat   string
}

// NewApp builds the command tree.
func NewApp() *App {
	app := &App{stdout: os.Stdout, stderr: os.Stderr}

	app.root = &cobra.Command{
		Use:   "dataviz",
		Short: "Ask an LLM which charts explain your data, then render them",
		Long: `dataviz profiles a CSV or XLSX dataset, asks an LLM (Claude or Gemini) for
3-5 chart proposals, validates them and renders the valid ones locally into an
HTML dashboard or PNG files.

Settings come from, in order: --secrets file, environment (.env loaded first),
--config file, built-in defaults.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return app.loadSettings() },
	}

	f := app.root.PersistentFlags()
	f.StringVar(&app.global.configPath, "config", "", "YAML settings file")
	f.StringVar(&app.global.secretsPath, "secrets", "", "YAML secrets file (API keys)")
	f.StringVar(&app.global.envPath, "env", ".env", ".env file to load into the environment")
	f.StringVar(&app.global.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	f.StringVar(&app.global.logFormat, "log-format", "", "Log format: console or json")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newProfileCmd(),
		app.newProposeCmd(),
		app.newRenderCmd(),
		app.newRunCmd(),
		app.newExecCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI until done or interrupted.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// loadSettings resolves settings and configures logging before any command
// runs.
func (a *App) loadSettings() error {
	if a.global.envPath != "" {
		if err := config.LoadDotEnv(a.global.envPath); err != nil {
			return err
		}
	}

	var sources []config.Source
	if a.global.secretsPath != "" {
		secrets, err := config.SecretsFile(a.global.secretsPath)
		if err != nil {
			return err
		}
		sources = append(sources, secrets)
	}
	sources = append(sources, config.Env{})
	if a.global.configPath != "" {
		file, err := config.SettingsFile(a.global.configPath)
		if err != nil {
			return err
		}
		sources = append(sources, file)
	}
	sources = append(sources, config.Defaults{})

	s, err := config.Load(sources...)
	if err != nil {
		return err
	}
	if a.global.logLevel != "" {
		s.LogLevel = a.global.logLevel
	}
	if a.global.logFormat != "" {
		s.LogFormat = a.global.logFormat
	}
	logCfg := s.LoggingConfig()
	logCfg.Output = a.stderr
	logging.SetLogger(logging.New(logCfg))

	a.settings = s
	return nil
}

// newSession loads a dataset into a fresh session wired to the configured
// providers and sandbox.
func (a *App) newSession(path string, clean bool) (*session.Session, error) {
	router, err := translator.NewRouter(a.settings)
	if err != nil {
		return nil, err
	}
	exec, err := sandbox.FromSettings(a.settings)
	if err != nil {
		return nil, err
	}

	s := session.New(a.settings, router, session.WithExecutor(exec))
	if err := s.Load(path); err != nil {
		return nil, err
	}
	if clean {
		report, err := s.Clean()
		if err != nil {
			return nil, err
		}
		logging.Info().
			Add(logging.SessionID(s.ID())).
			Add(logging.Count("duplicates_removed", report.DuplicatesRemoved)).
			Add(logging.Count("columns_dropped", len(report.DroppedColumns))).
			Msg("dataset cleaned")
	}
	return s, nil
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "dataviz %s\n", version)
		},
	}
}
