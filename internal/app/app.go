package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agbru/qsag/internal/cli"
	"github.com/agbru/qsag/internal/config"
	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/logging"
	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/orchestration"
	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/server"
	"github.com/agbru/qsag/internal/service"
	"github.com/agbru/qsag/internal/ui"
)

// EnvLogLevel selects the level of diagnostic logs written to the error
// writer ("debug", "info", "warn"...). The default is "warn".
const EnvLogLevel = "QSAG_LOG_LEVEL"

// Application represents the qsag application instance.
// It encapsulates the configuration and provides methods to run
// the application in various modes (CLI, server, REPL).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Registry provides the polynomial families and their caches.
	Registry *qpoly.Registry
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
	// Logger receives diagnostic events (build progress, server requests).
	Logger zerolog.Logger
	// In is the REPL input; nil selects os.Stdin.
	In io.Reader
}

// New creates a new Application over the process-wide registry by parsing
// command-line arguments.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	return NewWithRegistry(args, errWriter, qpoly.GlobalRegistry())
}

// NewWithRegistry is like New but uses the given registry. The configured
// precision is applied to the registry's numeric settings, which empties
// caches filled at another precision.
func NewWithRegistry(args []string, errWriter io.Writer, registry *qpoly.Registry) (*Application, error) {
	programName := "qsag"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, registry.List())
	if err != nil {
		return nil, err
	}

	precision, err := numconf.ParsePrecision(cfg.Precision)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	registry.Settings().SetPrecision(precision)

	return &Application{
		Config:    cfg,
		Registry:  registry,
		ErrWriter: errWriter,
		Logger:    newLogger(errWriter, os.Getenv(EnvLogLevel)),
	}, nil
}

// newLogger creates the diagnostic logger. Unknown or empty levels select
// warn.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "qsag").Logger()
}

// Run executes the application based on the configured mode.
// It dispatches to the appropriate handler (completion, server, REPL, or CLI).
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	// Respects --no-color and NO_COLOR.
	ui.InitTheme(a.Config.NoColor)

	if a.Config.ServerMode {
		return a.runServer()
	}
	if a.Config.Interactive {
		return a.runREPL(out)
	}
	return a.runBuilds(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Registry.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	// Request logs are shown unless a more verbose level was asked for.
	level := a.Logger.GetLevel()
	if level > zerolog.InfoLevel {
		level = zerolog.InfoLevel
	}
	srv := server.NewServer(a.Registry, a.Config,
		server.WithLogger(logging.NewZerologAdapter(a.Logger.Level(level))))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runREPL starts the interactive REPL mode.
func (a *Application) runREPL(out io.Writer) int {
	coefs, err := config.ParseCoefficients(a.Config.Coefs)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "%v\n", err)
		return apperrors.ExitErrorConfig
	}

	repl := cli.NewREPL(service.NewSagService(a.Registry, service.Limits{}), cli.REPLConfig{
		Family:  a.Config.Family,
		Coefs:   coefs,
		Samples: a.Config.Samples,
		RhoMax:  a.Config.RhoMax,
		Timeout: a.Config.Timeout,
	})
	repl.SetOutput(out)
	if a.In != nil {
		repl.SetInput(a.In)
	}
	repl.Start()
	return apperrors.ExitSuccess
}

// runBuilds orchestrates the execution of the CLI build command.
func (a *Application) runBuilds(ctx context.Context, out io.Writer) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	req, err := a.Config.ToRequest()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "%v\n", err)
		return apperrors.ExitErrorConfig
	}
	builders := cli.SelectBuilders(a.Config, a.Registry)
	if len(builders) == 0 {
		fmt.Fprintf(a.ErrWriter, "No polynomial family matches '%s'\n", a.Config.Family)
		return apperrors.ExitErrorConfig
	}

	ctx, span := otel.Tracer("qsag").Start(ctx, "RunBuilds")
	defer span.End()
	span.SetAttributes(
		attribute.Int("families", len(builders)),
		attribute.Int("samples", req.Samples),
		attribute.Int("terms", req.Coefs.Active()),
	)

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(builders, out)
	}

	// The spinner would corrupt machine-readable output.
	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	results := orchestration.ExecuteBuilds(ctx, builders, req, progressOut,
		qpoly.NewLoggingObserver(a.Logger, 0.25),
		qpoly.NewMetricsObserver())

	for _, res := range results {
		if res.Err != nil {
			a.Logger.Error().Err(res.Err).Str("family", res.Family).Msg("sag build failed")
		}
	}
	return orchestration.AnalyzeResults(results, req, a.Config, out)
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
