// Package orchestration runs batches of sag builds concurrently and reports
// on their outcome.
package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/cli"
	"github.com/agbru/qsag/internal/config"
	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/service"
	"github.com/agbru/qsag/internal/ui"
	"github.com/agbru/qsag/pkg/models"
)

// BuildResult is the outcome of one family's build.
type BuildResult struct {
	// Family is the polynomial family ("qbfs", "qcon").
	Family string
	// Sag is the map; nil if an error occurred.
	Sag *mat.Dense
	// Window is the pupil window of the grid; nil if an error occurred.
	Window *mat.Dense
	// Stats summarises Sag over the pupil.
	Stats qpoly.SagStats
	// Cache is a snapshot of the family's cache after the build.
	Cache qpoly.CacheStats
	// Duration is the time taken by the build.
	Duration time.Duration
	// Err contains any error that occurred during the build.
	Err error
}

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. Updates are dropped rather than blocking a build when the buffer
// is full.
const ProgressBufferMultiplier = 5

// ExecuteBuilds builds req with every builder concurrently.
//
// The builders must wrap distinct bases: a basis cache has a single writer,
// and one goroutine is started per builder.
//
// Parameters:
//   - ctx: The context for cancellation and tracing.
//   - builders: The builders to run, one per family.
//   - req: The surface to build.
//   - out: The io.Writer for progress display.
//   - observers: Extra progress observers (logging, metrics).
//
// Returns:
//   - []BuildResult: One result per builder, in builder order.
func ExecuteBuilds(ctx context.Context, builders []*qpoly.SagBuilder, req qpoly.Request, out io.Writer, observers ...qpoly.ProgressObserver) []BuildResult {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]BuildResult, len(builders))
	progressChan := make(chan qpoly.ProgressUpdate, len(builders)*ProgressBufferMultiplier)

	subject := qpoly.NewProgressSubject()
	subject.Register(qpoly.NewChannelObserver(progressChan))
	for _, o := range observers {
		subject.Register(o)
	}

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(builders), out)

	for i, b := range builders {
		idx, builder := i, b
		g.Go(func() error {
			results[idx] = runBuild(ctx, builder, subject, idx, req)
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

func runBuild(ctx context.Context, builder *qpoly.SagBuilder, subject *qpoly.ProgressSubject, idx int, req qpoly.Request) BuildResult {
	res := BuildResult{Family: builder.Name()}
	start := time.Now()

	if err := ctx.Err(); err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	sag, err := builder.Build(ctx, subject, idx, req)
	if err == nil {
		res.Window, err = builder.Basis().Window(req.Samples, req.RhoMax)
	}
	res.Duration = time.Since(start)
	res.Cache = builder.Basis().Stats()
	if err != nil {
		res.Err = err
		return res
	}
	res.Sag = sag
	res.Stats = qpoly.Summarize(sag, res.Window)
	return res
}

// AnalyzeResults reports a batch of builds and returns the exit code.
//
// Successful builds come first, fastest first. Every successful map is
// displayed and exported according to cfg; the first failure decides the
// exit code, so a partial batch is reported as failed.
//
// Parameters:
//   - results: The results to analyze. The slice is sorted in place.
//   - req: The surface that was built.
//   - cfg: The application configuration.
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeResults(results []BuildResult, req qpoly.Request, cfg config.AppConfig, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	if cfg.JSONOutput {
		return writeJSONReport(results, req, out)
	}

	var firstError error
	var firstErrorDuration time.Duration
	successCount := 0

	if !cfg.Quiet {
		writeSummaryTable(results, out)
	}
	for _, res := range results {
		if res.Err != nil {
			if firstError == nil {
				firstError, firstErrorDuration = res.Err, res.Duration
			}
			continue
		}
		successCount++
	}

	multi := len(results) > 1
	outCfg := cli.OutputConfig{OutputFile: cfg.OutputFile, Format: cfg.Format, Quiet: cfg.Quiet, Verbose: cfg.Verbose}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if !cfg.Quiet {
			fmt.Fprintln(out)
		}
		data := cli.SagExport{
			Family: res.Family, Request: req, Sag: res.Sag, Window: res.Window,
			Stats: res.Stats, Duration: res.Duration,
		}
		if err := cli.DisplayResultWithConfig(out, data, multi, outCfg); err != nil {
			fmt.Fprintf(out, "%sError saving %s sag map: %v%s\n", ui.ColorRed(), res.Family, err, ui.ColorReset())
			return apperrors.ExitErrorGeneric
		}
	}

	if cfg.Details && !cfg.Quiet {
		stats := make([]qpoly.CacheStats, 0, len(results))
		for _, res := range results {
			stats = append(stats, res.Cache)
		}
		fmt.Fprintln(out)
		cli.DisplayCacheStats(stats, out)
	}

	switch {
	case successCount == 0:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No family could build the sag map.\n")
		return apperrors.HandleComputationError(firstError, firstErrorDuration, out, cli.CLIColorProvider{})
	case firstError != nil:
		fmt.Fprintf(out, "\nGlobal Status: Partial. %d of %d families built the sag map.\n", successCount, len(results))
		return apperrors.HandleComputationError(firstError, firstErrorDuration, out, cli.CLIColorProvider{})
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "\nGlobal Status: Success.\n")
	}
	return apperrors.ExitSuccess
}

func writeSummaryTable(results []BuildResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Build Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sFamily%s\t%sDuration%s\t%sPeak to valley%s\t%sRMS%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	for _, res := range results {
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		pv, rms := "-", "-"
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			pv, rms = fmt.Sprintf("%.6g", res.Stats.PV), fmt.Sprintf("%.6g", res.Stats.RMS)
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%s\t%s\n",
			ui.ColorBlue(), res.Family, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			pv, rms, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

// writeJSONReport encodes one models.SagSummary per result. Failed builds
// carry their error message.
func writeJSONReport(results []BuildResult, req qpoly.Request, out io.Writer) int {
	summaries := make([]models.SagSummary, 0, len(results))
	code := apperrors.ExitSuccess
	for _, res := range results {
		r := service.Result{Family: res.Family, Sag: res.Sag, Stats: res.Stats, Duration: res.Duration}
		s := r.Summary(req, false)
		if res.Err != nil {
			s.Error = res.Err.Error()
			if code == apperrors.ExitSuccess {
				code = apperrors.HandleComputationError(res.Err, res.Duration, io.Discard, nil)
			}
		}
		summaries = append(summaries, s)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return code
}
