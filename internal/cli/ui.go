// Package cli provides the terminal front end of qsag: asynchronous progress
// display, build summaries, sag map exports and the interactive shell.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds below a millisecond, milliseconds below a second,
// and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
	// MapExcerpt is the number of leading and trailing rows and columns shown
	// when a sag map is too large to print whole.
	MapExcerpt = 4
	// MapPrintLimit is the largest grid printed in full by DisplayMap.
	MapPrintLimit = 16
)

// Color functions return ANSI escape codes from the current theme.

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return ui.GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return ui.GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return ui.GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return ui.GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return ui.GetCurrentTheme().Primary }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return ui.GetCurrentTheme().Info }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return ui.GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return ui.GetCurrentTheme().Bold }

// Spinner abstracts a terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// progressBar renders progress, clamped to [0, 1], as a bar of length runes.
func progressBar(progress float64, length int) string {
	if progress > 1.0 {
		progress = 1.0
	}
	if progress < 0.0 {
		progress = 0.0
	}
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// progressLabel names the bar for one build or the average of several.
func progressLabel(numBuilds int) string {
	if numBuilds > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress renders a spinner and an averaged progress bar until
// progressChan is closed, then prints a final 100% line. It is meant to run in
// its own goroutine.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numBuilds: The number of builds contributing to the progress.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan qpoly.ProgressUpdate, numBuilds int, out io.Writer) {
	defer wg.Done()
	if numBuilds <= 0 {
		for range progressChan {
		}
		return
	}

	tracker := NewProgressTracker(numBuilds)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := progressLabel(numBuilds)
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				stopped = true
				fmt.Fprintf(out, "%s: %s\n", label, FormatProgressLine(1.0, 0, ProgressBarWidth))
				return
			}
			tracker.Update(update.BuildIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label, FormatProgressLine(tracker.Average(), tracker.ETA(), ProgressBarWidth)))
		}
	}
}

// DisplaySummary prints the statistics of one sag map.
//
// Parameters:
//   - family: The polynomial family of the map.
//   - stats: The statistics over the unit pupil.
//   - duration: The build time.
//   - out: The io.Writer for the output.
func DisplaySummary(family string, stats qpoly.SagStats, duration time.Duration, out io.Writer) {
	durationStr := FormatExecutionDuration(duration)
	if duration == 0 {
		durationStr = "< 1µs"
	}
	fmt.Fprintf(out, "%s--- %s sag map ---%s\n", ColorBold(), family, ColorReset())
	fmt.Fprintf(out, "Build time     : %s%s%s\n", ColorGreen(), durationStr, ColorReset())
	fmt.Fprintf(out, "Pupil samples  : %s%s%s\n", ColorCyan(), formatCount(stats.Points), ColorReset())
	fmt.Fprintf(out, "Min / Max      : %s%.6g%s / %s%.6g%s\n", ColorCyan(), stats.Min, ColorReset(), ColorCyan(), stats.Max, ColorReset())
	fmt.Fprintf(out, "Peak to valley : %s%.6g%s\n", ColorMagenta(), stats.PV, ColorReset())
	fmt.Fprintf(out, "Mean / RMS     : %s%.6g%s / %s%.6g%s\n", ColorCyan(), stats.Mean, ColorReset(), ColorCyan(), stats.RMS, ColorReset())
}

// DisplayMap prints sag as a matrix. Grids larger than MapPrintLimit are
// shown as an excerpt unless full is set.
func DisplayMap(sag *mat.Dense, full bool, out io.Writer) {
	r, c := sag.Dims()
	opts := []mat.FormatOption{mat.Squeeze()}
	if !full && (r > MapPrintLimit || c > MapPrintLimit) {
		opts = append(opts, mat.Excerpt(MapExcerpt))
	}
	fmt.Fprintf(out, "%.4g\n", mat.Formatted(sag, opts...))
}

// DisplayCacheStats prints one line of cache counters per family.
func DisplayCacheStats(stats []qpoly.CacheStats, out io.Writer) {
	fmt.Fprintf(out, "%s--- Cache statistics ---%s\n", ColorBold(), ColorReset())
	for _, st := range stats {
		fmt.Fprintf(out, "%s%-5s%s hits=%s misses=%s hit-rate=%5.1f%% P=%d Q=%d grids=%d bytes=%s\n",
			ColorYellow(), st.Family, ColorReset(),
			formatCount(int(st.Hits)), formatCount(int(st.Misses)), st.HitRate()*100,
			st.PEntries, st.QEntries, st.Grids, formatCount(st.Bytes))
	}
}

// formatCount renders n with thousand separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	prefix := ""
	if s[0] == '-' {
		prefix, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return prefix + s
	}

	var builder strings.Builder
	builder.Grow(len(prefix) + len(s) + (len(s)-1)/3)
	builder.WriteString(prefix)
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	builder.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		builder.WriteByte(',')
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}
