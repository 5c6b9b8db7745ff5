package cli

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/service"
)

// SagExport is everything an exporter may write about one map.
type SagExport struct {
	Family   string
	Request  qpoly.Request
	Sag      *mat.Dense
	Window   *mat.Dense
	Stats    qpoly.SagStats
	Duration time.Duration
}

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the map (empty for no file output).
	OutputFile string
	// Format is one of config.Formats.
	Format string
	// Quiet mode prints one summary line per family.
	Quiet bool
	// Verbose prints the whole map.
	Verbose bool
}

// FamilyOutputPath inserts "_<family>" before the extension of path when
// several families share one output flag.
//
// Parameters:
//   - path: The configured output path.
//   - family: The family being written.
//   - multi: Whether more than one family is exported.
//
// Returns:
//   - string: The path to write.
func FamilyOutputPath(path, family string, multi bool) string {
	if !multi || path == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + family + ext
}

// WriteSagFile writes data to path in the given format, creating parent
// directories as needed.
//
// Returns:
//   - error: An error if the file cannot be written or the format is unknown.
func WriteSagFile(path, format string, data SagExport) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(file)
	if err := ExportSag(w, format, data); err != nil {
		return err
	}
	return w.Flush()
}

// ExportSag encodes data to w.
//
// Formats:
//   - table: a commented header followed by one whitespace-separated row per grid row.
//   - json: a models.SagSummary with the full map.
//   - csv: one record per grid row.
//   - tiff, png: a 16-bit grayscale image normalised to the pupil's min and max.
func ExportSag(w io.Writer, format string, data SagExport) error {
	switch format {
	case "table":
		return writeTable(w, data)
	case "json":
		return writeJSON(w, data)
	case "csv":
		return writeCSV(w, data.Sag)
	case "tiff":
		return tiff.Encode(w, grayImage(data.Sag, data.Window), &tiff.Options{Compression: tiff.Deflate})
	case "png":
		return png.Encode(w, grayImage(data.Sag, data.Window))
	}
	return fmt.Errorf("unknown export format %q", format)
}

func writeTable(w io.Writer, data SagExport) error {
	fmt.Fprintf(w, "# Q-polynomial sag map\n")
	fmt.Fprintf(w, "# Family: %s\n", data.Family)
	fmt.Fprintf(w, "# Samples: %d\n", data.Request.Samples)
	fmt.Fprintf(w, "# RhoMax: %g\n", data.Request.RhoMax)
	for _, n := range data.Request.Coefs.Orders() {
		fmt.Fprintf(w, "# A%d = %g\n", n, data.Request.Coefs[n])
	}
	fmt.Fprintf(w, "# PV: %g RMS: %g\n", data.Stats.PV, data.Stats.RMS)

	r, _ := data.Sag.Dims()
	for i := 0; i < r; i++ {
		row := data.Sag.RawRowView(i)
		for j, v := range row {
			if j > 0 {
				if _, err := io.WriteString(w, " "); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, data SagExport) error {
	res := &service.Result{Family: data.Family, Sag: data.Sag, Stats: data.Stats, Duration: data.Duration}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Summary(data.Request, true))
}

func writeCSV(w io.Writer, sag *mat.Dense) error {
	cw := csv.NewWriter(w)
	r, c := sag.Dims()
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(sag.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// grayImage maps the samples inside the pupil linearly onto [0, 65535].
// Samples outside the pupil and flat maps are black.
func grayImage(sag, window *mat.Dense) *image.Gray16 {
	r, c := sag.Dims()
	img := image.NewGray16(image.Rect(0, 0, c, r))

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if window.At(i, j) >= 0 {
				v := sag.At(i, j)
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
	}
	span := hi - lo
	if !(span > 0) {
		return img
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if window.At(i, j) < 0 {
				continue
			}
			level := (sag.At(i, j) - lo) / span * math.MaxUint16
			img.SetGray16(j, i, color.Gray16{Y: uint16(math.Round(level))})
		}
	}
	return img
}

// FormatQuietResult renders one tab-separated line: family, PV, RMS and
// build time in milliseconds.
func FormatQuietResult(family string, stats qpoly.SagStats, duration time.Duration) string {
	return fmt.Sprintf("%s\t%.9g\t%.9g\t%.3f", family, stats.PV, stats.RMS, float64(duration.Microseconds())/1000)
}

// DisplayQuietResult prints FormatQuietResult followed by a newline.
func DisplayQuietResult(out io.Writer, family string, stats qpoly.SagStats, duration time.Duration) {
	fmt.Fprintln(out, FormatQuietResult(family, stats, duration))
}

// DisplayResultWithConfig prints one map according to cfg and writes it to
// the configured file.
//
// Parameters:
//   - out: The output writer.
//   - data: The map and its statistics.
//   - multi: Whether other families are reported in the same run.
//   - cfg: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplayResultWithConfig(out io.Writer, data SagExport, multi bool, cfg OutputConfig) error {
	if cfg.Quiet {
		DisplayQuietResult(out, data.Family, data.Stats, data.Duration)
	} else {
		DisplaySummary(data.Family, data.Stats, data.Duration, out)
		if cfg.Verbose {
			DisplayMap(data.Sag, true, out)
		}
	}

	if cfg.OutputFile == "" {
		return nil
	}
	path := FamilyOutputPath(cfg.OutputFile, data.Family, multi)
	if err := WriteSagFile(path, cfg.Format, data); err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "%s✓ Sag map saved to: %s%s%s\n", ColorGreen(), ColorCyan(), path, ColorReset())
	}
	return nil
}
