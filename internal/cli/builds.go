package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/qsag/internal/config"
	"github.com/agbru/qsag/internal/qpoly"
)

// SelectBuilders returns one builder per family selected by cfg, in
// alphabetical family order. Unknown families are skipped.
//
// Parameters:
//   - cfg: The application configuration containing the family selection.
//   - registry: The registry to take bases from.
//
// Returns:
//   - []*qpoly.SagBuilder: The builders to run.
func SelectBuilders(cfg config.AppConfig, registry *qpoly.Registry) []*qpoly.SagBuilder {
	families := cfg.Families(registry.List())
	builders := make([]*qpoly.SagBuilder, 0, len(families))
	for _, name := range families {
		if basis, err := registry.Get(name); err == nil {
			builders = append(builders, qpoly.NewSagBuilder(basis))
		}
	}
	return builders
}

// PrintExecutionConfig displays the grid, coefficients and environment of
// the run.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Building %s%d×%d%s sag maps over rho ≤ %s%g%s with a timeout of %s%s%s.\n",
		ColorMagenta(), cfg.Samples, cfg.Samples, ColorReset(),
		ColorMagenta(), cfg.RhoMax, ColorReset(),
		ColorYellow(), cfg.Timeout, ColorReset())
	writeOut(out, "Coefficients: %s%s%s (cache precision %s%s%s).\n",
		ColorCyan(), cfg.Coefs, ColorReset(), ColorCyan(), cfg.Precision, ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
}

// PrintExecutionMode displays whether one family or several are built.
//
// Parameters:
//   - builders: The builders that will be executed.
//   - out: The writer for standard output.
func PrintExecutionMode(builders []*qpoly.SagBuilder, out io.Writer) {
	var modeDesc string
	if len(builders) > 1 {
		modeDesc = "Parallel build of every family"
	} else {
		modeDesc = fmt.Sprintf("Single build in the %s%s%s family",
			ColorGreen(), builders[0].Name(), ColorReset())
	}
	writeOut(out, "Execution mode: %s.\n", modeDesc)
	writeOut(out, "\n--- Starting Execution ---\n")
}

// writeOut writes a formatted string to out.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
