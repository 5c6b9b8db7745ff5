package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/qsag/internal/config"
	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/service"
)

// REPLConfig holds the initial state of an interactive session.
type REPLConfig struct {
	// Family is the initial family; "" or "all" selects the first registered.
	Family string
	// Coefs is the initial coefficient set.
	Coefs qpoly.Coefficients
	// Samples is the grid size along each axis.
	Samples int
	// RhoMax is the pupil radius.
	RhoMax float64
	// Timeout bounds each build.
	Timeout time.Duration
}

// REPL is an interactive session that edits a surface and rebuilds it on
// demand. Caches persist across commands, so repeated builds reuse terms.
type REPL struct {
	config  REPLConfig
	service service.Service
	family  string
	coefs   qpoly.Coefficients
	in      io.Reader
	out     io.Writer
}

// NewREPL creates a new REPL instance.
//
// Parameters:
//   - svc: The service performing builds.
//   - cfg: The initial session state.
//
// Returns:
//   - *REPL: A new REPL instance.
func NewREPL(svc service.Service, cfg REPLConfig) *REPL {
	family := cfg.Family
	if family == "" || family == "all" {
		if families := svc.Families(); len(families) > 0 {
			family = families[0]
		}
	}
	if cfg.Samples <= 0 {
		cfg.Samples = qpoly.DefaultSamples
	}
	if cfg.RhoMax <= 0 {
		cfg.RhoMax = qpoly.DefaultRhoMax
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	coefs := make(qpoly.Coefficients, len(cfg.Coefs))
	for n, w := range cfg.Coefs {
		coefs[n] = w
	}

	return &REPL{
		config:  cfg,
		service: svc,
		family:  family,
		coefs:   coefs,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// SetInput sets a custom input reader.
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer.
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start reads and executes commands until "exit" or end of input.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for {
		fmt.Fprint(r.out, ColorGreen()+"qsag> "+ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ColorRed(), err, ColorReset())
			return
		}
		line := strings.TrimSpace(input)
		if line != "" && !r.processCommand(line) {
			return
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ColorCyan(), ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %sQ-polynomial sag maps - Interactive Mode%s             %s║%s\n",
		ColorCyan(), ColorReset(), ColorBold(), ColorReset(), ColorCyan(), ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ColorCyan(), ColorReset())
}

func (r *REPL) printHelp() {
	y, z := ColorYellow(), ColorReset()
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ColorBold(), ColorReset())
	fmt.Fprintf(r.out, "  %sbuild%s            - Build the current surface\n", y, z)
	fmt.Fprintf(r.out, "  %sfamily <name>%s    - Change family (%s)\n", y, z, strings.Join(r.service.Families(), ", "))
	fmt.Fprintf(r.out, "  %sset A<n>=<w>,...%s - Set coefficients (a weight of 0 removes the term)\n", y, z)
	fmt.Fprintf(r.out, "  %sreset%s            - Remove every coefficient\n", y, z)
	fmt.Fprintf(r.out, "  %ssamples <n>%s      - Change the grid size\n", y, z)
	fmt.Fprintf(r.out, "  %srho <r>%s          - Change the pupil radius\n", y, z)
	fmt.Fprintf(r.out, "  %scompare%s          - Build the surface in every family\n", y, z)
	fmt.Fprintf(r.out, "  %scache%s            - Display cache statistics\n", y, z)
	fmt.Fprintf(r.out, "  %sclear%s            - Empty the caches\n", y, z)
	fmt.Fprintf(r.out, "  %slist%s             - List available families\n", y, z)
	fmt.Fprintf(r.out, "  %sstatus%s           - Display the current surface\n", y, z)
	fmt.Fprintf(r.out, "  %shelp%s             - Display this help\n", y, z)
	fmt.Fprintf(r.out, "  %sexit%s / %squit%s      - Exit interactive mode\n", y, z, y, z)
}

// processCommand executes one command line. It returns false when the
// session should end.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "build", "b":
		r.build()
	case "family", "f":
		r.cmdFamily(args)
	case "set", "s":
		r.cmdSet(strings.Join(args, ""))
	case "reset":
		r.coefs = qpoly.Coefficients{}
		fmt.Fprintln(r.out, "Coefficients cleared.")
	case "samples":
		r.cmdSamples(args)
	case "rho":
		r.cmdRho(args)
	case "compare", "cmp":
		r.cmdCompare()
	case "cache":
		DisplayCacheStats(r.service.CacheStats(), r.out)
	case "clear":
		r.service.ClearCaches()
		fmt.Fprintf(r.out, "%sCaches cleared.%s\n", ColorGreen(), ColorReset())
	case "list", "ls":
		r.cmdList()
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ColorGreen(), ColorReset())
		return false
	default:
		// A bare coefficient list such as "A4=0.3" is a shorthand for set.
		if strings.Contains(input, "=") {
			r.cmdSet(strings.ReplaceAll(input, " ", ""))
			return true
		}
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ColorRed(), cmd, ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ColorYellow(), ColorReset())
	}

	return true
}

func (r *REPL) request() qpoly.Request {
	return qpoly.Request{Coefs: r.coefs, Samples: r.config.Samples, RhoMax: r.config.RhoMax}
}

// build builds the current surface in the current family.
func (r *REPL) build() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	fmt.Fprintf(r.out, "Building %s%d%s terms in %s%s%s...\n",
		ColorMagenta(), r.coefs.Active(), ColorReset(), ColorCyan(), r.family, ColorReset())

	res, err := r.service.Build(ctx, r.family, r.request())
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ColorRed(), err, ColorReset())
		return
	}
	DisplaySummary(res.Family, res.Stats, res.Duration, r.out)
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdFamily(args []string) {
	families := r.service.Families()
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: family <name>%s\n", ColorRed(), ColorReset())
		fmt.Fprintf(r.out, "Available families: %s\n", strings.Join(families, ", "))
		return
	}

	name := strings.ToLower(args[0])
	for _, f := range families {
		if f == name {
			r.family = name
			fmt.Fprintf(r.out, "Family changed to: %s%s%s\n", ColorGreen(), name, ColorReset())
			return
		}
	}
	fmt.Fprintf(r.out, "%sUnknown family: %s%s\n", ColorRed(), name, ColorReset())
	fmt.Fprintf(r.out, "Available families: %s\n", strings.Join(families, ", "))
}

// cmdSet merges a coefficient list into the current set. Zero weights
// remove their order.
func (r *REPL) cmdSet(list string) {
	if list == "" {
		fmt.Fprintf(r.out, "%sUsage: set A<n>=<weight>[,A<m>=<weight>...]%s\n", ColorRed(), ColorReset())
		return
	}
	parsed, err := config.ParseCoefficients(list)
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid coefficients: %v%s\n", ColorRed(), err, ColorReset())
		return
	}
	for n, w := range parsed {
		if w == 0 {
			delete(r.coefs, n)
		} else {
			r.coefs[n] = w
		}
	}
	fmt.Fprintf(r.out, "Coefficients: %s%s%s\n", ColorCyan(), formatCoefs(r.coefs), ColorReset())
}

func (r *REPL) cmdSamples(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: samples <n>%s\n", ColorRed(), ColorReset())
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		fmt.Fprintf(r.out, "%sInvalid sample count: %s%s\n", ColorRed(), args[0], ColorReset())
		return
	}
	r.config.Samples = n
	fmt.Fprintf(r.out, "Samples set to: %s%d%s\n", ColorGreen(), n, ColorReset())
}

func (r *REPL) cmdRho(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: rho <radius>%s\n", ColorRed(), ColorReset())
		return
	}
	rho, err := strconv.ParseFloat(args[0], 64)
	if err != nil || !(rho > 0) {
		fmt.Fprintf(r.out, "%sInvalid pupil radius: %s%s\n", ColorRed(), args[0], ColorReset())
		return
	}
	r.config.RhoMax = rho
	fmt.Fprintf(r.out, "Pupil radius set to: %s%g%s\n", ColorGreen(), rho, ColorReset())
}

// cmdCompare builds the current surface in every family and tabulates the
// results.
func (r *REPL) cmdCompare() {
	fmt.Fprintf(r.out, "\n%sComparison for %s:%s\n", ColorBold(), formatCoefs(r.coefs), ColorReset())
	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────────────────%s\n", ColorCyan(), ColorReset())

	for _, family := range r.service.Families() {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
		res, err := r.service.Build(ctx, family, r.request())
		cancel()
		if err != nil {
			fmt.Fprintf(r.out, "  %s%-6s%s: %sError - %v%s\n",
				ColorYellow(), family, ColorReset(), ColorRed(), err, ColorReset())
			continue
		}
		fmt.Fprintf(r.out, "  %s%-6s%s: PV %s%12.6g%s  RMS %s%12.6g%s  %s%10s%s\n",
			ColorYellow(), family, ColorReset(),
			ColorMagenta(), res.Stats.PV, ColorReset(),
			ColorCyan(), res.Stats.RMS, ColorReset(),
			ColorGreen(), FormatExecutionDuration(res.Duration), ColorReset())
	}

	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────────────────%s\n\n", ColorCyan(), ColorReset())
}

func (r *REPL) cmdList() {
	fmt.Fprintf(r.out, "\n%sAvailable families:%s\n", ColorBold(), ColorReset())
	for _, name := range r.service.Families() {
		marker := "  "
		if name == r.family {
			marker = ColorGreen() + "► " + ColorReset()
		}
		fmt.Fprintf(r.out, "%s%s%s%s\n", marker, ColorYellow(), name, ColorReset())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%sCurrent surface:%s\n", ColorBold(), ColorReset())
	fmt.Fprintf(r.out, "  Family:        %s%s%s\n", ColorCyan(), r.family, ColorReset())
	fmt.Fprintf(r.out, "  Coefficients:  %s%s%s\n", ColorCyan(), formatCoefs(r.coefs), ColorReset())
	fmt.Fprintf(r.out, "  Samples:       %s%d%s\n", ColorCyan(), r.config.Samples, ColorReset())
	fmt.Fprintf(r.out, "  Pupil radius:  %s%g%s\n", ColorCyan(), r.config.RhoMax, ColorReset())
	fmt.Fprintf(r.out, "  Timeout:       %s%s%s\n", ColorCyan(), r.config.Timeout, ColorReset())
	fmt.Fprintln(r.out)
}

// formatCoefs renders coefs in the "A<n>=<w>" syntax accepted by set.
func formatCoefs(coefs qpoly.Coefficients) string {
	if len(coefs) == 0 {
		return "(none)"
	}
	orders := coefs.Orders()
	parts := make([]string, 0, len(orders))
	for _, n := range orders {
		parts = append(parts, fmt.Sprintf("A%d=%g", n, coefs[n]))
	}
	return strings.Join(parts, ",")
}
