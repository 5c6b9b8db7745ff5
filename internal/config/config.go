// Package config provides the configuration management for the qsag
// application. It defines the configuration structure, parses command-line
// arguments with QSAG_* environment fallbacks, and validates the result.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/qpoly"
)

const (
	// EnvPrefix is the prefix for all environment variables used by qsag.
	EnvPrefix = "QSAG_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultFamily builds every registered polynomial family.
	DefaultFamily = "all"
	// DefaultCoefs is a pure constant term, whose sag is the bare window.
	DefaultCoefs = "A0=1"
	// DefaultSamples is the grid size along each axis.
	DefaultSamples = qpoly.DefaultSamples
	// DefaultRhoMax is the pupil radius.
	DefaultRhoMax = qpoly.DefaultRhoMax
	// DefaultPrecision is the storage precision of cached arrays.
	DefaultPrecision = "float64"
	// DefaultTimeout is the default build timeout.
	DefaultTimeout = 1 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultFormat is the default encoding of exported sag maps.
	DefaultFormat = "table"
)

// Formats lists the encodings accepted by -format.
var Formats = []string{"table", "json", "csv", "tiff", "png"}

// AppConfig aggregates the application's configuration parameters, parsed from
// command-line flags.
type AppConfig struct {
	// Family is "qbfs", "qcon" or "all".
	Family string
	// Coefs is the coefficient list in "A<n>=<weight>" form, comma separated.
	Coefs string
	// Samples is the grid size along each axis.
	Samples int
	// RhoMax is the pupil radius.
	RhoMax float64
	// Precision is "float64" or "float32".
	Precision string
	// Timeout bounds the whole batch of builds.
	Timeout time.Duration
	// Format is the export encoding used with OutputFile.
	Format string
	// OutputFile, if set, receives the sag map in Format. With several
	// families the family name is inserted before the extension.
	OutputFile string
	// Verbose prints the full sag map as a table.
	Verbose bool
	// Details adds cache statistics to the report.
	Details bool
	// Quiet suppresses the spinner, banners and informational messages.
	Quiet bool
	// JSONOutput prints the build summary as JSON.
	JSONOutput bool
	// ServerMode starts the HTTP API instead of running a build.
	ServerMode bool
	// Port is the listen port in server mode.
	Port string
	// Interactive starts the interactive shell.
	Interactive bool
	// NoColor disables colored output. The NO_COLOR variable is also honored.
	NoColor bool
	// Completion, if set, prints a completion script for the given shell
	// ("bash", "zsh", "fish", "powershell").
	Completion string
}

// ParseCoefficients parses a coefficient list such as "A0=1, A4=0.3". The
// "A" prefix is optional and case-insensitive. An empty list is valid and
// yields an empty set.
//
// Parameters:
//   - list: The comma-separated list.
//
// Returns:
//   - qpoly.Coefficients: The parsed order → weight mapping.
//   - error: A ConfigError for malformed entries, negative or repeated orders,
//     and non-finite weights.
func ParseCoefficients(list string) (qpoly.Coefficients, error) {
	coefs := make(qpoly.Coefficients)
	for _, raw := range strings.Split(list, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, apperrors.NewConfigError("coefficient %q: expected A<order>=<weight>", entry)
		}
		key = strings.TrimSpace(key)
		if strings.HasPrefix(key, "A") || strings.HasPrefix(key, "a") {
			key = key[1:]
		}

		order, err := strconv.Atoi(key)
		if err != nil {
			return nil, apperrors.NewConfigError("coefficient %q: invalid order", entry)
		}
		if order < 0 {
			return nil, apperrors.NewConfigError("coefficient %q: order must be non-negative", entry)
		}
		if _, dup := coefs[order]; dup {
			return nil, apperrors.NewConfigError("coefficient A%d given more than once", order)
		}

		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, apperrors.NewConfigError("coefficient %q: invalid weight", entry)
		}
		coefs[order] = weight
	}
	return coefs, nil
}

// ToRequest converts the configuration into a qpoly.Request.
func (c AppConfig) ToRequest() (qpoly.Request, error) {
	coefs, err := ParseCoefficients(c.Coefs)
	if err != nil {
		return qpoly.Request{}, err
	}
	return qpoly.Request{Coefs: coefs, Samples: c.Samples, RhoMax: c.RhoMax}, nil
}

// Families resolves Family against the available names: "all" selects every
// one of them.
func (c AppConfig) Families(available []string) []string {
	if c.Family == "all" {
		return available
	}
	return []string{c.Family}
}

// Validate checks the semantic consistency of the configuration parameters.
//
// Parameters:
//   - families: The registered family names (e.g., ["qbfs", "qcon"]).
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(families []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Samples <= 0 {
		return apperrors.NewConfigError("sample count must be strictly positive: %d", c.Samples)
	}
	if math.IsNaN(c.RhoMax) || math.IsInf(c.RhoMax, 0) || c.RhoMax <= 0 {
		return apperrors.NewConfigError("pupil radius must be finite and strictly positive: %g", c.RhoMax)
	}
	if _, err := numconf.ParsePrecision(c.Precision); err != nil {
		return apperrors.NewConfigError("%v. Valid precisions are: float64, float32", err)
	}
	if !contains(Formats, c.Format) {
		return apperrors.NewConfigError("unrecognized format: '%s'. Valid formats are: [%s]", c.Format, strings.Join(Formats, ", "))
	}
	if c.Family != "all" && !contains(families, c.Family) {
		return apperrors.NewConfigError("unrecognized family: '%s'. Valid families are: 'all' or [%s]", c.Family, strings.Join(families, ", "))
	}
	if _, err := ParseCoefficients(c.Coefs); err != nil {
		return err
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. Environment variables fill in any flag not given explicitly, then
// the result is validated.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//   - families: The registered family names, for validation.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, families []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	familyHelp := fmt.Sprintf("Polynomial family: 'all' (default) or one of [%s].", strings.Join(families, ", "))

	config := AppConfig{}
	fs.StringVar(&config.Family, "family", DefaultFamily, familyHelp)
	fs.StringVar(&config.Coefs, "coefs", DefaultCoefs, "Coefficients as A<order>=<weight>, comma separated.")
	fs.IntVar(&config.Samples, "samples", DefaultSamples, "Grid size along each axis.")
	fs.Float64Var(&config.RhoMax, "rho-max", DefaultRhoMax, "Pupil radius.")
	fs.StringVar(&config.Precision, "precision", DefaultPrecision, "Storage precision of cached arrays (float64, float32).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the builds.")
	fs.StringVar(&config.Format, "format", DefaultFormat, fmt.Sprintf("Export format for -o: [%s].", strings.Join(Formats, ", ")))
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the sag map.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Verbose, "v", false, "Print the full sag map.")
	fs.BoolVar(&config.Details, "d", false, "Display cache statistics.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output the build summary in JSON format.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start the interactive shell.")
	fs.BoolVar(&config.Interactive, "i", false, "Interactive mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish, powershell).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	config.Family = strings.ToLower(config.Family)
	config.Format = strings.ToLower(config.Format)
	if err := config.Validate(families); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}
