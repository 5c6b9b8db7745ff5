package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of EnvPrefix+key, or defaultVal if unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns EnvPrefix+key parsed as int, or defaultVal if unset or
// invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns EnvPrefix+key parsed as float64, or defaultVal if unset
// or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns EnvPrefix+key parsed as bool, or defaultVal if unset.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns EnvPrefix+key parsed as time.Duration ("5m", "30s"),
// or defaultVal if unset or invalid.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				found = true
			}
		}
	})
	return found
}

// applyEnvOverrides fills every flag that was not given explicitly from its
// environment variable: CLI flags > environment variables > defaults.
//
// Supported environment variables:
//   - QSAG_FAMILY: Polynomial family (string: qbfs, qcon, all)
//   - QSAG_COEFS: Coefficient list (string: "A0=1,A4=0.3")
//   - QSAG_SAMPLES: Grid size (int)
//   - QSAG_RHO_MAX: Pupil radius (float)
//   - QSAG_PRECISION: Cache precision (string: float64, float32)
//   - QSAG_TIMEOUT: Build timeout (duration: "5m", "30s")
//   - QSAG_FORMAT: Export format (string)
//   - QSAG_OUTPUT: Output file path (string)
//   - QSAG_PORT: Port for server mode (string)
//   - QSAG_SERVER, QSAG_JSON, QSAG_VERBOSE, QSAG_DETAILS, QSAG_QUIET,
//     QSAG_NO_COLOR, QSAG_INTERACTIVE: Booleans (true/false, 1/0, yes/no)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyGridOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyGridOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "samples") {
		config.Samples = getEnvInt("SAMPLES", config.Samples)
	}
	if !isFlagSet(fs, "rho-max") {
		config.RhoMax = getEnvFloat("RHO_MAX", config.RhoMax)
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "family") {
		config.Family = getEnvString("FAMILY", config.Family)
	}
	if !isFlagSet(fs, "coefs") {
		config.Coefs = getEnvString("COEFS", config.Coefs)
	}
	if !isFlagSet(fs, "precision") {
		config.Precision = getEnvString("PRECISION", config.Precision)
	}
	if !isFlagSet(fs, "format") {
		config.Format = getEnvString("FORMAT", config.Format)
	}
	if !isFlagSet(fs, "output", "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "v") {
		config.Verbose = getEnvBool("VERBOSE", config.Verbose)
	}
	if !isFlagSet(fs, "d", "details") {
		config.Details = getEnvBool("DETAILS", config.Details)
	}
	if !isFlagSet(fs, "quiet", "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "interactive", "i") {
		config.Interactive = getEnvBool("INTERACTIVE", config.Interactive)
	}
}
