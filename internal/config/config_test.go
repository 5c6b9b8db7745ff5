package config

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/qsag/internal/errors"
)

var testFamilies = []string{"qbfs", "qcon"}

func validConfig() AppConfig {
	return AppConfig{
		Family:    "all",
		Coefs:     DefaultCoefs,
		Samples:   DefaultSamples,
		RhoMax:    DefaultRhoMax,
		Precision: DefaultPrecision,
		Timeout:   DefaultTimeout,
		Format:    DefaultFormat,
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		t.Parallel()
		cfg, err := ParseConfig("qsag", []string{}, io.Discard, testFamilies)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Family != "all" {
			t.Errorf("Expected default Family 'all', got %s", cfg.Family)
		}
		if cfg.Coefs != "A0=1" {
			t.Errorf("Expected default Coefs 'A0=1', got %s", cfg.Coefs)
		}
		if cfg.Samples != 128 || cfg.RhoMax != 1 {
			t.Errorf("Expected 128 samples over radius 1, got %d over %v", cfg.Samples, cfg.RhoMax)
		}
		if cfg.Timeout != time.Minute {
			t.Errorf("Expected default Timeout 1m, got %v", cfg.Timeout)
		}
		if cfg.Format != "table" || cfg.Precision != "float64" {
			t.Errorf("Unexpected format/precision defaults: %s/%s", cfg.Format, cfg.Precision)
		}
	})

	t.Run("ValidFlags", func(t *testing.T) {
		t.Parallel()
		args := []string{
			"-family", "QCON",
			"-coefs", "A0=1,A4=0.3",
			"-samples", "256",
			"-rho-max", "12.5",
			"-precision", "float32",
			"-timeout", "10s",
			"-format", "TIFF",
			"-o", "sag.tiff",
			"-d", "-q", "-v",
			"-server",
			"-port", "9090",
		}
		cfg, err := ParseConfig("qsag", args, io.Discard, testFamilies)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Family != "qcon" {
			t.Errorf("Expected Family 'qcon', got %s", cfg.Family)
		}
		if cfg.Samples != 256 || cfg.RhoMax != 12.5 {
			t.Errorf("Unexpected grid %d/%v", cfg.Samples, cfg.RhoMax)
		}
		if cfg.Precision != "float32" || cfg.Format != "tiff" || cfg.OutputFile != "sag.tiff" {
			t.Errorf("Unexpected precision/format/output: %s/%s/%s", cfg.Precision, cfg.Format, cfg.OutputFile)
		}
		if !cfg.Details || !cfg.Quiet || !cfg.Verbose || !cfg.ServerMode {
			t.Error("Expected boolean flags to be set")
		}
		if cfg.Port != "9090" || cfg.Timeout != 10*time.Second {
			t.Errorf("Unexpected port/timeout: %s/%v", cfg.Port, cfg.Timeout)
		}
	})

	t.Run("InvalidFlag", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("qsag", []string{"-nope"}, io.Discard, testFamilies)
		if err == nil {
			t.Error("Expected an error for an unknown flag")
		}
	})

	t.Run("HelpFlag", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		_, err := ParseConfig("qsag", []string{"-h"}, &buf, testFamilies)
		if !errors.Is(err, flag.ErrHelp) {
			t.Errorf("Expected flag.ErrHelp, got %v", err)
		}
		if !strings.Contains(buf.String(), "-coefs") {
			t.Errorf("Usage does not list -coefs:\n%s", buf.String())
		}
	})

	t.Run("ValidationFailurePrintsUsage", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		_, err := ParseConfig("qsag", []string{"-family", "zernike"}, &buf, testFamilies)
		if err == nil {
			t.Fatal("Expected an error for an unknown family")
		}
		out := buf.String()
		if !strings.Contains(out, "Configuration error") || !strings.Contains(out, "zernike") {
			t.Errorf("Unexpected error output:\n%s", out)
		}
	})
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"QSAG_FAMILY":      "qbfs",
		"QSAG_COEFS":       "A2=0.5",
		"QSAG_SAMPLES":     "64",
		"QSAG_RHO_MAX":     "2.5",
		"QSAG_PRECISION":   "float32",
		"QSAG_TIMEOUT":     "2m",
		"QSAG_FORMAT":      "csv",
		"QSAG_OUTPUT":      "out.csv",
		"QSAG_PORT":        "3000",
		"QSAG_SERVER":      "yes",
		"QSAG_JSON":        "1",
		"QSAG_DETAILS":     "true",
		"QSAG_QUIET":       "TRUE",
		"QSAG_NO_COLOR":    "true",
		"QSAG_INTERACTIVE": "yes",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := ParseConfig("qsag", nil, io.Discard, testFamilies)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Family != "qbfs" || cfg.Coefs != "A2=0.5" {
		t.Errorf("Unexpected family/coefs: %s/%s", cfg.Family, cfg.Coefs)
	}
	if cfg.Samples != 64 || cfg.RhoMax != 2.5 || cfg.Timeout != 2*time.Minute {
		t.Errorf("Unexpected numeric overrides: %d/%v/%v", cfg.Samples, cfg.RhoMax, cfg.Timeout)
	}
	if cfg.Precision != "float32" || cfg.Format != "csv" || cfg.OutputFile != "out.csv" || cfg.Port != "3000" {
		t.Errorf("Unexpected string overrides: %+v", cfg)
	}
	if !cfg.ServerMode || !cfg.JSONOutput || !cfg.Details || !cfg.Quiet || !cfg.NoColor || !cfg.Interactive {
		t.Errorf("Unexpected boolean overrides: %+v", cfg)
	}
}

func TestParseConfig_FlagsBeatEnv(t *testing.T) {
	t.Setenv("QSAG_SAMPLES", "64")
	t.Setenv("QSAG_OUTPUT", "env.csv")
	t.Setenv("QSAG_QUIET", "true")

	cfg, err := ParseConfig("qsag", []string{"-samples", "32", "-o", "flag.csv", "-q=false"}, io.Discard, testFamilies)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Samples != 32 {
		t.Errorf("Expected flag samples 32, got %d", cfg.Samples)
	}
	if cfg.OutputFile != "flag.csv" {
		t.Errorf("Expected flag output, got %s", cfg.OutputFile)
	}
	if cfg.Quiet {
		t.Error("Expected -q=false to win over QSAG_QUIET")
	}
}

func TestParseConfig_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("QSAG_SAMPLES", "many")
	t.Setenv("QSAG_TIMEOUT", "soon")
	t.Setenv("QSAG_JSON", "maybe")

	cfg, err := ParseConfig("qsag", nil, io.Discard, testFamilies)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Samples != DefaultSamples || cfg.Timeout != DefaultTimeout || cfg.JSONOutput {
		t.Errorf("Invalid env values were not ignored: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"single family", func(c *AppConfig) { c.Family = "qbfs" }, ""},
		{"zero timeout", func(c *AppConfig) { c.Timeout = 0 }, "timeout"},
		{"zero samples", func(c *AppConfig) { c.Samples = 0 }, "sample count"},
		{"negative radius", func(c *AppConfig) { c.RhoMax = -1 }, "pupil radius"},
		{"NaN radius", func(c *AppConfig) { c.RhoMax = math.NaN() }, "pupil radius"},
		{"bad precision", func(c *AppConfig) { c.Precision = "float16" }, "precision"},
		{"bad format", func(c *AppConfig) { c.Format = "bmp" }, "format"},
		{"bad family", func(c *AppConfig) { c.Family = "zernike" }, "family"},
		{"bad coefs", func(c *AppConfig) { c.Coefs = "A-1=2" }, "non-negative"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(testFamilies)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected an error containing %q", tt.wantErr)
			}
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseCoefficients(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    map[int]float64
		wantErr bool
	}{
		{"A0=1,A4=0.3", map[int]float64{0: 1, 4: 0.3}, false},
		{" a2 = -1e-3 , 7=2 ", map[int]float64{2: -1e-3, 7: 2}, false},
		{"", map[int]float64{}, false},
		{"A0=1,,", map[int]float64{0: 1}, false},
		{"A0", nil, true},
		{"B0=1", nil, true},
		{"A-2=1", nil, true},
		{"A1=x", nil, true},
		{"A1=NaN", nil, true},
		{"A1=Inf", nil, true},
		{"A1=1,A1=2", nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCoefficients(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected an error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Got %v, want %v", got, tt.want)
			}
			for n, w := range tt.want {
				if got[n] != w {
					t.Errorf("A%d = %v, want %v", n, got[n], w)
				}
			}
		})
	}
}

func TestToRequestAndFamilies(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Coefs = "A3=0.25"
	cfg.Samples = 48

	req, err := cfg.ToRequest()
	if err != nil {
		t.Fatal(err)
	}
	if req.Samples != 48 || req.RhoMax != DefaultRhoMax || req.Coefs[3] != 0.25 {
		t.Errorf("Unexpected request: %+v", req)
	}

	if got := cfg.Families(testFamilies); len(got) != 2 {
		t.Errorf("Families(all) = %v", got)
	}
	cfg.Family = "qcon"
	if got := cfg.Families(testFamilies); len(got) != 1 || got[0] != "qcon" {
		t.Errorf("Families(qcon) = %v", got)
	}

	cfg.Coefs = "junk"
	if _, err := cfg.ToRequest(); err == nil {
		t.Error("Expected an error for malformed coefficients")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("QSAG_TEST_FLOAT", "0.75")
	t.Setenv("QSAG_TEST_BAD_FLOAT", "abc")
	t.Setenv("QSAG_TEST_BOOL", "no")

	if got := getEnvFloat("TEST_FLOAT", 1); got != 0.75 {
		t.Errorf("getEnvFloat = %v, want 0.75", got)
	}
	if got := getEnvFloat("TEST_BAD_FLOAT", 1); got != 1 {
		t.Errorf("getEnvFloat with bad value = %v, want default", got)
	}
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Error("getEnvBool(no) = true")
	}
	if got := getEnvString("TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnvString = %q, want fallback", got)
	}
}
