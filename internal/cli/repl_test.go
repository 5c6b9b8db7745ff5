package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/service"
	"github.com/agbru/qsag/internal/service/mocks"
	"github.com/agbru/qsag/internal/testutil"
)

func newTestREPL(t *testing.T, cfg REPLConfig) (*REPL, *mocks.MockService, *bytes.Buffer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Families().Return([]string{"qbfs", "qcon"}).AnyTimes()

	repl := NewREPL(svc, cfg)
	var out bytes.Buffer
	repl.SetOutput(&out)
	return repl, svc, &out
}

func TestNewREPL_Defaults(t *testing.T) {
	t.Parallel()
	coefs := qpoly.Coefficients{4: 0.3}
	repl, _, _ := newTestREPL(t, REPLConfig{Family: "all", Coefs: coefs})

	if repl.family != "qbfs" {
		t.Errorf("family = %q, want qbfs", repl.family)
	}
	if repl.config.Samples != qpoly.DefaultSamples || repl.config.RhoMax != qpoly.DefaultRhoMax {
		t.Errorf("unexpected grid defaults %+v", repl.config)
	}
	if repl.config.Timeout <= 0 {
		t.Error("timeout should default to a positive value")
	}
	repl.coefs[6] = 1
	if _, ok := coefs[6]; ok {
		t.Error("REPL must copy the initial coefficients")
	}
}

func TestREPL_ProcessCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
		check    func(*testing.T, *REPL)
	}{
		{name: "family", input: "family qcon", expected: "Family changed to: qcon",
			check: func(t *testing.T, r *REPL) {
				if r.family != "qcon" {
					t.Errorf("family = %q", r.family)
				}
			}},
		{name: "family unknown", input: "f zernike", expected: "Unknown family: zernike"},
		{name: "family usage", input: "family", expected: "Usage: family <name>"},
		{name: "set", input: "set A4=0.3, A6=-1", expected: "Coefficients: A0=1,A4=0.3,A6=-1"},
		{name: "set shorthand", input: "A0=0", expected: "Coefficients: (none)",
			check: func(t *testing.T, r *REPL) {
				if len(r.coefs) != 0 {
					t.Errorf("coefs = %v", r.coefs)
				}
			}},
		{name: "set invalid", input: "set B4=1", expected: "Invalid coefficients"},
		{name: "set usage", input: "s", expected: "Usage: set"},
		{name: "reset", input: "reset", expected: "Coefficients cleared."},
		{name: "samples", input: "samples 33", expected: "Samples set to: 33",
			check: func(t *testing.T, r *REPL) {
				if r.config.Samples != 33 {
					t.Errorf("samples = %d", r.config.Samples)
				}
			}},
		{name: "samples invalid", input: "samples -2", expected: "Invalid sample count: -2"},
		{name: "rho", input: "rho 2.5", expected: "Pupil radius set to: 2.5"},
		{name: "rho invalid", input: "rho NaN", expected: "Invalid pupil radius: NaN"},
		{name: "list", input: "ls", expected: "► qbfs"},
		{name: "status", input: "status", expected: "Coefficients:  A0=1"},
		{name: "help", input: "?", expected: "Available commands:"},
		{name: "unknown", input: "frobnicate", expected: "Unknown command: frobnicate"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repl, _, out := newTestREPL(t, REPLConfig{Family: "qbfs", Coefs: qpoly.Coefficients{0: 1}})
			if !repl.processCommand(tt.input) {
				t.Fatal("command should not end the session")
			}
			got := testutil.StripAnsiCodes(out.String())
			if !strings.Contains(got, tt.expected) {
				t.Errorf("output %q lacks %q", got, tt.expected)
			}
			if tt.check != nil {
				tt.check(t, repl)
			}
		})
	}
}

func TestREPL_Build(t *testing.T) {
	t.Parallel()
	repl, svc, out := newTestREPL(t, REPLConfig{Family: "qcon", Coefs: qpoly.Coefficients{0: 1}, Samples: 9, RhoMax: 2})

	want := qpoly.Request{Coefs: qpoly.Coefficients{0: 1}, Samples: 9, RhoMax: 2}
	svc.EXPECT().Build(gomock.Any(), "qcon", want).Return(&service.Result{
		Family:   "qcon",
		Stats:    qpoly.SagStats{PV: 0.25, RMS: 0.1, Points: 69},
		Duration: time.Millisecond,
	}, nil)
	svc.EXPECT().Build(gomock.Any(), "qcon", want).Return(nil, context.DeadlineExceeded)

	repl.processCommand("build")
	got := testutil.StripAnsiCodes(out.String())
	if !strings.Contains(got, "--- qcon sag map ---") || !strings.Contains(got, "Peak to valley : 0.25") {
		t.Errorf("unexpected build output %q", got)
	}

	out.Reset()
	repl.processCommand("b")
	if got := testutil.StripAnsiCodes(out.String()); !strings.Contains(got, "Error: context deadline exceeded") {
		t.Errorf("unexpected error output %q", got)
	}
}

func TestREPL_Compare(t *testing.T) {
	t.Parallel()
	repl, svc, out := newTestREPL(t, REPLConfig{Family: "qbfs", Coefs: qpoly.Coefficients{4: 1}})

	svc.EXPECT().Build(gomock.Any(), "qbfs", gomock.Any()).Return(&service.Result{
		Family: "qbfs",
		Stats:  qpoly.SagStats{PV: 2, RMS: 0.5},
	}, nil)
	svc.EXPECT().Build(gomock.Any(), "qcon", gomock.Any()).Return(nil, errors.New("boom"))

	repl.processCommand("compare")
	got := testutil.StripAnsiCodes(out.String())
	if !strings.Contains(got, "Comparison for A4=1") {
		t.Errorf("missing header in %q", got)
	}
	if !strings.Contains(got, "qbfs  : PV") || !strings.Contains(got, "qcon  : Error - boom") {
		t.Errorf("unexpected comparison %q", got)
	}
}

func TestREPL_CacheCommands(t *testing.T) {
	t.Parallel()
	repl, svc, out := newTestREPL(t, REPLConfig{})

	svc.EXPECT().CacheStats().Return([]qpoly.CacheStats{{Family: "qbfs", Hits: 3, Misses: 1}})
	svc.EXPECT().ClearCaches()

	repl.processCommand("cache")
	if !strings.Contains(out.String(), "qbfs") {
		t.Errorf("cache output %q", out.String())
	}
	repl.processCommand("clear")
	if !strings.Contains(out.String(), "Caches cleared.") {
		t.Errorf("clear output %q", out.String())
	}
}

func TestREPL_Start(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"exit", "family qcon\nexit\nstatus\n", "Goodbye!"},
		{"eof", "samples 5", "Samples set to: 5"},
		{"empty lines", "\n\n  \nquit\n", "Goodbye!"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repl, _, out := newTestREPL(t, REPLConfig{})
			repl.SetInput(strings.NewReader(tt.input))
			repl.Start()

			got := testutil.StripAnsiCodes(out.String())
			if !strings.Contains(got, "Interactive Mode") || !strings.Contains(got, "qsag> ") {
				t.Errorf("missing banner or prompt in %q", got)
			}
			if !strings.Contains(got, tt.expected) {
				t.Errorf("output %q lacks %q", got, tt.expected)
			}
			if strings.Contains(got, "Current surface") {
				t.Error("commands after exit must not run")
			}
		})
	}
}

func TestFormatCoefs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		coefs    qpoly.Coefficients
		expected string
	}{
		{nil, "(none)"},
		{qpoly.Coefficients{0: 1}, "A0=1"},
		{qpoly.Coefficients{10: 1e-5, 2: -0.5}, "A2=-0.5,A10=1e-05"},
	}
	for _, tt := range tests {
		if got := formatCoefs(tt.coefs); got != tt.expected {
			t.Errorf("formatCoefs(%v) = %q, want %q", tt.coefs, got, tt.expected)
		}
	}
}
