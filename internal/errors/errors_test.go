// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 0, "--samples"),
			expected: "invalid value 0 for flag --samples",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			var configErr ConfigError
			if !errors.As(tt.err, &configErr) {
				t.Error("expected error to be ConfigError type")
			}
		})
	}
}

func TestComputationError(t *testing.T) {
	t.Parallel()

	t.Run("Error prefixes the family", func(t *testing.T) {
		t.Parallel()
		err := ComputationError{Family: "qcon", Cause: errors.New("dimension mismatch")}
		if err.Error() != "qcon: dimension mismatch" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Error without family returns cause message", func(t *testing.T) {
		t.Parallel()
		err := ComputationError{Cause: errors.New("boom")}
		if err.Error() != "boom" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("errors.Is reaches the cause", func(t *testing.T) {
		t.Parallel()
		err := ComputationError{Family: "qbfs", Cause: context.Canceled}
		if !errors.Is(err, context.Canceled) {
			t.Error("expected errors.Is to find context.Canceled")
		}
	})
}

func TestInvalidInputErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Order", InvalidOrderError{Order: -1}, "invalid polynomial order -1: must be non-negative"},
		{"Samples", InvalidSampleCountError{Samples: 0}, "invalid sample count 0: must be strictly positive"},
		{"Radius", InvalidRadiusError{RhoMax: math.Inf(1)}, "invalid pupil radius +Inf: must be finite and strictly positive"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("expected errors.Is(err, ErrInvalidInput)")
			}
			wrapped := fmt.Errorf("building sag: %w", ComputationError{Family: "qbfs", Cause: tt.err})
			if !errors.Is(wrapped, ErrInvalidInput) {
				t.Error("expected wrapped error to match ErrInvalidInput")
			}
		})
	}

	var orderErr InvalidOrderError
	if !errors.As(ComputationError{Cause: InvalidOrderError{Order: -3}}, &orderErr) || orderErr.Order != -3 {
		t.Errorf("errors.As failed to extract InvalidOrderError, got %+v", orderErr)
	}
}

func TestServerError(t *testing.T) {
	t.Parallel()
	cause := errors.New("address already in use")
	err := NewServerError("server failed to start", cause)
	if err.Error() != "server failed to start: address already in use" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find cause")
	}
	if NewServerError("stopped", nil).Error() != "stopped" {
		t.Error("expected message without cause")
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	if got := NewValidationError("samples", "must be positive", -1).Error(); got != "validation error for 'samples': must be positive" {
		t.Errorf("unexpected message %q", got)
	}
	if got := NewValidationError("", "empty body", nil).Error(); got != "validation error: empty body" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}
	base := errors.New("base")
	wrapped := WrapError(base, "order %d", 4)
	if wrapped.Error() != "order 4: base" {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	if !IsContextError(context.Canceled) || !IsContextError(fmt.Errorf("x: %w", context.DeadlineExceeded)) {
		t.Error("expected context errors to be detected")
	}
	if IsContextError(errors.New("other")) {
		t.Error("unexpected context error detection")
	}
}

func TestExitCodes(t *testing.T) {
	t.Parallel()
	codes := map[string]int{
		"success":  ExitSuccess,
		"generic":  ExitErrorGeneric,
		"timeout":  ExitErrorTimeout,
		"config":   ExitErrorConfig,
		"canceled": ExitErrorCanceled,
	}
	seen := make(map[int]string)
	for name, code := range codes {
		if other, ok := seen[code]; ok {
			t.Errorf("exit code %d shared by %s and %s", code, name, other)
		}
		seen[code] = name
	}
}
