package qpoly

import (
	"context"
	"errors"
	"math"
	"testing"

	apperrors "github.com/agbru/qsag/internal/errors"
)

func TestNewSagBuilder_NilPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("NewSagBuilder(nil) did not panic")
		}
	}()
	NewSagBuilder(nil)
}

func TestSagBuilder_Build(t *testing.T) {
	t.Parallel()
	basis := newTestQcon(t)
	b := NewSagBuilder(basis)
	if b.Name() != FamilyQcon {
		t.Errorf("Name() = %q, want %q", b.Name(), FamilyQcon)
	}
	if b.Basis() != Basis(basis) {
		t.Error("Basis() returned a different basis")
	}

	subject := NewProgressSubject()
	obs := newRecordingObserver()
	subject.Register(obs)

	req := Request{Coefs: Coefficients{0: 1, 4: 0.25}, Samples: 10, RhoMax: 1}
	sag, err := b.Build(context.Background(), subject, 3, req)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want, _ := BuildSag(context.Background(), basis, req.Coefs, req.Samples, req.RhoMax, nil)
	assertIdentical(t, "builder sag", sag, want)

	updates := obs.snapshot()
	if len(updates) == 0 {
		t.Fatal("no progress updates")
	}
	last := updates[len(updates)-1]
	if last.BuildIndex != 3 || last.Value != 1 {
		t.Errorf("last update = %+v, want index 3 value 1", last)
	}
}

func TestSagBuilder_NilSubject(t *testing.T) {
	t.Parallel()
	b := NewSagBuilder(newTestQbfs(t))
	if _, err := b.Build(context.Background(), nil, 0, Request{Coefs: Coefficients{2: 1}, Samples: 4, RhoMax: 1}); err != nil {
		t.Fatal(err)
	}
}

func TestSagBuilder_WrapsErrors(t *testing.T) {
	t.Parallel()
	b := NewSagBuilder(newTestQbfs(t))
	_, err := b.Build(context.Background(), nil, 0, Request{Coefs: Coefficients{0: 1}, Samples: 0, RhoMax: 1})
	if err == nil {
		t.Fatal("expected an error")
	}

	var compErr apperrors.ComputationError
	if !errors.As(err, &compErr) {
		t.Fatalf("error %T is not a ComputationError", err)
	}
	if compErr.Family != FamilyQbfs {
		t.Errorf("Family = %q, want %q", compErr.Family, FamilyQbfs)
	}
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Error("wrapped error no longer matches ErrInvalidInput")
	}
}

func TestRequest_CacheFootprint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
		want int64
	}{
		{"order 3", Request{Coefs: Coefficients{3: 1}, Samples: 9, RhoMax: 1}, 9 * 81 * 8},
		{"zero weights only need the grid", Request{Coefs: Coefficients{5: 0}, Samples: 4, RhoMax: 1}, 16 * 8},
		{"no samples", Request{Coefs: Coefficients{1: 1}, Samples: 0, RhoMax: 1}, 0},
		{"saturates", Request{Coefs: Coefficients{1 << 40: 1}, Samples: 1 << 20, RhoMax: 1}, math.MaxInt64},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.req.CacheFootprint(); got != tt.want {
				t.Errorf("CacheFootprint() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequest_CacheFootprintBoundsBuild(t *testing.T) {
	t.Parallel()
	req := Request{Coefs: Coefficients{0: 1, 6: 0.2}, Samples: 12, RhoMax: 1.5}

	qbfs := newTestQbfs(t)
	if _, err := NewSagBuilder(qbfs).Build(context.Background(), nil, 0, req); err != nil {
		t.Fatal(err)
	}
	if got := int64(qbfs.ByteSize()); got != req.CacheFootprint() {
		t.Errorf("qbfs ByteSize = %d, want %d", got, req.CacheFootprint())
	}

	qcon := newTestQcon(t)
	if _, err := NewSagBuilder(qcon).Build(context.Background(), nil, 0, req); err != nil {
		t.Fatal(err)
	}
	if got := int64(qcon.ByteSize()); got > req.CacheFootprint() {
		t.Errorf("qcon ByteSize = %d, above footprint %d", got, req.CacheFootprint())
	}
}
