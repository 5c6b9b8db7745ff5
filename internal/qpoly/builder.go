package qpoly

import (
	"context"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/agbru/qsag/internal/errors"
)

var (
	buildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsag_builds_total",
			Help: "Sag builds by family and status",
		},
		[]string{"family", "status"},
	)
	buildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "qsag_build_duration_seconds",
			Help: "Duration of sag builds in seconds",
		},
		[]string{"family"},
	)
)

// Request describes one sag map.
type Request struct {
	Coefs   Coefficients
	Samples int
	RhoMax  float64
}

// CacheFootprint returns an upper bound on the bytes a build of r adds to a
// cold cache: one grid plus a P and a Q term for every order up to the highest
// nonzero weight. It saturates at math.MaxInt64.
func (r Request) CacheFootprint() int64 {
	if r.Samples <= 0 {
		return 0
	}
	arrays := 1 + 2*(float64(r.Coefs.MaxOrder())+1)
	bytes := arrays * float64(r.Samples) * float64(r.Samples) * 8
	if bytes >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(bytes)
}

// SagBuilder wraps a Basis with the cross-cutting concerns of a build:
// metrics, a debug log line, progress notification and error wrapping.
type SagBuilder struct {
	basis Basis
}

// NewSagBuilder creates a builder over basis. It panics if basis is nil.
func NewSagBuilder(basis Basis) *SagBuilder {
	if basis == nil {
		panic("qpoly: the `Basis` implementation cannot be nil")
	}
	return &SagBuilder{basis: basis}
}

// Name returns the family name of the underlying basis.
func (b *SagBuilder) Name() string { return b.basis.Name() }

// Basis returns the wrapped basis.
func (b *SagBuilder) Basis() Basis { return b.basis }

// Build computes the sag map for req.
//
// Parameters:
//   - ctx: The context carrying tracing state.
//   - subject: Progress observers; nil disables progress reporting.
//   - buildIndex: The identifier passed to observers.
//   - req: The surface to build.
//
// Returns:
//   - *mat.Dense: The sag map.
//   - error: An apperrors.ComputationError wrapping the cause on failure.
func (b *SagBuilder) Build(ctx context.Context, subject *ProgressSubject, buildIndex int, req Request) (sag *mat.Dense, err error) {
	family := b.basis.Name()
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
		}
		buildsTotal.WithLabelValues(family, status).Inc()
		buildDuration.WithLabelValues(family).Observe(duration)

		log.Debug().
			Str("family", family).
			Int("samples", req.Samples).
			Float64("rho_max", req.RhoMax).
			Int("terms", req.Coefs.Active()).
			Int("cache_bytes", b.basis.ByteSize()).
			Float64("duration", duration).
			Str("status", status).
			Msg("sag build completed")
	}()

	var reporter ProgressReporter
	if subject != nil {
		reporter = subject.AsProgressReporter(buildIndex)
	}

	sag, err = BuildSag(ctx, b.basis, req.Coefs, req.Samples, req.RhoMax, reporter)
	if err != nil {
		return nil, apperrors.ComputationError{Family: family, Cause: err}
	}
	if reporter != nil {
		reporter(1.0)
	}
	return sag, nil
}
