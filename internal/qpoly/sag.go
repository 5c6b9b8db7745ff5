package qpoly

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/agbru/qsag/internal/errors"
)

// ProgressReporter receives the fraction of nonzero terms accumulated so far.
type ProgressReporter func(progress float64)

// BuildSag forms the sag map Σ coef(n)·Q(n) over the basis grid and applies
// the rho²(1 − rho²) window.
//
// Orders are summed in ascending order whatever the map iteration order, so a
// given coefficient set always produces bit-identical output. Orders whose
// weight is exactly zero are skipped before the basis is consulted.
//
// Parameters:
//   - ctx: Carries the tracing span only; the computation is not interruptible.
//   - basis: The polynomial family.
//   - coefs: The order → weight mapping.
//   - samples: The grid size along each axis.
//   - rhoMax: The pupil radius.
//   - reporter: Optional progress callback, may be nil.
//
// Returns:
//   - *mat.Dense: A new samples×samples sag map.
//   - error: An apperrors input error for invalid orders or sampling.
func BuildSag(ctx context.Context, basis Basis, coefs Coefficients, samples int, rhoMax float64, reporter ProgressReporter) (*mat.Dense, error) {
	_, span := otel.Tracer("qpoly").Start(ctx, "BuildSag")
	defer span.End()
	span.SetAttributes(
		attribute.String("family", basis.Name()),
		attribute.Int("samples", samples),
		attribute.Float64("rho_max", rhoMax),
		attribute.Int("terms", coefs.Active()),
	)

	if err := validateGrid(samples, rhoMax); err != nil {
		return nil, err
	}
	for n, v := range coefs {
		if n < 0 && v != 0 {
			return nil, apperrors.InvalidOrderError{Order: n}
		}
	}
	if reporter == nil {
		reporter = func(float64) {}
	}

	phase := mat.NewDense(samples, samples, nil)
	var scaled mat.Dense
	active := coefs.Active()
	done := 0
	for _, n := range coefs.Orders() {
		coef := coefs[n]
		if coef == 0 {
			continue
		}
		term, err := basis.Evaluate(n, samples, rhoMax)
		if err != nil {
			return nil, err
		}
		scaled.Scale(coef, term)
		phase.Add(phase, &scaled)
		done++
		reporter(float64(done) / float64(active))
	}

	window, err := basis.Window(samples, rhoMax)
	if err != nil {
		return nil, err
	}
	phase.MulElem(phase, window)
	return phase, nil
}

// Surface is a Q-polynomial surface description and, once built, its sag map.
type Surface struct {
	// Coefs maps order to weight.
	Coefs Coefficients
	// Samples is the grid size along each axis.
	Samples int
	// RhoMax is the pupil radius.
	RhoMax float64
	// Phase holds the sag map after Build.
	Phase *mat.Dense
}

// Build computes Phase from the surface coefficients using basis.
func (s *Surface) Build(ctx context.Context, basis Basis) error {
	phase, err := BuildSag(ctx, basis, s.Coefs, s.Samples, s.RhoMax, nil)
	if err != nil {
		return err
	}
	s.Phase = phase
	return nil
}
