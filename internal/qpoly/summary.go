package qpoly

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SagStats summarises a sag map over the samples inside the unit pupil.
type SagStats struct {
	Min  float64
	Max  float64
	PV   float64 // peak to valley, Max − Min
	Mean float64
	RMS  float64 // root mean square about zero
	// Points is the number of samples with rho ≤ 1.
	Points int
}

// Summarize computes SagStats for sag over the samples where window is
// non-negative, that is where rho² ≤ 1. The corners of the square grid
// outside the unit circle are excluded. A map with no such sample yields the
// zero SagStats.
func Summarize(sag, window *mat.Dense) SagStats {
	r, c := sag.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if window.At(i, j) >= 0 {
				values = append(values, sag.At(i, j))
			}
		}
	}
	if len(values) == 0 {
		return SagStats{}
	}

	n := float64(len(values))
	lo, hi := floats.Min(values), floats.Max(values)
	return SagStats{
		Min:    lo,
		Max:    hi,
		PV:     hi - lo,
		Mean:   floats.Sum(values) / n,
		RMS:    math.Sqrt(floats.Dot(values, values) / n),
		Points: len(values),
	}
}
