// Package pupil samples the square region enclosing a circular pupil and
// returns the polar coordinates of every sample. The Q-polynomial caches
// consume only the radial component.
package pupil

//go:generate mockgen -source=grid.go -destination=mocks/mock_grid.go -package=mocks

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Alignment selects which array axis carries the polar x axis.
type Alignment int

const (
	// AlignX measures phi from the column (x) axis.
	AlignX Alignment = iota
	// AlignY measures phi from the row (y) axis; this is the convention the
	// polynomial caches use.
	AlignY
)

// GridProvider produces polar sampling grids.
type GridProvider interface {
	// RhoPhi returns samples×samples matrices of radius and azimuth for a
	// square grid spanning [-radius, radius] on both axes.
	RhoPhi(samples int, aligned Alignment, radius float64) (rho, phi *mat.Dense)
}

// Cartesian is the default GridProvider: evenly spaced samples including both
// end points, as with a linspace/meshgrid pair.
type Cartesian struct{}

// NewCartesian returns the default grid provider.
func NewCartesian() Cartesian { return Cartesian{} }

// RhoPhi implements GridProvider.
func (Cartesian) RhoPhi(samples int, aligned Alignment, radius float64) (rho, phi *mat.Dense) {
	axis := Linspace(-radius, radius, samples)

	rho = mat.NewDense(samples, samples, nil)
	phi = mat.NewDense(samples, samples, nil)
	for i := 0; i < samples; i++ {
		for j := 0; j < samples; j++ {
			x, y := axis[j], axis[i]
			if aligned == AlignY {
				x, y = y, x
			}
			rho.Set(i, j, math.Hypot(x, y))
			phi.Set(i, j, math.Atan2(y, x))
		}
	}
	return rho, phi
}

// Linspace returns n evenly spaced values over [lo, hi]. A single sample sits
// at lo, matching the usual linspace convention.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	return floats.Span(out, lo, hi)
}
