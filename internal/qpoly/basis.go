package qpoly

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Family names accepted by the registry and the command line.
const (
	FamilyQbfs = "qbfs"
	FamilyQcon = "qcon"
)

// Default sampling of a sag map.
const (
	DefaultSamples = 128
	DefaultRhoMax  = 1.0
)

// Basis is the capability shared by the polynomial families: evaluated terms
// and the window derived from the family grid. QbfsCache and QconCache
// implement it.
//
// Matrices returned by a Basis are owned by its cache and must not be
// modified by callers.
type Basis interface {
	// Name returns the family name ("qbfs" or "qcon").
	Name() string
	// Evaluate returns the term of the given order over a samples×samples grid.
	Evaluate(order, samples int, rhoMax float64) (*mat.Dense, error)
	// Grid returns the family coordinate grid.
	Grid(samples int, rhoMax float64) (*mat.Dense, error)
	// Window returns rho²(1 − rho²) over the grid.
	Window(samples int, rhoMax float64) (*mat.Dense, error)
	// Clear empties every store.
	Clear()
	// ByteSize returns the storage held by cached arrays.
	ByteSize() int
	// Stats returns a snapshot of the cache counters.
	Stats() CacheStats
}

var (
	_ Basis = (*QbfsCache)(nil)
	_ Basis = (*QconCache)(nil)
)

// Coefficients maps a polynomial order to its weight. Iteration order of the
// map is irrelevant: builders always walk Orders().
type Coefficients map[int]float64

// Orders returns the keys in ascending order.
func (c Coefficients) Orders() []int {
	orders := make([]int, 0, len(c))
	for n := range c {
		orders = append(orders, n)
	}
	sort.Ints(orders)
	return orders
}

// MaxOrder returns the highest order with a nonzero weight, or -1 when every
// weight is zero.
func (c Coefficients) MaxOrder() int {
	max := -1
	for n, v := range c {
		if v != 0 && n > max {
			max = n
		}
	}
	return max
}

// Active returns the number of nonzero weights.
func (c Coefficients) Active() int {
	active := 0
	for _, v := range c {
		if v != 0 {
			active++
		}
	}
	return active
}
