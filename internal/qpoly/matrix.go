package qpoly

import (
	"gonum.org/v1/gonum/mat"
)

// filled returns an r×c matrix with every element set to v.
func filled(r, c int, v float64) *mat.Dense {
	data := make([]float64, r*c)
	if v != 0 {
		for i := range data {
			data[i] = v
		}
	}
	return mat.NewDense(r, c, data)
}

// filledLike returns a matrix shaped like x with every element set to v.
func filledLike(x mat.Matrix, v float64) *mat.Dense {
	r, c := x.Dims()
	return filled(r, c, v)
}

// affine returns alpha·x + beta elementwise.
func affine(x mat.Matrix, alpha, beta float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return alpha*v + beta }, x)
	return &out
}

// denseBytes is the storage footprint of m's elements.
func denseBytes(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	r, c := m.Dims()
	return r * c * 8
}
