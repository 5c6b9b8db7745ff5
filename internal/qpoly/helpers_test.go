package qpoly

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
)

// testGrid returns a 1×len(values) matrix.
func testGrid(values ...float64) *mat.Dense {
	return mat.NewDense(1, len(values), values)
}

func newTestQbfs(t *testing.T) *QbfsCache {
	t.Helper()
	return NewQbfsCache(pupil.NewCartesian(), numconf.New())
}

func newTestQcon(t *testing.T) *QconCache {
	t.Helper()
	return NewQconCache(pupil.NewCartesian(), numconf.New())
}

// assertClose fails when any element of got differs from want by more than tol.
func assertClose(t *testing.T, name string, got, want mat.Matrix, tol float64) {
	t.Helper()
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	if gr != wr || gc != wc {
		t.Fatalf("%s: dims %dx%d, want %dx%d", name, gr, gc, wr, wc)
	}
	for i := 0; i < gr; i++ {
		for j := 0; j < gc; j++ {
			g, w := got.At(i, j), want.At(i, j)
			if math.Abs(g-w) > tol*math.Max(1, math.Abs(w)) {
				t.Fatalf("%s: at (%d,%d) got %.17g, want %.17g", name, i, j, g, w)
			}
		}
	}
}

// assertIdentical fails unless got and want are bit-identical.
func assertIdentical(t *testing.T, name string, got, want mat.Matrix) {
	t.Helper()
	if !mat.Equal(got, want) {
		t.Fatalf("%s: matrices differ", name)
	}
}
