package qpoly

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRecurrenceQcon_BaseCases(t *testing.T) {
	t.Parallel()
	tg := testGrid(-1, 0, 0.2, 1)
	assertIdentical(t, "Q0", RecurrenceQcon(0, tg, QconTerms{}), testGrid(1, 1, 1, 1))
	assertClose(t, "Q1", RecurrenceQcon(1, tg, QconTerms{}), testGrid(-5, -2, -1.4, 1), 1e-15)
}

func TestRecurrenceQcon_KnownValues(t *testing.T) {
	t.Parallel()
	tg := testGrid(0.2)
	want := []float64{1, -1.4, -0.12, 1, 0.232, -0.78048, -0.399552}
	for n, w := range want {
		got := RecurrenceQcon(n, tg, QconTerms{}).At(0, 0)
		if math.Abs(got-w) > 1e-13 {
			t.Errorf("Qcon%d(0.2) = %.17g, want %v", n, got, w)
		}
	}
}

// TestRecurrenceQcon_Endpoints uses the closed forms P_n^(0,4)(1) = 1 and
// P_n^(0,4)(−1) = (−1)^n·C(n+4, 4).
func TestRecurrenceQcon_Endpoints(t *testing.T) {
	t.Parallel()
	tg := testGrid(1, -1)
	for n := 0; n <= 12; n++ {
		q := RecurrenceQcon(n, tg, QconTerms{})
		binom := float64((n + 1) * (n + 2) * (n + 3) * (n + 4) / 24)
		if n%2 == 1 {
			binom = -binom
		}
		if math.Abs(q.At(0, 0)-1) > 1e-12 {
			t.Errorf("Qcon%d(1) = %v, want 1", n, q.At(0, 0))
		}
		if math.Abs(q.At(0, 1)-binom) > 1e-9*math.Abs(binom) {
			t.Errorf("Qcon%d(-1) = %v, want %v", n, q.At(0, 1), binom)
		}
	}
}

func TestRecurrenceQcon_MatchesJacobi(t *testing.T) {
	t.Parallel()
	tg := testGrid(-1, -0.6, -0.1, 0.3, 0.77, 1)
	for n := 0; n <= 30; n++ {
		assertClose(t, "Qcon vs Jacobi", RecurrenceQcon(n, tg, QconTerms{}), QconJacobi(n, tg, JacobiTerms{}), 1e-10)
	}
}

func TestRecurrenceQcon_ChainedMatchesDirect(t *testing.T) {
	t.Parallel()
	tg := testGrid(-0.9, 0, 0.4, 0.95)
	qs := []*mat.Dense{RecurrenceQcon(0, tg, QconTerms{}), RecurrenceQcon(1, tg, QconTerms{})}
	for n := 2; n <= 15; n++ {
		chained := RecurrenceQcon(n, tg, QconTerms{Qnm1: qs[n-1], Qnm2: qs[n-2]})
		assertClose(t, "Qcon chained", chained, RecurrenceQcon(n, tg, QconTerms{}), 1e-12)
		qs = append(qs, chained)
	}
}

func TestJacobiP_Legendre(t *testing.T) {
	t.Parallel()
	// P_n^(0,0) are the Legendre polynomials.
	tg := testGrid(-0.5, 0.3, 1)
	legendre3 := func(x float64) float64 { return (5*x*x*x - 3*x) / 2 }
	got := JacobiP(3, 0, 0, tg, JacobiTerms{})
	want := testGrid(legendre3(-0.5), legendre3(0.3), legendre3(1))
	assertClose(t, "Legendre P3", got, want, 1e-14)
}

func TestJacobiP_ChainedMatchesDirect(t *testing.T) {
	t.Parallel()
	tg := testGrid(-1, -0.25, 0.5, 1)
	pnm2 := JacobiP(0, 0, 4, tg, JacobiTerms{})
	pnm1 := JacobiP(1, 0, 4, tg, JacobiTerms{})
	for n := 2; n <= 12; n++ {
		chained := JacobiP(n, 0, 4, tg, JacobiTerms{Pnm1: pnm1, Pnm2: pnm2})
		assertClose(t, "Jacobi chained", chained, JacobiP(n, 0, 4, tg, JacobiTerms{}), 1e-12)
		pnm2, pnm1 = pnm1, chained
	}
}
