package qpoly

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// PTerms carries optional precomputed inputs of RecurrenceP. Nil fields are
// computed on demand.
type PTerms struct {
	// Pnm1 is P(n−1).
	Pnm1 *mat.Dense
	// Pnm2 is P(n−2).
	Pnm2 *mat.Dense
	// Coef is the recursion coefficient 2 − 4x.
	Coef *mat.Dense
}

// QTerms carries optional precomputed inputs of RecurrenceQ. Nil fields are
// computed on demand.
type QTerms struct {
	Pn   *mat.Dense
	Pnm1 *mat.Dense
	Pnm2 *mat.Dense
	Qnm1 *mat.Dense
	Qnm2 *mat.Dense
	// Coef is the P recursion coefficient 2 − 4x.
	Coef *mat.Dense
}

// PCoef returns the P recursion coefficient 2 − 4x.
func PCoef(x mat.Matrix) *mat.Dense {
	return affine(x, -4, 2)
}

// RecurrenceP evaluates the auxiliary polynomial P(n) over x
// (oe-18-19-19700 eq. 2.6):
//
//	P(0) = 2
//	P(1) = 6 − 8x
//	P(n) = (2 − 4x)·P(n−1) − P(n−2)
//
// Terms not supplied in `in` are produced by an iterative bottom-up pass; no
// result is memoised here. Supplied terms must have the shape of x.
//
// Parameters:
//   - n: The order, n ≥ 0.
//   - x: The coordinate u = rho².
//   - in: Optional precomputed lower-order terms.
//
// Returns:
//   - *mat.Dense: A newly allocated matrix shaped like x.
func RecurrenceP(n int, x *mat.Dense, in PTerms) *mat.Dense {
	switch n {
	case 0:
		return filledLike(x, 2)
	case 1:
		return affine(x, -8, 6)
	}

	coef := in.Coef
	if coef == nil {
		coef = PCoef(x)
	}
	pnm1, pnm2 := in.Pnm1, in.Pnm2
	if pnm1 == nil || pnm2 == nil {
		seq := pSequence(n-1, x, coef)
		if pnm1 == nil {
			pnm1 = seq[n-1]
		}
		if pnm2 == nil {
			pnm2 = seq[n-2]
		}
	}
	return stepP(coef, pnm1, pnm2)
}

// stepP returns coef∘pnm1 − pnm2.
func stepP(coef, pnm1, pnm2 *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.MulElem(coef, pnm1)
	out.Sub(&out, pnm2)
	return &out
}

// pSequence returns P(0)…P(m) computed iteratively.
func pSequence(m int, x, coef *mat.Dense) []*mat.Dense {
	seq := make([]*mat.Dense, 0, m+1)
	for k := 0; k <= m; k++ {
		if k < 2 {
			seq = append(seq, RecurrenceP(k, x, PTerms{}))
			continue
		}
		seq = append(seq, stepP(coef, seq[k-1], seq[k-2]))
	}
	return seq
}

// RecurrenceQ evaluates the Qbfs polynomial Q(n) over x
// (oe-18-19-19700 eq. 2.7):
//
//	Q(0) = 1
//	Q(1) = (13 − 16x)/√19
//	Q(n) = [P(n) − g(n−1)·Q(n−1) − h(n−2)·Q(n−2)] / f(n)
//
// Terms not supplied in `in` are produced by an iterative bottom-up pass.
//
// Parameters:
//   - n: The order, n ≥ 0.
//   - x: The coordinate u = rho².
//   - in: Optional precomputed P and Q terms.
//
// Returns:
//   - *mat.Dense: A newly allocated matrix shaped like x.
func RecurrenceQ(n int, x *mat.Dense, in QTerms) *mat.Dense {
	switch n {
	case 0:
		return filledLike(x, 1)
	case 1:
		return affine(x, -16/math.Sqrt(19), 13/math.Sqrt(19))
	}

	pn, qnm1, qnm2 := in.Pn, in.Qnm1, in.Qnm2
	if pn == nil {
		pn = RecurrenceP(n, x, PTerms{Pnm1: in.Pnm1, Pnm2: in.Pnm2, Coef: in.Coef})
	}
	if qnm1 == nil || qnm2 == nil {
		seq := qSequence(n-1, x, in.Coef)
		if qnm1 == nil {
			qnm1 = seq[n-1]
		}
		if qnm2 == nil {
			qnm2 = seq[n-2]
		}
	}
	return stepQ(n, pn, qnm1, qnm2)
}

// stepQ applies the Q three-term recurrence for order n ≥ 2.
func stepQ(n int, pn, qnm1, qnm2 *mat.Dense) *mat.Dense {
	g := QbfsG(n - 1)
	h := QbfsH(n - 2)
	f := QbfsF(n)

	var out mat.Dense
	out.Apply(func(i, j int, p float64) float64 {
		return (p - g*qnm1.At(i, j) - h*qnm2.At(i, j)) / f
	}, pn)
	return &out
}

// qSequence returns Q(0)…Q(m) computed iteratively.
func qSequence(m int, x, coef *mat.Dense) []*mat.Dense {
	if coef == nil {
		coef = PCoef(x)
	}
	ps := pSequence(m, x, coef)
	seq := make([]*mat.Dense, 0, m+1)
	for k := 0; k <= m; k++ {
		if k < 2 {
			seq = append(seq, RecurrenceQ(k, x, QTerms{}))
			continue
		}
		seq = append(seq, stepQ(k, ps[k], seq[k-1], seq[k-2]))
	}
	return seq
}
