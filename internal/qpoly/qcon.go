package qpoly

import (
	"gonum.org/v1/gonum/mat"
)

// QconTerms carries optional precomputed inputs of RecurrenceQcon.
type QconTerms struct {
	Qnm1 *mat.Dense
	Qnm2 *mat.Dense
}

// RecurrenceQcon evaluates the Qcon polynomial Q(n) over t = 2rho² − 1.
//
// Forbes states the recurrence in x = rho² as
//
//	Q(n+1) = (b(n)·x − a(n))·Q(n) − c(n)·Q(n−1)
//
// Substituting x = (t+1)/2 gives the form used here, so grids remapped once
// at build time never need converting back:
//
//	Q(n+1) = (b(n)/2·t + b(n)/2 − a(n))·Q(n) − c(n)·Q(n−1),  Q(0) = 1.
//
// The result equals the Jacobi polynomial P_n^(0,4)(t); see QconJacobi.
func RecurrenceQcon(n int, t *mat.Dense, in QconTerms) *mat.Dense {
	switch n {
	case 0:
		return filledLike(t, 1)
	case 1:
		return stepQcon(1, t, filledLike(t, 1), nil)
	}

	qnm1, qnm2 := in.Qnm1, in.Qnm2
	if qnm1 == nil || qnm2 == nil {
		seq := qconSequence(n-1, t)
		if qnm1 == nil {
			qnm1 = seq[n-1]
		}
		if qnm2 == nil {
			qnm2 = seq[n-2]
		}
	}
	return stepQcon(n, t, qnm1, qnm2)
}

// stepQcon computes Q(n) from Q(n−1) and Q(n−2); qnm2 may be nil when n = 1
// because c(0) = 0.
func stepQcon(n int, t, qnm1, qnm2 *mat.Dense) *mat.Dense {
	a, b, c := qconConstants.lookup(n - 1)
	alpha := b / 2
	beta := b/2 - a

	var out mat.Dense
	out.Apply(func(i, j int, tv float64) float64 {
		v := (alpha*tv + beta) * qnm1.At(i, j)
		if qnm2 != nil {
			v -= c * qnm2.At(i, j)
		}
		return v
	}, t)
	return &out
}

func qconSequence(m int, t *mat.Dense) []*mat.Dense {
	seq := make([]*mat.Dense, 0, m+1)
	for k := 0; k <= m; k++ {
		switch k {
		case 0:
			seq = append(seq, filledLike(t, 1))
		case 1:
			seq = append(seq, stepQcon(1, t, seq[0], nil))
		default:
			seq = append(seq, stepQcon(k, t, seq[k-1], seq[k-2]))
		}
	}
	return seq
}

// ─────────────────────────────────────────────────────────────────────────────
// Jacobi polynomials
// ─────────────────────────────────────────────────────────────────────────────

// JacobiTerms carries optional precomputed inputs of JacobiP.
type JacobiTerms struct {
	Pnm1 *mat.Dense
	Pnm2 *mat.Dense
}

// JacobiP evaluates the Jacobi polynomial P_n^(alpha,beta)(t) with the
// textbook three-term recurrence (Abramowitz & Stegun 22.7.1). alpha + beta
// must not be a negative integer ≥ −2n, which would zero a denominator.
func JacobiP(n int, alpha, beta float64, t *mat.Dense, in JacobiTerms) *mat.Dense {
	switch n {
	case 0:
		return filledLike(t, 1)
	case 1:
		return affine(t, (alpha+beta+2)/2, (alpha+1)-(alpha+beta+2)/2)
	}

	pnm1, pnm2 := in.Pnm1, in.Pnm2
	if pnm1 == nil || pnm2 == nil {
		pnm2 = JacobiP(0, alpha, beta, t, JacobiTerms{})
		pnm1 = JacobiP(1, alpha, beta, t, JacobiTerms{})
		for k := 2; k < n; k++ {
			pnm1, pnm2 = stepJacobi(k, alpha, beta, t, pnm1, pnm2), pnm1
		}
		if in.Pnm1 != nil {
			pnm1 = in.Pnm1
		}
		if in.Pnm2 != nil {
			pnm2 = in.Pnm2
		}
	}
	return stepJacobi(n, alpha, beta, t, pnm1, pnm2)
}

// stepJacobi computes P(n) from P(n−1) and P(n−2) for n ≥ 2.
func stepJacobi(n int, alpha, beta float64, t, pnm1, pnm2 *mat.Dense) *mat.Dense {
	m := float64(n - 1)
	ab := alpha + beta
	s := 2*m + ab

	den := 2 * (m + 1) * (m + ab + 1) * s
	lin := (s + 1) * (s + 2) * s / den
	con := (s + 1) * (alpha*alpha - beta*beta) / den
	prev := 2 * (m + alpha) * (m + beta) * (s + 2) / den

	var out mat.Dense
	out.Apply(func(i, j int, tv float64) float64 {
		return (lin*tv+con)*pnm1.At(i, j) - prev*pnm2.At(i, j)
	}, t)
	return &out
}

// QconJacobi evaluates the n-th Qcon term directly as P_n^(0,4)(t). It is an
// independent path to the same values as RecurrenceQcon.
func QconJacobi(n int, t *mat.Dense, in JacobiTerms) *mat.Dense {
	return JacobiP(n, 0, 4, t, in)
}
