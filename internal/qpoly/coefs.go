package qpoly

import (
	"fmt"
	"math"
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// Qbfs recursion constants (oe-18-19-19700, appendix A)
// ─────────────────────────────────────────────────────────────────────────────

// qbfsTable memoises f(n), g(n) and h(n). Entries are filled bottom-up, so a
// request for index n costs O(n) the first time and O(1) afterwards, with no
// recursion depth.
type qbfsTable struct {
	mu sync.Mutex
	f  []float64
	g  []float64
	h  []float64
}

var qbfsConstants qbfsTable

// ensure extends the table to cover index n. Callers hold t.mu.
func (t *qbfsTable) ensure(n int) {
	for k := len(t.f); k <= n; k++ {
		var f float64
		switch k {
		case 0:
			f = 2
		case 1:
			f = math.Sqrt(19) / 2
		default:
			g1 := t.g[k-1]
			h2 := t.h[k-2]
			f = math.Sqrt(float64(k*(k+1)+3) - g1*g1 - h2*h2)
		}
		t.f = append(t.f, f)

		g := -0.5
		if k > 0 {
			g = -(1 + t.g[k-1]*t.h[k-1]) / f
		}
		t.g = append(t.g, g)

		m := float64(k + 2)
		t.h = append(t.h, -m*(m-1)/(2*f))
	}
}

func (t *qbfsTable) lookup(n int) (f, g, h float64) {
	mustNonNegative(n)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensure(n)
	return t.f[n], t.g[n], t.h[n]
}

// QbfsF returns f(n), the normalisation of the n-th Qbfs term.
// n must be non-negative.
func QbfsF(n int) float64 {
	f, _, _ := qbfsConstants.lookup(n)
	return f
}

// QbfsG returns g(n), the weight of Q(n) in the recurrence for Q(n+1).
// n must be non-negative.
func QbfsG(n int) float64 {
	_, g, _ := qbfsConstants.lookup(n)
	return g
}

// QbfsH returns h(n), the weight of Q(n) in the recurrence for Q(n+2).
// n must be non-negative.
func QbfsH(n int) float64 {
	_, _, h := qbfsConstants.lookup(n)
	return h
}

// ─────────────────────────────────────────────────────────────────────────────
// Qcon recursion constants (oe-18-13-13851, eq. 5.2)
// ─────────────────────────────────────────────────────────────────────────────

type qconTable struct {
	mu sync.Mutex
	a  []float64
	b  []float64
	c  []float64
}

var qconConstants qconTable

func (t *qconTable) ensure(n int) {
	for k := len(t.a); k <= n; k++ {
		m := float64(k)
		t.a = append(t.a, (2*m+5)*(m*m+5*m+10)/((m+1)*(m+2)*(m+5)))
		t.b = append(t.b, 2*(m+3)*(2*m+5)/((m+1)*(m+5)))
		t.c = append(t.c, m*(m+3)*(m+4)/((m+1)*(m+2)*(m+5)))
	}
}

func (t *qconTable) lookup(n int) (a, b, c float64) {
	mustNonNegative(n)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensure(n)
	return t.a[n], t.b[n], t.c[n]
}

// QconA returns a(n). With x = rho²,
//
//	Q(n+1) = (b(n)·x − a(n))·Q(n) − c(n)·Q(n−1).
func QconA(n int) float64 {
	a, _, _ := qconConstants.lookup(n)
	return a
}

// QconB returns b(n); see QconA.
func QconB(n int) float64 {
	_, b, _ := qconConstants.lookup(n)
	return b
}

// QconC returns c(n); see QconA. c(0) is zero.
func QconC(n int) float64 {
	_, _, c := qconConstants.lookup(n)
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Zernike relation (oe-18-13-13861, eq. 4.1)
// ─────────────────────────────────────────────────────────────────────────────

// ZernikeA returns a(m, n) for azimuthal order m and radial index n.
// s = m + 2n must be positive.
func ZernikeA(m, n int) float64 {
	s := float64(m + 2*n)
	nf := float64(n)
	num := (s + 1) * ((s-nf)*(s-nf) + nf*nf + s)
	den := (nf + 1) * (s - nf + 1) * s
	return num / den
}

// ZernikeB returns b(m, n).
func ZernikeB(m, n int) float64 {
	s := float64(m + 2*n)
	nf := float64(n)
	num := (s + 2) * (s + 1)
	den := (nf + 1) * (s + nf - 1)
	return num / den
}

// ZernikeC returns c(m, n).
func ZernikeC(m, n int) float64 {
	s := float64(m + 2*n)
	nf := float64(n)
	num := (s + 2) * (s - nf) * nf
	den := (nf + 1) * (s - nf + 1) * s
	return num / den
}

func mustNonNegative(n int) {
	if n < 0 {
		panic(fmt.Sprintf("qpoly: recursion constant requested for negative index %d", n))
	}
}
