// Package qpoly computes Forbes Q-polynomial surface departure (sag) maps
// over a circular pupil.
//
// Two polynomial families are provided:
//
//   - Qbfs, the departure from a best-fit sphere (Forbes, Opt. Express 18,
//     19700, 2010), evaluated in u = rho² with the P/Q three-term recurrences
//     and their stabilising constants f, g and h.
//   - Qcon, the departure from a conic (Forbes, Opt. Express 18, 13851, 2010),
//     evaluated in t = 2rho² − 1 with the a, b, c recurrence of the Jacobi
//     polynomials P_n^(0,4).
//
// Polynomial terms are memoised per (order, samples, rhoMax) in a cache owned
// by each family. A cache is a single-writer structure: callers that share one
// between goroutines must serialise access themselves. Caches subscribe to a
// numconf.Settings at construction and empty themselves whenever the numeric
// precision or backend changes.
//
// A sag map is the ascending-order linear combination of the cached terms
// multiplied by the window rho²(1 − rho²):
//
//	cache := qpoly.NewQbfsCache(pupil.NewCartesian(), numconf.Default())
//	sag, err := qpoly.BuildSag(ctx, cache, qpoly.Coefficients{0: 1, 4: 0.3}, 64, 1, nil)
package qpoly
