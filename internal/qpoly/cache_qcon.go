package qpoly

import (
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
)

// QconCache memoises Qcon grids, Jacobi P terms and Q terms.
//
// Grids are stored as t = 2rho² − 1 so that the remap from [0, 1] to
// [−1, 1] happens once per grid rather than once per term. The P store holds
// P_n^(0,4)(t) from the Jacobi recurrence; the Q store holds the same
// polynomials from Forbes' a, b, c recurrence. Q is what Evaluate returns.
//
// QconCache is NOT safe for concurrent use.
type QconCache struct {
	*shapeCache
}

// NewQconCache creates an empty Qcon cache and subscribes it to settings.
//
// Parameters:
//   - grids: The grid provider; nil selects pupil.Cartesian.
//   - settings: The numeric settings to follow; nil selects numconf.Default().
//
// Returns:
//   - *QconCache: A new, empty cache.
func NewQconCache(grids pupil.GridProvider, settings *numconf.Settings) *QconCache {
	sc := newShapeCache(FamilyQcon, grids, settings,
		func(rho2 float64) float64 { return 2*rho2 - 1 },
		func(t float64) float64 { return (t + 1) / 2 },
	)
	sc.settings.Register(sc)
	return &QconCache{shapeCache: sc}
}

// Detach unsubscribes the cache from its settings.
func (c *QconCache) Detach() { c.settings.Unregister(c.shapeCache) }

// Evaluate returns the Qcon term of the given order; it is Q.
func (c *QconCache) Evaluate(order, samples int, rhoMax float64) (*mat.Dense, error) {
	return c.Q(order, samples, rhoMax)
}

// P returns P_order^(0,4)(t) over the cached grid.
func (c *QconCache) P(order, samples int, rhoMax float64) (*mat.Dense, error) {
	if err := validateTerm(order, samples, rhoMax); err != nil {
		return nil, err
	}
	key := cacheKey{order: order, samples: samples, rhoMax: rhoMax}
	if p, ok := c.pStore[key]; ok {
		c.record("p", true)
		return p, nil
	}
	c.record("p", false)

	t := c.grid(key.grid())
	at := func(k int) cacheKey {
		return cacheKey{order: k, samples: samples, rhoMax: rhoMax}
	}
	for k := 0; k <= order; k++ {
		if _, ok := c.pStore[at(k)]; ok {
			continue
		}
		var in JacobiTerms
		if k >= 2 {
			in = JacobiTerms{Pnm1: c.pStore[at(k-1)], Pnm2: c.pStore[at(k-2)]}
		}
		p := c.round(QconJacobi(k, t, in))
		c.pStore[at(k)] = p
		c.pBuilds.Add(1)
		c.account(p)
	}
	return c.pStore[key], nil
}

// Q returns the Qcon polynomial Q(order) over the cached grid.
func (c *QconCache) Q(order, samples int, rhoMax float64) (*mat.Dense, error) {
	if err := validateTerm(order, samples, rhoMax); err != nil {
		return nil, err
	}
	key := cacheKey{order: order, samples: samples, rhoMax: rhoMax}
	if q, ok := c.qStore[key]; ok {
		c.record("q", true)
		return q, nil
	}
	c.record("q", false)

	t := c.grid(key.grid())
	at := func(k int) cacheKey {
		return cacheKey{order: k, samples: samples, rhoMax: rhoMax}
	}
	for k := 0; k <= order; k++ {
		if _, ok := c.qStore[at(k)]; ok {
			continue
		}
		var in QconTerms
		if k >= 2 {
			in = QconTerms{Qnm1: c.qStore[at(k-1)], Qnm2: c.qStore[at(k-2)]}
		}
		q := c.round(RecurrenceQcon(k, t, in))
		c.qStore[at(k)] = q
		c.qBuilds.Add(1)
		c.account(q)
	}
	return c.qStore[key], nil
}
