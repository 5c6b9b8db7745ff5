package qpoly

import (
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
)

// QbfsCache memoises Qbfs grids (u = rho²), P terms and Q terms.
//
// QbfsCache is NOT safe for concurrent use.
type QbfsCache struct {
	*shapeCache
}

// NewQbfsCache creates an empty Qbfs cache and subscribes it to settings.
//
// Parameters:
//   - grids: The grid provider; nil selects pupil.Cartesian.
//   - settings: The numeric settings to follow; nil selects numconf.Default().
//
// Returns:
//   - *QbfsCache: A new, empty cache.
func NewQbfsCache(grids pupil.GridProvider, settings *numconf.Settings) *QbfsCache {
	sc := newShapeCache(FamilyQbfs, grids, settings,
		func(rho2 float64) float64 { return rho2 },
		func(u float64) float64 { return u },
	)
	sc.settings.Register(sc)
	return &QbfsCache{shapeCache: sc}
}

// Detach unsubscribes the cache from its settings.
func (c *QbfsCache) Detach() { c.settings.Unregister(c.shapeCache) }

// Evaluate returns the Qbfs term of the given order; it is Q.
func (c *QbfsCache) Evaluate(order, samples int, rhoMax float64) (*mat.Dense, error) {
	return c.Q(order, samples, rhoMax)
}

// P returns the auxiliary polynomial P(order) over the cached grid. Missing
// lower orders are built first, each at most once.
func (c *QbfsCache) P(order, samples int, rhoMax float64) (*mat.Dense, error) {
	if err := validateTerm(order, samples, rhoMax); err != nil {
		return nil, err
	}
	key := cacheKey{order: order, samples: samples, rhoMax: rhoMax}
	if p, ok := c.pStore[key]; ok {
		c.record("p", true)
		return p, nil
	}
	c.record("p", false)
	c.fillP(key)
	return c.pStore[key], nil
}

// Q returns the Qbfs polynomial Q(order) over the cached grid.
func (c *QbfsCache) Q(order, samples int, rhoMax float64) (*mat.Dense, error) {
	if err := validateTerm(order, samples, rhoMax); err != nil {
		return nil, err
	}
	key := cacheKey{order: order, samples: samples, rhoMax: rhoMax}
	if q, ok := c.qStore[key]; ok {
		c.record("q", true)
		return q, nil
	}
	c.record("q", false)
	c.fillP(key)
	c.fillQ(key)
	return c.qStore[key], nil
}

// fillP builds every missing P term from order 0 up to key.order.
func (c *QbfsCache) fillP(key cacheKey) {
	x := c.grid(key.grid())
	var coef *mat.Dense
	for k := 0; k <= key.order; k++ {
		kk := cacheKey{order: k, samples: key.samples, rhoMax: key.rhoMax}
		if _, ok := c.pStore[kk]; ok {
			continue
		}
		var in PTerms
		if k >= 2 {
			if coef == nil {
				coef = PCoef(x)
			}
			in = PTerms{
				Pnm1: c.pStore[cacheKey{order: k - 1, samples: key.samples, rhoMax: key.rhoMax}],
				Pnm2: c.pStore[cacheKey{order: k - 2, samples: key.samples, rhoMax: key.rhoMax}],
				Coef: coef,
			}
		}
		p := c.round(RecurrenceP(k, x, in))
		c.pStore[kk] = p
		c.pBuilds.Add(1)
		c.account(p)
	}
}

// fillQ builds every missing Q term from order 0 up to key.order. The P
// terms must already be present.
func (c *QbfsCache) fillQ(key cacheKey) {
	x := c.grid(key.grid())
	at := func(k int) cacheKey {
		return cacheKey{order: k, samples: key.samples, rhoMax: key.rhoMax}
	}
	for k := 0; k <= key.order; k++ {
		if _, ok := c.qStore[at(k)]; ok {
			continue
		}
		in := QTerms{Pn: c.pStore[at(k)]}
		if k >= 2 {
			in.Pnm1 = c.pStore[at(k-1)]
			in.Pnm2 = c.pStore[at(k-2)]
			in.Qnm1 = c.qStore[at(k-1)]
			in.Qnm2 = c.qStore[at(k-2)]
		}
		q := c.round(RecurrenceQ(k, x, in))
		c.qStore[at(k)] = q
		c.qBuilds.Add(1)
		c.account(q)
	}
}
