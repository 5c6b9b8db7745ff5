package qpoly

import (
	"math"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
)

var (
	cacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsag_cache_requests_total",
			Help: "Polynomial cache lookups by family, store and result (hit or miss)",
		},
		[]string{"family", "store", "result"},
	)
	cacheBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qsag_cache_bytes",
			Help: "Bytes held by the polynomial caches",
		},
		[]string{"family"},
	)
)

// cacheKey addresses one polynomial term. rhoMax is compared exactly: two
// calls that differ in the last bit of rhoMax get independent entries.
type cacheKey struct {
	order   int
	samples int
	rhoMax  float64
}

type gridKey struct {
	samples int
	rhoMax  float64
}

func (k cacheKey) grid() gridKey { return gridKey{samples: k.samples, rhoMax: k.rhoMax} }

// CacheStats is a snapshot of a cache's counters.
type CacheStats struct {
	Family     string
	Hits       uint64
	Misses     uint64
	GridBuilds uint64
	PBuilds    uint64
	QBuilds    uint64
	Grids      int
	PEntries   int
	QEntries   int
	Bytes      int
}

// HitRate returns Hits / (Hits + Misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// shapeCache holds the stores shared by both families. The grid transform is
// the only family-specific part of this type; recurrences live on the
// concrete caches.
type shapeCache struct {
	family   string
	grids    pupil.GridProvider
	settings *numconf.Settings

	// toGrid maps rho² to the family coordinate; toRho2 inverts it.
	toGrid func(rho2 float64) float64
	toRho2 func(v float64) float64

	gridStore map[gridKey]*mat.Dense
	pStore    map[cacheKey]*mat.Dense
	qStore    map[cacheKey]*mat.Dense
	held      int // running total of ByteSize, for the gauge

	hits       atomic.Uint64
	misses     atomic.Uint64
	gridBuilds atomic.Uint64
	pBuilds    atomic.Uint64
	qBuilds    atomic.Uint64
}

func newShapeCache(family string, grids pupil.GridProvider, settings *numconf.Settings,
	toGrid, toRho2 func(float64) float64) *shapeCache {
	if grids == nil {
		grids = pupil.NewCartesian()
	}
	if settings == nil {
		settings = numconf.Default()
	}
	c := &shapeCache{
		family:   family,
		grids:    grids,
		settings: settings,
		toGrid:   toGrid,
		toRho2:   toRho2,
	}
	c.reset()
	return c
}

func (c *shapeCache) reset() {
	c.gridStore = make(map[gridKey]*mat.Dense)
	c.pStore = make(map[cacheKey]*mat.Dense)
	c.qStore = make(map[cacheKey]*mat.Dense)
	c.held = 0
}

// Name returns the family name.
func (c *shapeCache) Name() string { return c.family }

// Clear empties the grid, P and Q stores. Counters are kept so that rebuilds
// after a clear remain observable.
func (c *shapeCache) Clear() {
	dropped := len(c.gridStore) + len(c.pStore) + len(c.qStore)
	c.reset()
	cacheBytes.WithLabelValues(c.family).Set(0)
	log.Debug().
		Str("family", c.family).
		Int("entries", dropped).
		Msg("polynomial cache cleared")
}

// OnChange implements numconf.ChangeObserver: any precision or backend change
// invalidates every cached array.
func (c *shapeCache) OnChange(change numconf.Change) {
	log.Debug().
		Str("family", c.family).
		Str("field", change.Field).
		Str("old", change.Old).
		Str("new", change.New).
		Msg("numeric settings changed")
	c.Clear()
}

// ByteSize returns the storage footprint of every cached array.
func (c *shapeCache) ByteSize() int {
	n := 0
	for _, m := range c.gridStore {
		n += denseBytes(m)
	}
	for _, m := range c.pStore {
		n += denseBytes(m)
	}
	for _, m := range c.qStore {
		n += denseBytes(m)
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *shapeCache) Stats() CacheStats {
	return CacheStats{
		Family:     c.family,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		GridBuilds: c.gridBuilds.Load(),
		PBuilds:    c.pBuilds.Load(),
		QBuilds:    c.qBuilds.Load(),
		Grids:      len(c.gridStore),
		PEntries:   len(c.pStore),
		QEntries:   len(c.qStore),
		Bytes:      c.ByteSize(),
	}
}

// Grid returns the family coordinate grid for (samples, rhoMax), building and
// caching it on first use.
func (c *shapeCache) Grid(samples int, rhoMax float64) (*mat.Dense, error) {
	if err := validateGrid(samples, rhoMax); err != nil {
		return nil, err
	}
	return c.grid(gridKey{samples: samples, rhoMax: rhoMax}), nil
}

func (c *shapeCache) grid(key gridKey) *mat.Dense {
	if g, ok := c.gridStore[key]; ok {
		c.record("grid", true)
		return g
	}
	c.record("grid", false)

	rho, _ := c.grids.RhoPhi(key.samples, pupil.AlignY, key.rhoMax)
	prec := c.settings.Precision()
	var g mat.Dense
	g.Apply(func(_, _ int, r float64) float64 {
		return prec.Round(c.toGrid(r * r))
	}, rho)

	c.gridStore[key] = &g
	c.gridBuilds.Add(1)
	c.account(&g)
	return &g
}

// Window returns rho²(1 − rho²) over the cached grid. It vanishes at the
// pupil centre and on the unit circle.
func (c *shapeCache) Window(samples int, rhoMax float64) (*mat.Dense, error) {
	g, err := c.Grid(samples, rhoMax)
	if err != nil {
		return nil, err
	}
	var w mat.Dense
	w.Apply(func(_, _ int, v float64) float64 {
		r2 := c.toRho2(v)
		return r2 * (1 - r2)
	}, g)
	return &w, nil
}

// round applies the configured precision to m in place and returns it.
func (c *shapeCache) round(m *mat.Dense) *mat.Dense {
	prec := c.settings.Precision()
	if prec == numconf.Float64 {
		return m
	}
	m.Apply(func(_, _ int, v float64) float64 { return prec.Round(v) }, m)
	return m
}

func (c *shapeCache) record(store string, hit bool) {
	result := "miss"
	if hit {
		c.hits.Add(1)
		result = "hit"
	} else {
		c.misses.Add(1)
	}
	cacheRequests.WithLabelValues(c.family, store, result).Inc()
}

// account adds a newly stored array to the byte gauge.
func (c *shapeCache) account(m *mat.Dense) {
	c.held += denseBytes(m)
	cacheBytes.WithLabelValues(c.family).Set(float64(c.held))
}

func validateGrid(samples int, rhoMax float64) error {
	if samples <= 0 {
		return apperrors.InvalidSampleCountError{Samples: samples}
	}
	if math.IsNaN(rhoMax) || math.IsInf(rhoMax, 0) || rhoMax <= 0 {
		return apperrors.InvalidRadiusError{RhoMax: rhoMax}
	}
	return nil
}

func validateTerm(order, samples int, rhoMax float64) error {
	if order < 0 {
		return apperrors.InvalidOrderError{Order: order}
	}
	return validateGrid(samples, rhoMax)
}
