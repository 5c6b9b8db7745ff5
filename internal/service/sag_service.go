// Package service exposes sag map construction behind a small interface shared
// by the HTTP server and the interactive shell.
package service

//go:generate mockgen -source=sag_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/qsag/internal/qpoly"
)

var (
	// ErrMaxSamplesExceeded is returned when the grid size exceeds the configured limit.
	ErrMaxSamplesExceeded = errors.New("maximum sample count exceeded")
	// ErrMaxOrderExceeded is returned when a coefficient order exceeds the configured limit.
	ErrMaxOrderExceeded = errors.New("maximum polynomial order exceeded")
	// ErrCacheBudgetExceeded is returned when a single build could not fit in
	// the cache budget even with every cache empty.
	ErrCacheBudgetExceeded = errors.New("cache budget exceeded")
)

// Result is one built sag map and its summary.
type Result struct {
	Family   string
	Sag      *mat.Dense
	Stats    qpoly.SagStats
	Duration time.Duration
}

// Service defines the operations available to the outer surfaces.
// This abstraction enables dependency injection and easier testing/mocking.
type Service interface {
	// Build computes the sag map of req in the given family.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - family: The polynomial family ("qbfs" or "qcon").
	//   - req: The surface to build.
	//
	// Returns:
	//   - *Result: The sag map with its statistics.
	//   - error: An error if validation or construction fails.
	Build(ctx context.Context, family string, req qpoly.Request) (*Result, error)
	// Families returns the registered family names.
	Families() []string
	// CacheStats returns one snapshot per registered family, sorted by name.
	CacheStats() []qpoly.CacheStats
	// ClearCaches empties every basis cache.
	ClearCaches()
}

// Limits bounds the requests a SagService accepts. Zero disables a limit.
type Limits struct {
	MaxSamples int
	MaxOrder   int
	// MaxCacheBytes caps the bytes held by all family caches together. A
	// build that could push the total past it empties the caches first.
	MaxCacheBytes int64
}

// SagService builds sag maps from a qpoly.Registry. The registry caches are
// not safe for concurrent mutation, so builds are serialised.
type SagService struct {
	registry *qpoly.Registry
	limits   Limits

	mu sync.Mutex
}

// Ensure SagService implements Service interface.
var _ Service = (*SagService)(nil)

// NewSagService creates a service over registry.
//
// Parameters:
//   - registry: The family registry; nil selects qpoly.GlobalRegistry().
//   - limits: Request limits.
func NewSagService(registry *qpoly.Registry, limits Limits) *SagService {
	if registry == nil {
		registry = qpoly.GlobalRegistry()
	}
	return &SagService{registry: registry, limits: limits}
}

// Build validates req against the service limits, builds the map and
// summarises it over the unit pupil.
func (s *SagService) Build(ctx context.Context, family string, req qpoly.Request) (*Result, error) {
	if s.limits.MaxSamples > 0 && req.Samples > s.limits.MaxSamples {
		return nil, ErrMaxSamplesExceeded
	}
	if s.limits.MaxOrder > 0 && req.Coefs.MaxOrder() > s.limits.MaxOrder {
		return nil, ErrMaxOrderExceeded
	}
	need := req.CacheFootprint()
	if s.limits.MaxCacheBytes > 0 && need > s.limits.MaxCacheBytes {
		return nil, ErrCacheBudgetExceeded
	}

	basis, err := s.registry.Get(family)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if held := s.heldBytes(); s.limits.MaxCacheBytes > 0 && held+need > s.limits.MaxCacheBytes {
		log.Debug().
			Int64("held", held).
			Int64("need", need).
			Int64("budget", s.limits.MaxCacheBytes).
			Msg("cache budget reached, clearing caches")
		s.registry.ClearAll()
	}

	start := time.Now()
	sag, err := qpoly.NewSagBuilder(basis).Build(ctx, nil, 0, req)
	if err != nil {
		return nil, err
	}
	window, err := basis.Window(req.Samples, req.RhoMax)
	if err != nil {
		return nil, err
	}
	return &Result{
		Family:   family,
		Sag:      sag,
		Stats:    qpoly.Summarize(sag, window),
		Duration: time.Since(start),
	}, nil
}

// heldBytes sums the cache footprint of every family. Callers hold s.mu.
func (s *SagService) heldBytes() int64 {
	var total int64
	for _, basis := range s.registry.GetAll() {
		total += int64(basis.ByteSize())
	}
	return total
}

// Families returns the registered family names.
func (s *SagService) Families() []string { return s.registry.List() }

// CacheStats returns cache snapshots in family order.
func (s *SagService) CacheStats() []qpoly.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := make([]qpoly.CacheStats, 0, len(s.registry.List()))
	for _, name := range s.registry.List() {
		basis, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		stats = append(stats, basis.Stats())
	}
	return stats
}

// ClearCaches empties every basis cache.
func (s *SagService) ClearCaches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.ClearAll()
}
