package qpoly

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/mock/gomock"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
	"github.com/agbru/qsag/internal/pupil/mocks"
)

// ─────────────────────────────────────────────────────────────────────────────
// Memoisation
// ─────────────────────────────────────────────────────────────────────────────

func TestQbfsCache_Idempotent(t *testing.T) {
	t.Parallel()
	c := newTestQbfs(t)

	first, err := c.Q(5, 32, 1)
	if err != nil {
		t.Fatalf("Q(5) failed: %v", err)
	}
	stats := c.Stats()
	if stats.QBuilds != 6 || stats.PBuilds != 6 || stats.GridBuilds != 1 {
		t.Fatalf("builds after Q(5): q=%d p=%d grid=%d, want 6/6/1",
			stats.QBuilds, stats.PBuilds, stats.GridBuilds)
	}

	second, err := c.Q(5, 32, 1)
	if err != nil {
		t.Fatalf("second Q(5) failed: %v", err)
	}
	if first != second {
		t.Error("second lookup returned a different matrix")
	}
	after := c.Stats()
	if after.QBuilds != 6 {
		t.Errorf("QBuilds = %d after a hit, want 6", after.QBuilds)
	}
	if after.Hits != stats.Hits+1 {
		t.Errorf("Hits = %d, want %d", after.Hits, stats.Hits+1)
	}

	// Lower orders were stored on the way up.
	if _, err := c.Q(3, 32, 1); err != nil {
		t.Fatal(err)
	}
	if got := c.Stats().QBuilds; got != 6 {
		t.Errorf("QBuilds = %d after Q(3), want 6", got)
	}

	// Higher orders extend the chain by exactly the missing terms.
	if _, err := c.Q(7, 32, 1); err != nil {
		t.Fatal(err)
	}
	if got := c.Stats().QBuilds; got != 8 {
		t.Errorf("QBuilds = %d after Q(7), want 8", got)
	}
}

func TestQconCache_Idempotent(t *testing.T) {
	t.Parallel()
	c := newTestQcon(t)

	first, err := c.Q(4, 16, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Evaluate(4, 16, 1)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Evaluate did not return the cached Q term")
	}
	if got := c.Stats().QBuilds; got != 5 {
		t.Errorf("QBuilds = %d, want 5", got)
	}
}

func TestCache_DistinctKeys(t *testing.T) {
	t.Parallel()
	c := newTestQbfs(t)

	a, _ := c.Q(2, 16, 1)
	b, _ := c.Q(2, 16, 0.5)
	d, _ := c.Q(2, 17, 1)
	if a == b || a == d {
		t.Fatal("different grid parameters shared a cache entry")
	}
	if got := c.Stats().Grids; got != 3 {
		t.Errorf("Grids = %d, want 3", got)
	}
}

func TestCache_GridProviderCalledOncePerGrid(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	grids := mocks.NewMockGridProvider(ctrl)

	rho, phi := pupil.NewCartesian().RhoPhi(16, pupil.AlignY, 1)
	grids.EXPECT().RhoPhi(16, pupil.AlignY, 1.0).Return(rho, phi).Times(2)

	c := NewQbfsCache(grids, numconf.New())
	if _, err := c.Q(4, 16, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.P(6, 16, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Window(16, 1); err != nil {
		t.Fatal(err)
	}

	c.Clear()
	if got := c.Stats(); got.QEntries != 0 || got.PEntries != 0 || got.Grids != 0 {
		t.Fatalf("stores not empty after Clear: %+v", got)
	}
	if _, err := c.Q(4, 16, 1); err != nil {
		t.Fatal(err)
	}
}

func TestCache_ClearKeepsCounters(t *testing.T) {
	t.Parallel()
	c := newTestQcon(t)
	if _, err := c.Q(3, 8, 1); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if c.ByteSize() != 0 {
		t.Errorf("ByteSize = %d after Clear, want 0", c.ByteSize())
	}
	if _, err := c.Q(3, 8, 1); err != nil {
		t.Fatal(err)
	}
	stats := c.Stats()
	if stats.QBuilds != 8 || stats.GridBuilds != 2 {
		t.Errorf("QBuilds=%d GridBuilds=%d, want 8 and 2", stats.QBuilds, stats.GridBuilds)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Values
// ─────────────────────────────────────────────────────────────────────────────

func TestQbfsCache_MatchesRecurrence(t *testing.T) {
	t.Parallel()
	c := newTestQbfs(t)
	x, err := c.Grid(12, 1)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n <= 9; n++ {
		q, err := c.Q(n, 12, 1)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "cached Q", q, RecurrenceQ(n, x, QTerms{}), 1e-12)

		p, err := c.P(n, 12, 1)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "cached P", p, RecurrenceP(n, x, PTerms{}), 1e-12)
	}
}

func TestQconCache_PAndQAgree(t *testing.T) {
	t.Parallel()
	c := newTestQcon(t)
	for n := 0; n <= 12; n++ {
		p, err := c.P(n, 16, 1)
		if err != nil {
			t.Fatal(err)
		}
		q, err := c.Q(n, 16, 1)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "Qcon P vs Q", p, q, 1e-9)
	}
}

func TestCache_GridTransforms(t *testing.T) {
	t.Parallel()
	rho, _ := pupil.NewCartesian().RhoPhi(9, pupil.AlignY, 1)

	qbfsGrid, err := newTestQbfs(t).Grid(9, 1)
	if err != nil {
		t.Fatal(err)
	}
	qconGrid, err := newTestQcon(t).Grid(9, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			r2 := rho.At(i, j) * rho.At(i, j)
			if qbfsGrid.At(i, j) != r2 {
				t.Fatalf("qbfs grid (%d,%d) = %v, want %v", i, j, qbfsGrid.At(i, j), r2)
			}
			if qconGrid.At(i, j) != 2*r2-1 {
				t.Fatalf("qcon grid (%d,%d) = %v, want %v", i, j, qconGrid.At(i, j), 2*r2-1)
			}
		}
	}
}

func TestCache_WindowVanishesAtCentreAndEdge(t *testing.T) {
	t.Parallel()
	for _, b := range []Basis{newTestQbfs(t), newTestQcon(t)} {
		w, err := b.Window(5, 1)
		if err != nil {
			t.Fatal(err)
		}
		for _, at := range [][2]int{{2, 2}, {0, 2}, {4, 2}, {2, 0}, {2, 4}} {
			if v := w.At(at[0], at[1]); v != 0 {
				t.Errorf("%s window%v = %v, want 0", b.Name(), at, v)
			}
		}
		// rho = 0.5 on the axes: 0.25·0.75.
		if v := w.At(2, 1); math.Abs(v-0.1875) > 1e-15 {
			t.Errorf("%s window at rho=0.5 = %v, want 0.1875", b.Name(), v)
		}
	}
}

func TestCache_WindowsAgreeAcrossFamilies(t *testing.T) {
	t.Parallel()
	a, err := newTestQbfs(t).Window(17, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestQcon(t).Window(17, 1)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "windows", a, b, 1e-14)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func TestCache_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		order   int
		samples int
		rhoMax  float64
		target  any
	}{
		{"negative order", -1, 8, 1, &apperrors.InvalidOrderError{}},
		{"zero samples", 2, 0, 1, &apperrors.InvalidSampleCountError{}},
		{"negative samples", 2, -4, 1, &apperrors.InvalidSampleCountError{}},
		{"zero radius", 2, 8, 0, &apperrors.InvalidRadiusError{}},
		{"negative radius", 2, 8, -1, &apperrors.InvalidRadiusError{}},
		{"NaN radius", 2, 8, math.NaN(), &apperrors.InvalidRadiusError{}},
		{"infinite radius", 2, 8, math.Inf(1), &apperrors.InvalidRadiusError{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			qbfs := newTestQbfs(t)
			qcon := newTestQcon(t)
			calls := map[string]func() (*mat.Dense, error){
				"qbfs Q": func() (*mat.Dense, error) { return qbfs.Q(tt.order, tt.samples, tt.rhoMax) },
				"qbfs P": func() (*mat.Dense, error) { return qbfs.P(tt.order, tt.samples, tt.rhoMax) },
				"qcon Q": func() (*mat.Dense, error) { return qcon.Q(tt.order, tt.samples, tt.rhoMax) },
				"qcon P": func() (*mat.Dense, error) { return qcon.P(tt.order, tt.samples, tt.rhoMax) },
			}
			for name, call := range calls {
				m, err := call()
				if err == nil || m != nil {
					t.Fatalf("%s: expected an error and no matrix", name)
				}
				if !errors.Is(err, apperrors.ErrInvalidInput) {
					t.Errorf("%s: error %v does not match ErrInvalidInput", name, err)
				}
				if !errors.As(err, tt.target) {
					t.Errorf("%s: error %T has the wrong type", name, err)
				}
			}
			if qbfs.Stats().Grids != 0 || qcon.Stats().Grids != 0 {
				t.Error("a grid was built for invalid input")
			}
		})
	}
}

func TestCache_GridRejectsInvalidSampling(t *testing.T) {
	t.Parallel()
	c := newTestQbfs(t)
	if _, err := c.Grid(0, 1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Grid(0, 1) error = %v", err)
	}
	if _, err := c.Window(8, math.Inf(-1)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Window(8, -Inf) error = %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Numeric settings
// ─────────────────────────────────────────────────────────────────────────────

func TestCache_PrecisionChangeClearsAndRounds(t *testing.T) {
	t.Parallel()
	settings := numconf.New()
	c := NewQbfsCache(nil, settings)

	if _, err := c.Q(3, 8, 1); err != nil {
		t.Fatal(err)
	}
	settings.SetPrecision(numconf.Float32)
	if got := c.Stats(); got.QEntries != 0 || got.Grids != 0 {
		t.Fatalf("cache not cleared by precision change: %+v", got)
	}

	q, err := c.Q(3, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	r, cols := q.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			v := q.At(i, j)
			if v != float64(float32(v)) {
				t.Fatalf("Q3(%d,%d) = %v is not representable in float32", i, j, v)
			}
		}
	}
}

func TestCache_UnchangedSettingKeepsEntries(t *testing.T) {
	t.Parallel()
	settings := numconf.New()
	c := NewQconCache(nil, settings)
	if _, err := c.Q(2, 8, 1); err != nil {
		t.Fatal(err)
	}
	settings.SetPrecision(numconf.Float64)
	if got := c.Stats().QEntries; got != 3 {
		t.Errorf("QEntries = %d, want 3", got)
	}
}

func TestCache_Detach(t *testing.T) {
	t.Parallel()
	settings := numconf.New()
	qbfs := NewQbfsCache(nil, settings)
	qcon := NewQconCache(nil, settings)
	if got := settings.ObserverCount(); got != 2 {
		t.Fatalf("ObserverCount = %d, want 2", got)
	}
	qbfs.Detach()
	qcon.Detach()
	if got := settings.ObserverCount(); got != 0 {
		t.Errorf("ObserverCount = %d after Detach, want 0", got)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Accounting
// ─────────────────────────────────────────────────────────────────────────────

func TestCache_ByteSize(t *testing.T) {
	t.Parallel()
	c := newTestQbfs(t)
	if c.ByteSize() != 0 {
		t.Fatalf("empty cache ByteSize = %d", c.ByteSize())
	}
	if _, err := c.Q(2, 4, 1); err != nil {
		t.Fatal(err)
	}
	// One grid, three P terms and three Q terms of 4×4 float64.
	const want = 7 * 4 * 4 * 8
	if got := c.ByteSize(); got != want {
		t.Errorf("ByteSize = %d, want %d", got, want)
	}
	if got := c.Stats().Bytes; got != want {
		t.Errorf("Stats().Bytes = %d, want %d", got, want)
	}
}

func TestCacheStats_HitRate(t *testing.T) {
	t.Parallel()
	if got := (CacheStats{}).HitRate(); got != 0 {
		t.Errorf("empty HitRate = %v, want 0", got)
	}
	if got := (CacheStats{Hits: 3, Misses: 1}).HitRate(); got != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", got)
	}
}
