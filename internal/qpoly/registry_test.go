package qpoly

import (
	"testing"

	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
)

func TestRegistry_Defaults(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil, numconf.New())

	names := r.List()
	if len(names) != 2 || names[0] != FamilyQbfs || names[1] != FamilyQcon {
		t.Fatalf("List() = %v, want [qbfs qcon]", names)
	}
	for _, name := range names {
		if !r.Has(name) {
			t.Errorf("Has(%q) = false", name)
		}
		b, err := r.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("Get(%q).Name() = %q", name, b.Name())
		}
		again, _ := r.Get(name)
		if again != b {
			t.Errorf("Get(%q) created a second basis", name)
		}
	}
}

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil, numconf.New())
	if r.Has("zernike") {
		t.Error("Has(zernike) = true")
	}
	if _, err := r.Get("zernike"); err == nil {
		t.Error("Get(zernike) returned no error")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGet(zernike) did not panic")
		}
	}()
	r.MustGet("zernike")
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil, numconf.New())
	original := r.MustGet(FamilyQbfs)

	var created int
	r.Register(FamilyQbfs, func(g pupil.GridProvider, s *numconf.Settings) Basis {
		created++
		return NewQbfsCache(g, s)
	})
	replaced := r.MustGet(FamilyQbfs)
	if replaced == original {
		t.Error("Register did not drop the previous basis")
	}
	if created != 1 {
		t.Errorf("creator called %d times, want 1", created)
	}
}

func TestRegistry_RegisterDetachesReplaced(t *testing.T) {
	t.Parallel()
	settings := numconf.New()
	r := NewRegistry(nil, settings)
	original := r.MustGet(FamilyQbfs).(*QbfsCache)
	if _, err := original.Evaluate(2, 8, 1); err != nil {
		t.Fatal(err)
	}
	before := settings.ObserverCount()

	r.Register(FamilyQbfs, func(g pupil.GridProvider, s *numconf.Settings) Basis { return NewQbfsCache(g, s) })
	if got := settings.ObserverCount(); got != before-1 {
		t.Errorf("ObserverCount = %d, want %d", got, before-1)
	}

	settings.SetPrecision(numconf.Float32)
	if original.Stats().QEntries == 0 {
		t.Error("detached basis was still cleared by a settings change")
	}
}

func TestRegistry_GetAllAndClearAll(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil, numconf.New())
	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("GetAll() returned %d bases", len(all))
	}
	for _, b := range all {
		if _, err := b.Evaluate(2, 4, 1); err != nil {
			t.Fatal(err)
		}
	}
	r.ClearAll()
	for name, b := range all {
		if b.ByteSize() != 0 {
			t.Errorf("%s still holds %d bytes", name, b.ByteSize())
		}
	}
}

func TestRegistry_SharedSettings(t *testing.T) {
	t.Parallel()
	s := numconf.New()
	r := NewRegistry(nil, s)
	if r.Settings() != s {
		t.Fatal("Settings() returned a different instance")
	}
	r.GetAll()
	if got := s.ObserverCount(); got != 2 {
		t.Errorf("ObserverCount = %d, want 2", got)
	}
}

func TestGlobalRegistry(t *testing.T) {
	t.Parallel()
	if GlobalRegistry() != GlobalRegistry() {
		t.Error("GlobalRegistry is not a singleton")
	}
}
