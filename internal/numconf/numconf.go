// Package numconf holds the process numeric configuration shared by the
// polynomial caches: the floating-point precision of cached arrays and the
// name of the array backend. Components that keep precision-dependent state
// subscribe to changes and drop that state when they are notified.
package numconf

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Precision selects the floating-point width of cached values.
type Precision int

const (
	// Float64 keeps full double precision (default).
	Float64 Precision = iota
	// Float32 rounds every cached value through single precision.
	Float32
)

// DefaultBackend is the name of the only array backend shipped with qsag.
const DefaultBackend = "gonum"

// String returns the flag spelling of the precision.
func (p Precision) String() string {
	switch p {
	case Float32:
		return "float32"
	default:
		return "float64"
	}
}

// ParsePrecision converts a flag value ("float64", "float32", "f64", "f32")
// into a Precision.
//
// Parameters:
//   - s: The textual precision, case-insensitive.
//
// Returns:
//   - Precision: The parsed precision.
//   - error: An error if s names no known precision.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float64", "f64", "double", "":
		return Float64, nil
	case "float32", "f32", "single":
		return Float32, nil
	}
	return Float64, fmt.Errorf("unknown precision %q", s)
}

// Round applies the precision to v.
func (p Precision) Round(v float64) float64 {
	if p == Float32 {
		return float64(float32(v))
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Change notification
// ─────────────────────────────────────────────────────────────────────────────

// Change describes a settings update delivered to observers.
type Change struct {
	// Field is "precision" or "backend".
	Field string
	Old   string
	New   string
}

// ChangeObserver is notified after a setting changes value.
type ChangeObserver interface {
	OnChange(c Change)
}

// ObserverFunc adapts a plain function to ChangeObserver.
type ObserverFunc func(c Change)

// OnChange calls f(c).
func (f ObserverFunc) OnChange(c Change) { f(c) }

// Settings is the numeric configuration plus its observer list.
//
// Settings is safe for concurrent use. Observers are invoked synchronously,
// in registration order, after the lock has been released, so an observer
// may read the new values back.
type Settings struct {
	mu        sync.RWMutex
	precision Precision
	backend   string
	observers []ChangeObserver
}

// New returns settings initialised to float64 precision and the gonum backend.
func New() *Settings {
	return &Settings{precision: Float64, backend: DefaultBackend}
}

var (
	defaultSettings     *Settings
	defaultSettingsOnce sync.Once
)

// Default returns the process-wide settings instance.
func Default() *Settings {
	defaultSettingsOnce.Do(func() {
		defaultSettings = New()
	})
	return defaultSettings
}

// Precision returns the current precision.
func (s *Settings) Precision() Precision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precision
}

// Backend returns the current backend name.
func (s *Settings) Backend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// SetPrecision changes the precision and notifies observers. Setting the
// current value again is a no-op.
func (s *Settings) SetPrecision(p Precision) {
	s.mu.Lock()
	if s.precision == p {
		s.mu.Unlock()
		return
	}
	old := s.precision
	s.precision = p
	s.mu.Unlock()

	s.notify(Change{Field: "precision", Old: old.String(), New: p.String()})
}

// SetBackend changes the backend name and notifies observers. Setting the
// current value again is a no-op.
func (s *Settings) SetBackend(name string) {
	s.mu.Lock()
	if s.backend == name {
		s.mu.Unlock()
		return
	}
	old := s.backend
	s.backend = name
	s.mu.Unlock()

	s.notify(Change{Field: "backend", Old: old, New: name})
}

// Register adds an observer. Nil observers are ignored.
func (s *Settings) Register(observer ChangeObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes the first occurrence of observer. Observers of a
// non-comparable type, such as ObserverFunc, cannot be identified and are
// left registered.
func (s *Settings) Unregister(observer ChangeObserver) {
	if observer == nil || !reflect.TypeOf(observer).Comparable() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of registered observers.
func (s *Settings) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

func (s *Settings) notify(c Change) {
	s.mu.RLock()
	observers := make([]ChangeObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		o.OnChange(c)
	}
}
