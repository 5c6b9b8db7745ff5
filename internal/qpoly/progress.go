package qpoly

import (
	"sync"
)

// ProgressUpdate is a progress notification for one build in a batch.
type ProgressUpdate struct {
	// BuildIndex identifies the build within its batch.
	BuildIndex int
	// Value is the normalised progress (0.0 to 1.0).
	Value float64
}

// ─────────────────────────────────────────────────────────────────────────────
// Observer Pattern Interfaces
// ─────────────────────────────────────────────────────────────────────────────

// ProgressObserver receives sag build progress.
type ProgressObserver interface {
	// Update is called when progress changes.
	//
	// Parameters:
	//   - buildIndex: The build identifier (for concurrent builds)
	//   - progress: The normalized progress value (0.0 to 1.0)
	Update(buildIndex int, progress float64)
}

// ProgressSubject manages observer registration and notification for progress
// events, decoupling the builders from the UI, logging and metrics.
//
// ProgressSubject is safe for concurrent use.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a new subject for managing progress observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{
		observers: make([]ProgressObserver, 0),
	}
}

// Register adds an observer. Nil observers are ignored. Observers are
// notified in registration order.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes an observer. Unknown observers are ignored.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	if observer == nil {
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

// Notify sends a progress update to all registered observers synchronously.
func (s *ProgressSubject) Notify(buildIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, observer := range s.observers {
		observer.Update(buildIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter returns a ProgressReporter that notifies every observer
// under buildIndex.
func (s *ProgressSubject) AsProgressReporter(buildIndex int) ProgressReporter {
	return func(progress float64) {
		s.Notify(buildIndex, progress)
	}
}
