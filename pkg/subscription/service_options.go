package subscription

import (
	"log/slog"
	"time"
)

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithCatalogLogger sets the logger used to report source fallbacks.
func WithCatalogLogger(l *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithCounter registers the live counter of a resource.
// Panics if a counter for the same resource has already been registered
// to prevent accidental overwrites.
func WithCounter(res Resource, fn ResourceCounterFunc) EvaluatorOption {
	return func(e *Evaluator) {
		if fn == nil {
			return
		}
		if _, exists := e.counters[res]; exists {
			panic("subscription: counter for resource " + string(res) + " already registered")
		}
		e.counters[res] = fn
	}
}

// WithEvaluatorObserver sets the observer notified about quota decisions.
func WithEvaluatorObserver(o Observer) EvaluatorOption {
	return func(e *Evaluator) {
		if o != nil {
			e.observer = o
		}
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver sets the observer notified about transitions and limit breaches.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithBreachDetection toggles usage re-evaluation after plan changes. Enabled by default.
func WithBreachDetection(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.detectBreaches = enabled
	}
}
