package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// LimitSource provides the configured plan-limit table.
type LimitSource interface {
	// Limit returns the configured row for a plan.
	// Returns ErrPlanLimitNotConfigured if no row exists.
	Limit(ctx context.Context, plan Plan) (PlanLimit, error)

	// List returns every configured row, in no particular order.
	List(ctx context.Context) ([]PlanLimit, error)
}

// LimitSeeder populates an empty plan-limit table.
type LimitSeeder interface {
	SeedIfEmpty(ctx context.Context, limits []PlanLimit) error
}

// LimitWriter replaces the configured row of a plan.
type LimitWriter interface {
	Upsert(ctx context.Context, limit PlanLimit) error
}

type inMemSource struct {
	mu     sync.RWMutex
	limits map[Plan]PlanLimit
}

// NewInMemSource returns an in-memory LimitSource holding a copy of the given rows.
// A later row for the same plan replaces an earlier one.
func NewInMemSource(limits ...PlanLimit) LimitSource {
	m := make(map[Plan]PlanLimit, len(limits))
	for _, l := range limits {
		m[l.Plan] = l
	}
	return &inMemSource{limits: m}
}

func (s *inMemSource) Limit(_ context.Context, plan Plan) (PlanLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.limits[plan]
	if !ok {
		return PlanLimit{}, ErrPlanLimitNotConfigured
	}
	return l, nil
}

func (s *inMemSource) List(_ context.Context) ([]PlanLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PlanLimit, 0, len(s.limits))
	for _, l := range s.limits {
		out = append(out, l)
	}
	return out, nil
}

// SeedIfEmpty stores limits only when no row is configured yet.
func (s *inMemSource) SeedIfEmpty(_ context.Context, limits []PlanLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.limits) > 0 {
		return nil
	}
	for _, l := range limits {
		s.limits[l.Plan] = l
	}
	return nil
}

func (s *inMemSource) Upsert(_ context.Context, limit PlanLimit) error {
	if err := limit.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[limit.Plan] = limit
	return nil
}

type yamlDocument struct {
	Plans []PlanLimit `yaml:"plans"`
}

// ReadYAMLSource parses a plan-limit document of the form
//
//	plans:
//	  - plan: pro
//	    max_students: 300
//	    ...
//
// and returns it as an in-memory source. Every row is validated.
func ReadYAMLSource(r io.Reader) (LimitSource, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrFailedToLoadPlanLimits, err)
	}

	seen := make(map[Plan]struct{}, len(doc.Plans))
	for _, l := range doc.Plans {
		if err := l.Validate(); err != nil {
			return nil, errors.Join(ErrFailedToLoadPlanLimits, err)
		}
		if _, dup := seen[l.Plan]; dup {
			return nil, errors.Join(ErrFailedToLoadPlanLimits,
				NewValidationError("plan", fmt.Sprintf("duplicate row for plan %s", l.Plan)))
		}
		seen[l.Plan] = struct{}{}
	}
	return NewInMemSource(doc.Plans...), nil
}

// LoadYAMLSource reads a plan-limit document from disk.
func LoadYAMLSource(path string) (LimitSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlanLimits, err)
	}
	defer f.Close()
	return ReadYAMLSource(f)
}
