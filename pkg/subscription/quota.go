package subscription

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ResourceCounterFunc returns the live count of a resource for a tenant.
// It must reflect committed state at call time; it runs on every creation attempt.
type ResourceCounterFunc func(ctx context.Context, tenantID uuid.UUID) (int64, error)

// Evaluator makes allow/deny decisions for resource creation.
// Counters are registered at construction and read-only afterwards.
type Evaluator struct {
	catalog  *Catalog
	counters map[Resource]ResourceCounterFunc
	observer Observer
}

// NewEvaluator creates an Evaluator. Panics if catalog is nil to fail fast
// during initialization.
func NewEvaluator(catalog *Catalog, opts ...EvaluatorOption) *Evaluator {
	if catalog == nil {
		panic("subscription: Catalog is required")
	}
	e := &Evaluator{
		catalog:  catalog,
		counters: make(map[Resource]ResourceCounterFunc),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the evaluator resolves limits from.
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// CanCreate reports whether one more resource fits under the plan cap given
// the current count. The limit is a maximum count, so a tenant exactly at the
// limit is denied.
//
// Resource kinds the plan does not meter are allowed (fail-open) so that new
// resource types are not blocked before the quota model covers them.
func (e *Evaluator) CanCreate(ctx context.Context, sub *Subscription, res Resource, current int64) bool {
	limit, metered := e.catalog.LimitsFor(ctx, sub.Plan).Max(res)
	return fits(limit, metered, current)
}

func fits(limit int64, metered bool, current int64) bool {
	if !metered || limit == Unlimited {
		return true
	}
	return current < limit
}

// Check counts the resource live and returns a *QuotaExceededError when the
// tenant cannot create one more.
func (e *Evaluator) Check(ctx context.Context, sub *Subscription, res Resource) error {
	limit, metered := e.catalog.LimitsFor(ctx, sub.Plan).Max(res)
	if !metered || limit == Unlimited {
		e.observer.QuotaDecision(ctx, res, true)
		return nil
	}

	current, err := e.count(ctx, sub.TenantID, res)
	if err != nil {
		return err
	}

	allowed := fits(limit, metered, current)
	e.observer.QuotaDecision(ctx, res, allowed)
	if !allowed {
		return &QuotaExceededError{Resource: res, Current: current, Limit: limit}
	}
	return nil
}

// Usage returns the live counts of every metered resource.
// Counters run concurrently; the first failure cancels the rest.
func (e *Evaluator) Usage(ctx context.Context, tenantID uuid.UUID) (map[Resource]int64, error) {
	var (
		mu     sync.Mutex
		counts = make(map[Resource]int64, len(MeteredResources))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, res := range MeteredResources {
		g.Go(func() error {
			n, err := e.count(gctx, tenantID, res)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[res] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// UsageStats reports current, max and percentage for every metered resource.
// Percentage is 0 when the maximum is 0 or unlimited.
func (e *Evaluator) UsageStats(ctx context.Context, sub *Subscription) (map[Resource]UsageStat, error) {
	counts, err := e.Usage(ctx, sub.TenantID)
	if err != nil {
		return nil, err
	}
	return usageStats(e.catalog.LimitsFor(ctx, sub.Plan), counts), nil
}

// exceeding returns the first metered resource whose usage is above the
// plan limit, in MeteredResources order.
func (e *Evaluator) exceeding(ctx context.Context, tenantID uuid.UUID, target PlanLimit) (*LimitExceededOnUpgradeError, error) {
	counts, err := e.Usage(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, res := range MeteredResources {
		limit, _ := target.Max(res)
		if limit == Unlimited {
			continue
		}
		if counts[res] > limit {
			return &LimitExceededOnUpgradeError{
				Plan:     target.Plan,
				Resource: res,
				Current:  counts[res],
				Limit:    limit,
			}, nil
		}
	}
	return nil, nil
}

func (e *Evaluator) count(ctx context.Context, tenantID uuid.UUID, res Resource) (int64, error) {
	counter, ok := e.counters[res]
	if !ok {
		return 0, errors.Join(ErrNoCounterRegistered, errors.New(string(res)))
	}
	n, err := counter(ctx, tenantID)
	if err != nil {
		return 0, errors.Join(ErrFailedToCountResourceUsage, err)
	}
	return n, nil
}

func usageStats(limit PlanLimit, counts map[Resource]int64) map[Resource]UsageStat {
	out := make(map[Resource]UsageStat, len(MeteredResources))
	for _, res := range MeteredResources {
		capacity, _ := limit.Max(res)
		stat := UsageStat{Current: counts[res], Max: capacity}
		if capacity > 0 {
			stat.Percentage = float64(stat.Current) / float64(capacity) * 100
		}
		out[res] = stat
	}
	return out
}
