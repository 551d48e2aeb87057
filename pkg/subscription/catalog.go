package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/centerhub/billing/pkg/logger"
)

// Catalog resolves the limits that apply to a plan. Configured rows take
// precedence; the built-in table is the fallback for anything not configured.
type Catalog struct {
	src LimitSource
	log *slog.Logger
}

// NewCatalog creates a catalog over src. A nil src serves the built-in table only.
func NewCatalog(src LimitSource, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		src: src,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LimitsFor returns the limits of a plan and never fails. Source errors fall back
// to the default row; plans outside the enumeration resolve to the Free default so
// that a missing limit is never mistaken for unlimited.
func (c *Catalog) LimitsFor(ctx context.Context, plan Plan) PlanLimit {
	l, err := c.Resolve(ctx, plan)
	if err != nil {
		c.log.WarnContext(ctx, "unknown plan, applying free limits",
			logger.Plan(string(plan)), logger.Error(err))
		def, _ := DefaultLimitsFor(PlanFree)
		return def
	}
	return l
}

// Resolve is the strict variant of LimitsFor used by validation.
// It fails with a ValidationError for plans outside the enumeration.
func (c *Catalog) Resolve(ctx context.Context, plan Plan) (PlanLimit, error) {
	def, ok := DefaultLimitsFor(plan)
	if !ok {
		return PlanLimit{}, NewValidationError("plan", "no limits resolvable for plan "+string(plan))
	}
	if c.src == nil {
		return def, nil
	}

	l, err := c.src.Limit(ctx, plan)
	switch {
	case err == nil:
	case errors.Is(err, ErrPlanLimitNotConfigured):
		return def, nil
	default:
		c.log.WarnContext(ctx, "plan limit source failed, using defaults",
			logger.Plan(string(plan)), logger.Error(err))
		return def, nil
	}

	l.Plan = plan
	if verr := l.Validate(); verr != nil {
		c.log.WarnContext(ctx, "configured plan limit is invalid, using defaults",
			logger.Plan(string(plan)), logger.Error(verr))
		return def, nil
	}
	return l, nil
}

// Plans returns the effective limits of every plan ordered by rank.
func (c *Catalog) Plans(ctx context.Context) []PlanLimit {
	out := make([]PlanLimit, 0, len(AllPlans))
	for _, p := range AllPlans {
		out = append(out, c.LimitsFor(ctx, p))
	}
	sortByRank(out)
	return out
}

// HasFeature reports whether a plan enables a feature. Unknown features are disabled.
func (c *Catalog) HasFeature(ctx context.Context, plan Plan, f Feature) bool {
	return c.LimitsFor(ctx, plan).HasFeature(f)
}

// Seed writes the built-in rows when the configured table is empty.
// It is a convenience only: lookups fall back to defaults without it.
func (c *Catalog) Seed(ctx context.Context) error {
	seeder, ok := c.src.(LimitSeeder)
	if !ok {
		return nil
	}
	if err := seeder.SeedIfEmpty(ctx, DefaultLimits()); err != nil {
		return errors.Join(ErrFailedToLoadPlanLimits, err)
	}
	return nil
}
