package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/centerhub/billing/pkg/logger"
)

// ActivateOptions tunes a paid activation.
type ActivateOptions struct {
	// Days overrides the window length. Zero selects the cycle default (30 or 365).
	Days int
	// Cycle sets the billing cycle. Empty keeps the current one.
	Cycle BillingCycle
	// Gateway labels who drove the activation. Defaults to GatewayManual.
	Gateway string
	// GatewaySubscriptionID is the external reference, if any.
	GatewaySubscriptionID string
}

// Detail is a reconciled subscription together with everything derived from it.
type Detail struct {
	Subscription       *Subscription
	State              State
	Limits             PlanLimit
	Price              Money
	Features           map[Feature]bool
	DaysRemaining      int
	TrialDaysRemaining int
}

// Manager owns every mutation of a subscription record.
// All writes go through Store.Update, so plan changes of one tenant never interleave.
type Manager struct {
	store     Store
	evaluator *Evaluator
	catalog   *Catalog

	now            func() time.Time
	log            *slog.Logger
	observer       Observer
	detectBreaches bool
}

// NewManager creates a Manager.
// Panics if store or evaluator is nil to fail fast during initialization.
func NewManager(store Store, evaluator *Evaluator, opts ...ManagerOption) *Manager {
	if store == nil {
		panic("subscription: Store is required")
	}
	if evaluator == nil {
		panic("subscription: Evaluator is required")
	}

	m := &Manager{
		store:          store,
		evaluator:      evaluator,
		catalog:        evaluator.Catalog(),
		now:            time.Now,
		log:            slog.New(slog.DiscardHandler),
		observer:       nopObserver{},
		detectBreaches: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the tenant's subscription, creating the Free/inactive
// record on first use. The result is always reconciled.
func (m *Manager) GetOrCreate(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	sub, _, err := m.ExpireIfNeeded(ctx, tenantID)
	return sub, err
}

// ExpireIfNeeded reconciles a subscription whose paid window has passed and
// reports whether it changed anything. Records that are not due are returned
// from a plain read without taking the write lock.
func (m *Manager) ExpireIfNeeded(ctx context.Context, tenantID uuid.UUID) (*Subscription, bool, error) {
	now := m.now()

	sub, err := m.store.GetOrCreate(ctx, New(tenantID, now))
	if err != nil {
		return nil, false, err
	}
	if !sub.IsExpiredAt(now) {
		return sub, false, nil
	}

	changed := false
	updated, err := m.store.Update(ctx, tenantID, func(s *Subscription) error {
		// A concurrent reconciliation may have won the race.
		if !s.IsExpiredAt(now) {
			return ErrNoChange
		}
		s.ExpireIfNeeded(now)
		s.UpdatedAt = now.UTC()
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		m.observer.Transition(ctx, EventExpire, StateExpired, StateFreeInactive)
		m.log.InfoContext(ctx, "subscription expired",
			logger.TenantID(tenantID), logger.Plan(string(sub.Plan)))
		if m.detectBreaches {
			m.reportBreaches(ctx, updated)
		}
	}
	return updated, changed, nil
}

// Activate opens a paid window on plan. Current usage never blocks an activation.
func (m *Manager) Activate(ctx context.Context, tenantID uuid.UUID, plan Plan, opts ActivateOptions) (*Subscription, error) {
	if err := m.validateTarget(ctx, plan); err != nil {
		return nil, err
	}
	if plan == PlanFree {
		return nil, NewValidationError("plan", "free plan is not activated, deactivate instead")
	}
	if opts.Days < 0 {
		return nil, NewValidationError("days", "must not be negative")
	}
	if opts.Cycle != "" && !opts.Cycle.Valid() {
		return nil, NewValidationError("billing_cycle", "unknown billing cycle "+string(opts.Cycle))
	}

	return m.change(ctx, tenantID, EventActivate, func(sub *Subscription, now time.Time) error {
		m.applyActivation(sub, plan, opts, now)
		return nil
	})
}

// ActivateTrial grants Pro capability for days (DefaultTrialDays when days <= 0).
// A tenant gets one trial, and never on top of an active paid plan.
func (m *Manager) ActivateTrial(ctx context.Context, tenantID uuid.UUID, days int) (*Subscription, error) {
	if days <= 0 {
		days = DefaultTrialDays
	}

	return m.change(ctx, tenantID, EventStartTrial, func(sub *Subscription, now time.Time) error {
		if sub.IsActive && sub.Plan != PlanFree {
			return ErrAlreadySubscribed
		}
		if sub.TrialStartedAt != nil {
			return ErrTrialAlreadyUsed
		}
		sub.startTrial(days, now)
		return nil
	})
}

// RequestUpgrade moves the tenant to a strictly higher plan.
// Usage is checked against the target limits first, so a move that would leave
// the tenant over quota is refused with a LimitExceededOnUpgradeError naming the
// resource even when the direction is wrong as well.
func (m *Manager) RequestUpgrade(ctx context.Context, tenantID uuid.UUID, plan Plan, cycle BillingCycle) (*Subscription, error) {
	target, err := m.targetLimits(ctx, plan, cycle)
	if err != nil {
		return nil, err
	}
	if err := m.ensureFits(ctx, tenantID, target); err != nil {
		return nil, err
	}

	return m.change(ctx, tenantID, EventUpgrade, func(sub *Subscription, now time.Time) error {
		current := effectivePlan(sub, now)
		if plan.Rank() <= current.Rank() {
			return &InvalidUpgradeError{From: current, To: plan}
		}
		m.applyActivation(sub, plan, ActivateOptions{Cycle: cycle}, now)
		return nil
	})
}

// RequestDowngrade moves a paying tenant to a strictly lower plan. Moving to Free
// ends the paid window and leaves the canonical Free/inactive record.
func (m *Manager) RequestDowngrade(ctx context.Context, tenantID uuid.UUID, plan Plan, cycle BillingCycle) (*Subscription, error) {
	target, err := m.targetLimits(ctx, plan, cycle)
	if err != nil {
		return nil, err
	}
	if err := m.ensureFits(ctx, tenantID, target); err != nil {
		return nil, err
	}

	return m.change(ctx, tenantID, EventDowngrade, func(sub *Subscription, now time.Time) error {
		current := effectivePlan(sub, now)
		if plan.Rank() >= current.Rank() {
			return &InvalidUpgradeError{From: current, To: plan, downgrade: true}
		}
		if plan == PlanFree {
			sub.reset()
			return nil
		}
		m.applyActivation(sub, plan, ActivateOptions{Cycle: cycle}, now)
		return nil
	})
}

// Deactivate is the administrative switch back to Free/inactive.
func (m *Manager) Deactivate(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	return m.change(ctx, tenantID, EventDeactivate, func(sub *Subscription, _ time.Time) error {
		sub.reset()
		return nil
	})
}

// EnsureCanCreate is the explicit pre-check for callers that create metered
// resources outside the HTTP interceptor. It applies to every plan.
func (m *Manager) EnsureCanCreate(ctx context.Context, tenantID uuid.UUID, res Resource) error {
	sub, err := m.GetOrCreate(ctx, tenantID)
	if err != nil {
		return err
	}
	return m.evaluator.Check(ctx, sub, res)
}

// HasFeature reports whether the tenant's current plan enables f.
func (m *Manager) HasFeature(ctx context.Context, tenantID uuid.UUID, f Feature) (bool, error) {
	sub, err := m.GetOrCreate(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return m.catalog.HasFeature(ctx, sub.Plan, f), nil
}

// UsageStats returns live usage against the tenant's current plan.
func (m *Manager) UsageStats(ctx context.Context, tenantID uuid.UUID) (map[Resource]UsageStat, error) {
	sub, err := m.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return m.evaluator.UsageStats(ctx, sub)
}

// Detail returns the reconciled subscription with its limits and derived values.
func (m *Manager) Detail(ctx context.Context, tenantID uuid.UUID) (*Detail, error) {
	sub, err := m.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	limits := m.catalog.LimitsFor(ctx, sub.Plan)
	return &Detail{
		Subscription:       sub,
		State:              sub.StateAt(now),
		Limits:             limits,
		Price:              limits.Price(sub.BillingCycle),
		Features:           limits.Features(),
		DaysRemaining:      sub.DaysRemainingAt(now),
		TrialDaysRemaining: sub.TrialDaysRemainingAt(now),
	}, nil
}

// change runs one lifecycle event under the tenant's write lock.
// An overdue record is reconciled first, so the event fires against the real state.
// The mutated copy is validated and checked against the transition table before
// anything is persisted.
func (m *Manager) change(ctx context.Context, tenantID uuid.UUID, event Event, mutate func(*Subscription, time.Time) error) (*Subscription, error) {
	now := m.now()

	before, err := m.store.GetOrCreate(ctx, New(tenantID, now))
	if err != nil {
		return nil, err
	}

	var (
		reconciled bool
		from, to   State
	)
	updated, err := m.store.Update(ctx, tenantID, func(sub *Subscription) error {
		reconciled = sub.ExpireIfNeeded(now)
		from = sub.StateAt(now)
		if err := mutate(sub, now); err != nil {
			return err
		}
		if err := sub.Validate(); err != nil {
			return err
		}
		to = sub.StateAt(now)
		if err := checkTransition(from, event, to); err != nil {
			return err
		}
		sub.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		m.log.DebugContext(ctx, "subscription change rejected",
			logger.TenantID(tenantID), logger.Event(event.String()), logger.Error(err))
		return nil, err
	}

	if reconciled {
		m.observer.Transition(ctx, EventExpire, StateExpired, StateFreeInactive)
	}
	m.observer.Transition(ctx, event, from, to)
	m.log.InfoContext(ctx, "subscription changed",
		logger.TenantID(tenantID),
		logger.Event(event.String()),
		slog.String("from_plan", string(before.Plan)),
		logger.Plan(string(updated.Plan)),
		slog.String("state", to.String()),
	)

	if m.detectBreaches && (reconciled || updated.Plan != before.Plan) {
		m.reportBreaches(ctx, updated)
	}
	return updated, nil
}

func (m *Manager) applyActivation(sub *Subscription, plan Plan, opts ActivateOptions, now time.Time) {
	if opts.Cycle != "" {
		sub.BillingCycle = opts.Cycle
	}
	days := opts.Days
	if days == 0 {
		days = sub.BillingCycle.Days()
	}
	gateway := opts.Gateway
	if gateway == "" {
		gateway = GatewayManual
	}
	sub.activate(plan, days, gateway, now)
	if opts.GatewaySubscriptionID != "" {
		sub.GatewaySubscriptionID = opts.GatewaySubscriptionID
	}
}

func (m *Manager) validateTarget(ctx context.Context, plan Plan) error {
	if !plan.Valid() {
		return NewValidationError("plan", "unknown plan "+string(plan))
	}
	_, err := m.catalog.Resolve(ctx, plan)
	return err
}

func (m *Manager) targetLimits(ctx context.Context, plan Plan, cycle BillingCycle) (PlanLimit, error) {
	if !plan.Valid() {
		return PlanLimit{}, NewValidationError("plan", "unknown plan "+string(plan))
	}
	if cycle != "" && !cycle.Valid() {
		return PlanLimit{}, NewValidationError("billing_cycle", "unknown billing cycle "+string(cycle))
	}
	return m.catalog.Resolve(ctx, plan)
}

// ensureFits refuses a plan change that would strand the tenant over quota.
func (m *Manager) ensureFits(ctx context.Context, tenantID uuid.UUID, target PlanLimit) error {
	exceeded, err := m.evaluator.exceeding(ctx, tenantID, target)
	if err != nil {
		return err
	}
	if exceeded != nil {
		return exceeded
	}
	return nil
}

// reportBreaches re-evaluates usage after a plan change or an expiry.
// Failures are logged only; the change itself has already been persisted.
func (m *Manager) reportBreaches(ctx context.Context, sub *Subscription) {
	stats, err := m.evaluator.UsageStats(ctx, sub)
	if err != nil {
		if !errors.Is(err, ErrNoCounterRegistered) {
			m.log.WarnContext(ctx, "usage re-evaluation failed",
				logger.TenantID(sub.TenantID), logger.Error(err))
		}
		return
	}

	for _, res := range MeteredResources {
		stat := stats[res]
		if !stat.OverLimit() {
			continue
		}
		m.observer.LimitBreach(ctx, sub.TenantID, res, stat)
		m.log.WarnContext(ctx, "tenant over plan limit",
			logger.TenantID(sub.TenantID),
			logger.Plan(string(sub.Plan)),
			logger.Resource(string(res)),
			slog.Int64("current", stat.Current),
			slog.Int64("max", stat.Max),
		)
	}
}

// effectivePlan is the plan a tenant pays for. A running trial counts as Free.
func effectivePlan(sub *Subscription, now time.Time) Plan {
	if !sub.IsActive || sub.IsTrialAt(now) {
		return PlanFree
	}
	return sub.Plan
}
