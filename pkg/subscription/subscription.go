package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Gateway labels written by the engine itself.
const (
	GatewayManual = "manual"
	GatewayTrial  = "trial"
)

// DefaultTrialDays is the trial length granted when none is requested.
const DefaultTrialDays = 14

// Subscription represents a tenant's subscription to a plan.
// Each tenant has exactly one subscription, so TenantID is the primary key.
//
// IsActive is not authoritative on its own: a record whose ExpiresAt has passed
// must be reconciled with ExpireIfNeeded before its limits are trusted.
type Subscription struct {
	TenantID              uuid.UUID
	Plan                  Plan
	BillingCycle          BillingCycle
	StartsAt              *time.Time
	ExpiresAt             *time.Time
	TrialEndsAt           *time.Time
	TrialStartedAt        *time.Time // kept across reconciliation, trials are single-use
	IsActive              bool
	PaymentGateway        string
	GatewaySubscriptionID string
	AutoRenew             bool
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// New returns the initial Free/inactive subscription of a tenant.
func New(tenantID uuid.UUID, now time.Time) *Subscription {
	now = now.UTC()
	return &Subscription{
		TenantID:     tenantID,
		Plan:         PlanFree,
		BillingCycle: BillingMonthly,
		AutoRenew:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.StartsAt = cloneTime(s.StartsAt)
	c.ExpiresAt = cloneTime(s.ExpiresAt)
	c.TrialEndsAt = cloneTime(s.TrialEndsAt)
	c.TrialStartedAt = cloneTime(s.TrialStartedAt)
	return &c
}

// IsTrialAt reports whether the trial window is still open at now.
func (s *Subscription) IsTrialAt(now time.Time) bool {
	return s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}

// IsExpiredAt reports whether the paid window has passed at now.
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// StateAt derives the lifecycle state from the stored fields.
func (s *Subscription) StateAt(now time.Time) State {
	switch {
	case s.IsExpiredAt(now):
		return StateExpired
	case !s.IsActive:
		return StateFreeInactive
	case s.IsTrialAt(now):
		return StateTrialing
	default:
		return StateActivePaid
	}
}

// IsPaidAt reports an active, non-Free subscription that is not a trial.
func (s *Subscription) IsPaidAt(now time.Time) bool {
	return s.IsActive && s.Plan != PlanFree && !s.IsTrialAt(now) && !s.IsExpiredAt(now)
}

// DaysRemainingAt returns whole days until expiry, 0 when inactive or past.
func (s *Subscription) DaysRemainingAt(now time.Time) int {
	if s.ExpiresAt == nil || !s.IsActive {
		return 0
	}
	return wholeDays(s.ExpiresAt.Sub(now))
}

// TrialDaysRemainingAt returns whole days until the trial ends, 0 when not trialing.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if s.TrialEndsAt == nil {
		return 0
	}
	return wholeDays(s.TrialEndsAt.Sub(now))
}

// Validate checks the record invariants. A non-Free plan must resolve to limits,
// which for the closed plan enumeration reduces to the plan being known.
func (s *Subscription) Validate() error {
	if !s.Plan.Valid() {
		return NewValidationError("plan", "unknown plan "+string(s.Plan))
	}
	if !s.BillingCycle.Valid() {
		return NewValidationError("billing_cycle", "unknown billing cycle "+string(s.BillingCycle))
	}
	if s.StartsAt != nil && s.ExpiresAt != nil && !s.ExpiresAt.After(*s.StartsAt) {
		return NewValidationError("expires_at", "must be after starts_at")
	}
	if s.TrialEndsAt != nil && s.StartsAt != nil && !s.TrialEndsAt.After(*s.StartsAt) {
		return NewValidationError("trial_ends_at", "must be after starts_at")
	}
	return nil
}

// activate opens a paid window of days starting at now.
func (s *Subscription) activate(plan Plan, days int, gateway string, now time.Time) {
	now = now.UTC()
	expires := now.AddDate(0, 0, days)
	s.Plan = plan
	s.StartsAt = &now
	s.ExpiresAt = &expires
	s.IsActive = true
	s.PaymentGateway = gateway
	// A paying tenant is no longer on trial.
	s.TrialEndsAt = nil
}

// startTrial grants Pro capability for days. The paid window mirrors the trial
// window so the trial ends through the regular expiry reconciliation.
func (s *Subscription) startTrial(days int, now time.Time) {
	now = now.UTC()
	ends := now.AddDate(0, 0, days)
	s.Plan = PlanPro
	s.StartsAt = &now
	s.ExpiresAt = cloneTime(&ends)
	s.TrialEndsAt = &ends
	s.TrialStartedAt = cloneTime(&now)
	s.IsActive = true
	s.PaymentGateway = GatewayTrial
}

// reset moves the record to the canonical Free/inactive shape.
func (s *Subscription) reset() {
	s.Plan = PlanFree
	s.IsActive = false
	s.StartsAt = nil
	s.ExpiresAt = nil
	s.TrialEndsAt = nil
	s.PaymentGateway = ""
	s.GatewaySubscriptionID = ""
}

// ExpireIfNeeded reconciles a record whose expiry passed before now.
// It reports whether anything changed and is a no-op on repeated calls.
func (s *Subscription) ExpireIfNeeded(now time.Time) bool {
	if !s.IsExpiredAt(now) {
		return false
	}
	s.reset()
	return true
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
