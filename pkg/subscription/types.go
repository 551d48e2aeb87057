package subscription

import (
	"fmt"
	"strings"
)

// Plan is the subscription tier of a tenant.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// AllPlans lists every plan ordered by rank.
var AllPlans = []Plan{PlanFree, PlanPro, PlanEnterprise}

// Rank returns the fixed ordering Free(0) < Pro(1) < Enterprise(2).
// Unknown plans rank -1.
func (p Plan) Rank() int {
	switch p {
	case PlanFree:
		return 0
	case PlanPro:
		return 1
	case PlanEnterprise:
		return 2
	default:
		return -1
	}
}

// Valid reports whether p belongs to the plan enumeration.
func (p Plan) Valid() bool {
	return p.Rank() >= 0
}

func (p Plan) String() string {
	return string(p)
}

// ParsePlan converts user input into a Plan. Matching is case-insensitive.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", NewValidationError("plan", fmt.Sprintf("unknown plan %q", s))
	}
	return p, nil
}

// BillingCycle is the billing period of a paid subscription.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Days returns the default activation length for the cycle.
// Anything other than yearly is treated as monthly.
func (c BillingCycle) Days() int {
	if c == BillingYearly {
		return 365
	}
	return 30
}

// Valid reports whether c is a known billing cycle.
func (c BillingCycle) Valid() bool {
	return c == BillingMonthly || c == BillingYearly
}

// ParseBillingCycle converts user input into a BillingCycle; empty input means monthly.
func ParseBillingCycle(s string) (BillingCycle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BillingMonthly, nil
	}
	c := BillingCycle(s)
	if !c.Valid() {
		return "", NewValidationError("billing_cycle", fmt.Sprintf("unknown billing cycle %q", s))
	}
	return c, nil
}

// Resource represents a countable tenant resource type.
type Resource string

const (
	ResourceStudents Resource = "students"
	ResourceTeachers Resource = "teachers"
	ResourceGroups   Resource = "groups"
)

// MeteredResources are the resource kinds capped by a plan.
var MeteredResources = []Resource{ResourceStudents, ResourceTeachers, ResourceGroups}

// Metered reports whether the resource count is capped by plans.
func (r Resource) Metered() bool {
	switch r {
	case ResourceStudents, ResourceTeachers, ResourceGroups:
		return true
	}
	return false
}

// Unlimited marks an explicitly unmetered resource limit (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Feature represents a plan-gated capability.
type Feature string

const (
	FeatureAnalytics      Feature = "analytics"
	FeatureLiveGames      Feature = "live_games"
	FeatureCustomBranding Feature = "custom_branding"
)

// DefaultCurrency is the currency of the built-in price table.
const DefaultCurrency = "UZS"

// Money represents a monetary amount in the smallest currency unit.
// For example, 99 000.50 UZS is Amount: 9900050, Currency: "UZS".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// MoneyFromMajor builds Money from a whole amount in major units.
func MoneyFromMajor(major int64, currency string) Money {
	return Money{Amount: major * 100, Currency: currency}
}

// Major returns the amount in major units as a float for display purposes.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// UsageStat describes how much of a metered resource a tenant consumes.
type UsageStat struct {
	Current    int64   `json:"current"`
	Max        int64   `json:"max"`
	Percentage float64 `json:"percentage"`
}

// OverLimit reports whether usage exceeds a metered maximum.
func (u UsageStat) OverLimit() bool {
	return u.Max != Unlimited && u.Current > u.Max
}
