package subscription

import (
	"fmt"
	"slices"
)

// PlanLimit describes the resource caps, feature flags and prices of a plan.
type PlanLimit struct {
	Plan           Plan   `json:"plan" yaml:"plan"`
	MaxStudents    int64  `json:"max_students" yaml:"max_students"` // -1 represents unlimited
	MaxTeachers    int64  `json:"max_teachers" yaml:"max_teachers"`
	MaxGroups      int64  `json:"max_groups" yaml:"max_groups"`
	Analytics      bool   `json:"has_analytics" yaml:"has_analytics"`
	LiveGames      bool   `json:"has_live_games" yaml:"has_live_games"`
	CustomBranding bool   `json:"has_custom_branding" yaml:"has_custom_branding"`
	MonthlyPrice   Money  `json:"price_monthly" yaml:"price_monthly"`
	YearlyPrice    Money  `json:"price_yearly" yaml:"price_yearly"`
	Description    string `json:"description" yaml:"description"`
}

// Max returns the cap for a resource. The second value is false for
// resource kinds the plan does not meter.
func (l PlanLimit) Max(res Resource) (int64, bool) {
	switch res {
	case ResourceStudents:
		return l.MaxStudents, true
	case ResourceTeachers:
		return l.MaxTeachers, true
	case ResourceGroups:
		return l.MaxGroups, true
	default:
		return 0, false
	}
}

// Unmetered reports whether no metered resource is capped.
func (l PlanLimit) Unmetered() bool {
	return l.MaxStudents == Unlimited && l.MaxTeachers == Unlimited && l.MaxGroups == Unlimited
}

// HasFeature reports whether the plan enables the feature. Unknown features are disabled.
func (l PlanLimit) HasFeature(f Feature) bool {
	switch f {
	case FeatureAnalytics:
		return l.Analytics
	case FeatureLiveGames:
		return l.LiveGames
	case FeatureCustomBranding:
		return l.CustomBranding
	default:
		return false
	}
}

// Features returns the feature flags keyed by feature name.
func (l PlanLimit) Features() map[Feature]bool {
	return map[Feature]bool{
		FeatureAnalytics:      l.Analytics,
		FeatureLiveGames:      l.LiveGames,
		FeatureCustomBranding: l.CustomBranding,
	}
}

// Price returns the price charged for one billing cycle.
func (l PlanLimit) Price(cycle BillingCycle) Money {
	if cycle == BillingYearly {
		return l.YearlyPrice
	}
	return l.MonthlyPrice
}

// Validate checks that the limit row is internally consistent.
func (l PlanLimit) Validate() error {
	if !l.Plan.Valid() {
		return NewValidationError("plan", fmt.Sprintf("unknown plan %q", l.Plan))
	}
	for _, res := range MeteredResources {
		limit, _ := l.Max(res)
		if limit < 0 && limit != Unlimited {
			return NewValidationError("max_"+string(res), fmt.Sprintf("negative limit %d", limit))
		}
	}
	if l.MonthlyPrice.Amount < 0 {
		return NewValidationError("price_monthly", "negative price")
	}
	if l.YearlyPrice.Amount < 0 {
		return NewValidationError("price_yearly", "negative price")
	}
	return nil
}

var defaultLimits = map[Plan]PlanLimit{
	PlanFree: {
		Plan:        PlanFree,
		MaxStudents: 50,
		MaxTeachers: 5,
		MaxGroups:   10,
		Description: "Free starter plan",
	},
	PlanPro: {
		Plan:         PlanPro,
		MaxStudents:  200,
		MaxTeachers:  20,
		MaxGroups:    50,
		Analytics:    true,
		LiveGames:    true,
		MonthlyPrice: MoneyFromMajor(99_000, DefaultCurrency),
		YearlyPrice:  MoneyFromMajor(990_000, DefaultCurrency),
		Description:  "Professional plan with all core features",
	},
	PlanEnterprise: {
		Plan:           PlanEnterprise,
		MaxStudents:    1000,
		MaxTeachers:    100,
		MaxGroups:      200,
		Analytics:      true,
		LiveGames:      true,
		CustomBranding: true,
		MonthlyPrice:   MoneyFromMajor(299_000, DefaultCurrency),
		YearlyPrice:    MoneyFromMajor(2_990_000, DefaultCurrency),
		Description:    "Enterprise plan with maximum capacity",
	},
}

// DefaultLimitsFor returns the built-in limits of a plan.
// The second value is false for plans outside the enumeration.
func DefaultLimitsFor(plan Plan) (PlanLimit, bool) {
	l, ok := defaultLimits[plan]
	return l, ok
}

// DefaultLimits returns the built-in table ordered by plan rank.
func DefaultLimits() []PlanLimit {
	out := make([]PlanLimit, 0, len(AllPlans))
	for _, p := range AllPlans {
		out = append(out, defaultLimits[p])
	}
	return out
}

// sortByRank orders limits Free, Pro, Enterprise.
func sortByRank(limits []PlanLimit) {
	slices.SortFunc(limits, func(a, b PlanLimit) int {
		return a.Plan.Rank() - b.Plan.Rank()
	})
}
