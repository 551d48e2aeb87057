package enforcement

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/centerhub/billing/pkg/logger"
	"github.com/centerhub/billing/pkg/subscription"
)

// DefaultAllowList holds path prefixes that are never blocked, so an over-quota
// tenant can always reach authentication, upgrade and usage endpoints.
var DefaultAllowList = []string{
	"/api/auth/",
	"/admin/",
	"/api/subscriptions/upgrade",
	"/api/subscriptions/start-trial",
	"/api/subscriptions/usage",
}

// Reason explains a Decision.
type Reason string

const (
	ReasonAllowListed   Reason = "allow_listed"
	ReasonNotMutating   Reason = "not_mutating"
	ReasonNotMetered    Reason = "not_metered"
	ReasonPaidPlan      Reason = "paid_plan"
	ReasonWithinQuota   Reason = "within_quota"
	ReasonQuotaExceeded Reason = "quota_exceeded"
)

// Target is the request being intercepted.
type Target struct {
	Method string
	Path   string
}

// Decision is the outcome of an interception.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Resource subscription.Resource
	Plan     subscription.Plan
	// Reconciled is set when the check expired a stale subscription.
	Reconciled bool
}

// Lifecycle reconciles a tenant's subscription before it is trusted.
type Lifecycle interface {
	ExpireIfNeeded(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, bool, error)
}

// QuotaChecker counts a resource live and denies with *subscription.QuotaExceededError.
type QuotaChecker interface {
	Check(ctx context.Context, sub *subscription.Subscription, res subscription.Resource) error
}

// Interceptor guards resource-creating requests of Free-plan tenants.
// Paid and trialing tenants are gated at plan-change time only.
type Interceptor struct {
	lifecycle Lifecycle
	quota     QuotaChecker
	routes    RouteTable
	allow     []string
	log       *slog.Logger
}

// NewInterceptor creates an Interceptor.
// Panics if lifecycle or quota is nil to fail fast during initialization.
func NewInterceptor(lifecycle Lifecycle, quota QuotaChecker, opts ...Option) *Interceptor {
	if lifecycle == nil {
		panic("enforcement: Lifecycle is required")
	}
	if quota == nil {
		panic("enforcement: QuotaChecker is required")
	}

	i := &Interceptor{
		lifecycle: lifecycle,
		quota:     quota,
		routes:    DefaultRoutes,
		allow:     DefaultAllowList,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Check decides whether the request may proceed. A denial returns the
// *subscription.QuotaExceededError alongside the decision; any other error
// means the decision could not be made.
func (i *Interceptor) Check(ctx context.Context, tenantID uuid.UUID, target Target) (Decision, error) {
	if i.allowListed(target.Path) {
		return Decision{Allowed: true, Reason: ReasonAllowListed}, nil
	}
	if !mutating(target.Method) {
		return Decision{Allowed: true, Reason: ReasonNotMutating}, nil
	}

	sub, reconciled, err := i.lifecycle.ExpireIfNeeded(ctx, tenantID)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Plan: sub.Plan, Reconciled: reconciled}

	if sub.Plan != subscription.PlanFree {
		d.Allowed, d.Reason = true, ReasonPaidPlan
		return d, nil
	}

	res, ok := i.routes.Match(target.Method, target.Path)
	if !ok {
		d.Allowed, d.Reason = true, ReasonNotMetered
		return d, nil
	}
	d.Resource = res

	if err := i.quota.Check(ctx, sub, res); err != nil {
		if _, denied := subscription.IsQuotaExceeded(err); denied {
			d.Reason = ReasonQuotaExceeded
			i.log.InfoContext(ctx, "request blocked by quota",
				logger.TenantID(tenantID), logger.Resource(string(res)), logger.Error(err))
			return d, err
		}
		return Decision{}, err
	}

	d.Allowed, d.Reason = true, ReasonWithinQuota
	return d, nil
}

func (i *Interceptor) allowListed(path string) bool {
	for _, prefix := range i.allow {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
