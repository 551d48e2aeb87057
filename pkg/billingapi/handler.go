package billingapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/centerhub/billing/pkg/adminauth"
	"github.com/centerhub/billing/pkg/enforcement"
	"github.com/centerhub/billing/pkg/logger"
	"github.com/centerhub/billing/pkg/subscription"
	"github.com/centerhub/billing/pkg/tenant"
)

// Handler serves the tenant-facing subscription endpoints and the operator endpoints.
type Handler struct {
	manager     *subscription.Manager
	catalog     *subscription.Catalog
	interceptor *enforcement.Interceptor
	limits      subscription.LimitWriter
	cfg         Config
	log         *slog.Logger
}

// NewHandler creates a Handler.
// Panics if manager, catalog or interceptor is nil to fail fast during initialization.
func NewHandler(manager *subscription.Manager, catalog *subscription.Catalog, interceptor *enforcement.Interceptor, opts ...Option) *Handler {
	if manager == nil {
		panic("billingapi: Manager is required")
	}
	if catalog == nil {
		panic("billingapi: Catalog is required")
	}
	if interceptor == nil {
		panic("billingapi: Interceptor is required")
	}

	h := &Handler{
		manager:     manager,
		catalog:     catalog,
		interceptor: interceptor,
		cfg: Config{
			TenantHeader:     tenant.DefaultHeader,
			MaxBodyBytes:     64 << 10,
			ChangesPerMinute: 10,
		},
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.MaxBodyBytes <= 0 {
		h.cfg.MaxBodyBytes = 64 << 10
	}
	return h
}

// Me handles GET /api/subscriptions/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.respondDetail(w, r, currentTenant(r), http.StatusOK)
}

// Usage handles GET /api/subscriptions/usage.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	id := currentTenant(r)
	detail, err := h.manager.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.manager.UsageStats(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UsageResponse{
		Plan:     detail.Subscription.Plan,
		State:    detail.State,
		Usage:    stats,
		Limits:   detail.Limits,
		Features: detail.Features,
	})
}

// Plans handles GET /api/subscriptions/plans. Default limits are seeded on
// first use so a fresh deployment lists every plan.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Seed(r.Context()); err != nil {
		h.log.WarnContext(r.Context(), "plan limits seeding failed", logger.Error(err))
	}
	writeJSON(w, http.StatusOK, PlansResponse{Plans: h.catalog.Plans(r.Context())})
}

// Feature handles GET /api/subscriptions/features/{feature}.
func (h *Handler) Feature(w http.ResponseWriter, r *http.Request) {
	f := subscription.Feature(strings.ToLower(chi.URLParam(r, "feature")))
	switch f {
	case subscription.FeatureAnalytics, subscription.FeatureLiveGames, subscription.FeatureCustomBranding:
	default:
		h.fail(w, r, ErrUnknownFeature)
		return
	}

	enabled, err := h.manager.HasFeature(r.Context(), currentTenant(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeatureResponse{Feature: f, Enabled: enabled})
}

type planChangeFunc func(ctx context.Context, id uuid.UUID, plan subscription.Plan, cycle subscription.BillingCycle) (*subscription.Subscription, error)

// Upgrade handles POST /api/subscriptions/upgrade.
func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	h.changePlan(w, r, h.manager.RequestUpgrade)
}

// Downgrade handles POST /api/subscriptions/downgrade.
func (h *Handler) Downgrade(w http.ResponseWriter, r *http.Request) {
	h.changePlan(w, r, h.manager.RequestDowngrade)
}

func (h *Handler) changePlan(w http.ResponseWriter, r *http.Request, change planChangeFunc) {
	var req planChangeRequest
	if err := decodeJSON(r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	plan, err := subscription.ParsePlan(req.Plan)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cycle, err := subscription.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := currentTenant(r)
	if _, err := change(r.Context(), id, plan, cycle); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondDetail(w, r, id, http.StatusOK)
}

// StartTrial handles POST /api/subscriptions/start-trial. An empty body or
// zero days selects the default trial length.
func (h *Handler) StartTrial(w http.ResponseWriter, r *http.Request) {
	var req trialRequest
	if err := decodeJSON(r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	id := currentTenant(r)
	if _, err := h.manager.ActivateTrial(r.Context(), id, req.Days); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondDetail(w, r, id, http.StatusOK)
}

// QuotaCheck handles POST /api/quota/check. It reports what the interceptor
// would decide for the given request target without performing it.
func (h *Handler) QuotaCheck(w http.ResponseWriter, r *http.Request) {
	var req quotaCheckRequest
	if err := decodeJSON(r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Path == "" {
		h.fail(w, r, subscription.NewValidationError("path", "must not be empty"))
		return
	}
	if req.Method == "" {
		req.Method = http.MethodPost
	}

	decision, err := h.interceptor.Check(r.Context(), currentTenant(r), enforcement.Target{
		Method: strings.ToUpper(req.Method),
		Path:   req.Path,
	})
	if err != nil && !errors.Is(err, subscription.ErrQuotaExceeded) {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuotaCheckResponse{
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
		Resource:   decision.Resource,
		Plan:       decision.Plan,
		Reconciled: decision.Reconciled,
	})
}

// Activate handles POST /admin/subscriptions/{tenantID}/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := tenantParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req activateRequest
	if err := decodeJSON(r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	plan, err := subscription.ParsePlan(req.Plan)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var cycle subscription.BillingCycle
	if req.BillingCycle != "" {
		if cycle, err = subscription.ParseBillingCycle(req.BillingCycle); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if req.Days < 0 {
		h.fail(w, r, subscription.NewValidationError("days", "must not be negative"))
		return
	}

	if _, err := h.manager.Activate(r.Context(), id, plan, subscription.ActivateOptions{
		Days:                  req.Days,
		Cycle:                 cycle,
		Gateway:               req.Gateway,
		GatewaySubscriptionID: req.GatewaySubscriptionID,
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit(r, "subscription activated", id, logger.Plan(string(plan)))
	h.respondDetail(w, r, id, http.StatusOK)
}

// Deactivate handles POST /admin/subscriptions/{tenantID}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := tenantParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.manager.Deactivate(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit(r, "subscription deactivated", id)
	h.respondDetail(w, r, id, http.StatusOK)
}

// AdminSubscription handles GET /admin/subscriptions/{tenantID}.
func (h *Handler) AdminSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := tenantParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondDetail(w, r, id, http.StatusOK)
}

// PutPlan handles PUT /admin/plans/{plan}. The plan in the path wins over the body.
func (h *Handler) PutPlan(w http.ResponseWriter, r *http.Request) {
	if h.limits == nil {
		h.fail(w, r, ErrReadOnlyPlans)
		return
	}
	plan, err := subscription.ParsePlan(chi.URLParam(r, "plan"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var limit subscription.PlanLimit
	if err := decodeJSON(r, h.cfg.MaxBodyBytes, &limit); err != nil {
		h.fail(w, r, err)
		return
	}
	limit.Plan = plan

	if err := h.limits.Upsert(r.Context(), limit); err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit(r, "plan limits updated", uuid.Nil, logger.Plan(string(plan)))
	writeJSON(w, http.StatusOK, h.catalog.LimitsFor(r.Context(), plan))
}

func (h *Handler) respondDetail(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	detail, err := h.manager.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, newSubscriptionResponse(detail))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "billing request failed",
			logger.Component("billingapi"), logger.Error(err))
	}
	writeJSON(w, status, body)
}

func (h *Handler) audit(r *http.Request, msg string, id uuid.UUID, attrs ...slog.Attr) {
	operator, _ := adminauth.Operator(r.Context())
	args := []any{logger.Component("billingapi"), logger.Operator(operator)}
	if id != uuid.Nil {
		args = append(args, logger.TenantID(id))
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	h.log.InfoContext(r.Context(), msg, args...)
}

// currentTenant is only called behind RequireTenant.
func currentTenant(r *http.Request) uuid.UUID {
	id, _ := tenant.IDFromContext(r.Context())
	return id
}

func tenantParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidTenantID, err)
	}
	return id, nil
}
