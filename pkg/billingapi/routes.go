package billingapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/centerhub/billing/pkg/adminauth"
	"github.com/centerhub/billing/pkg/httpserver"
	"github.com/centerhub/billing/pkg/metrics"
	"github.com/centerhub/billing/pkg/tenant"
)

// RouterDeps are the collaborators the router wires around a Handler.
// Metrics and Checks are optional.
type RouterDeps struct {
	Tenants tenant.Provider
	Admin   *adminauth.Service
	Metrics *metrics.Collector
	Checks  []httpserver.Check
}

// Router builds the full HTTP surface:
//
//	GET  /healthz
//	GET  /metrics
//	/api/*    tenant endpoints, resolved from the tenant header or subdomain
//	/admin/*  operator endpoints, bearer token required
func (h *Handler) Router(deps RouterDeps) http.Handler {
	if deps.Tenants == nil {
		panic("billingapi: tenant Provider is required")
	}
	if deps.Admin == nil {
		panic("billingapi: admin auth Service is required")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	healthTimeout := h.cfg.HealthCheckTimeout
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}
	r.Get("/healthz", httpserver.HealthCheckHandler(h.log, healthTimeout, deps.Checks...))

	r.Group(func(r chi.Router) {
		if h.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.cfg.RequestTimeout))
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(
				tenant.Middleware(h.tenantResolver(), deps.Tenants,
					tenant.WithErrorHandler(h.tenantError),
					tenant.WithLogger(h.log)),
				tenant.RequireTenant(h.tenantError),
			)

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/me", h.Me)
				r.Get("/usage", h.Usage)
				r.Get("/plans", h.Plans)
				r.Get("/features/{feature}", h.Feature)

				r.Group(func(r chi.Router) {
					if h.cfg.ChangesPerMinute > 0 {
						r.Use(newChangeLimiter(h.cfg.ChangesPerMinute).middleware)
					}
					r.Post("/upgrade", h.Upgrade)
					r.Post("/downgrade", h.Downgrade)
					r.Post("/start-trial", h.StartTrial)
				})
			})
			r.Post("/quota/check", h.QuotaCheck)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminauth.Middleware(deps.Admin, h.log))
			r.Route("/subscriptions/{tenantID}", func(r chi.Router) {
				r.Get("/", h.AdminSubscription)
				r.Post("/activate", h.Activate)
				r.Post("/deactivate", h.Deactivate)
			})
			r.Put("/plans/{plan}", h.PutPlan)
		})
	})

	return r
}

func (h *Handler) tenantResolver() tenant.Resolver {
	resolvers := []tenant.Resolver{tenant.NewHeaderResolver(h.cfg.TenantHeader)}
	if h.cfg.SubdomainSuffix != "" {
		resolvers = append(resolvers, tenant.NewSubdomainResolver(h.cfg.SubdomainSuffix))
	}
	return tenant.NewCompositeResolver(resolvers...)
}

func (h *Handler) tenantError(w http.ResponseWriter, _ *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		status, code = http.StatusNotFound, "tenant_not_found"
	case errors.Is(err, tenant.ErrInactiveTenant):
		status, code = http.StatusForbidden, "tenant_inactive"
	case errors.Is(err, tenant.ErrInvalidIdentifier):
		status, code = http.StatusBadRequest, "invalid_tenant"
	case errors.Is(err, tenant.ErrNoTenantInContext):
		status, code = http.StatusUnauthorized, "tenant_required"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	writeJSON(w, status, ErrorBody{Error: code, Message: message})
}
