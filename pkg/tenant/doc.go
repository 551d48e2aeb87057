// Package tenant resolves the acting learning center of an HTTP request.
//
// Authentication is handled upstream; this package only maps a request to a
// Tenant (by header or subdomain), loads it through a Provider and places it
// in the request context, where the enforcement interceptor and the billing
// handlers read it.
//
//	r.Use(tenant.Middleware(
//		tenant.NewCompositeResolver(tenant.NewHeaderResolver(""), tenant.NewSubdomainResolver(".centerhub.uz")),
//		centers,
//		tenant.WithSkipPaths("/healthz", "/metrics"),
//	))
package tenant
