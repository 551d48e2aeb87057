// Package enforcement blocks resource-creating requests that would push a
// Free-plan tenant over its quota.
//
// For every mutating, tenant-scoped request the Interceptor
//
//  1. skips allow-listed paths (auth, admin, upgrade, start-trial, usage),
//  2. reconciles the tenant's subscription with ExpireIfNeeded,
//  3. lets non-Free tenants through,
//  4. maps the target to a metered resource through a static RouteTable and
//     counts it live; at or above the plan cap the request is denied.
//
// Step 2 is what makes an expired Pro tenant hit the Free limits on its very
// next request. Paid and trialing tenants are only gated when they change plans.
//
// Middleware renders a denial as HTTP 402:
//
//	{"error":"quota_exceeded","message":"...","resource":"students","current":50,"max":50}
//
// Resource CRUD for students, teachers and groups is served by the platform
// services, so billingd does not mount Middleware itself. It exposes the same
// decision at POST /api/quota/check. Services that embed this module mount the
// guard after tenant resolution:
//
//	r.Use(tenant.Middleware(resolver, centers))
//	r.Use(enforcement.Middleware(enforcement.NewInterceptor(manager, evaluator)))
//	r.Post("/api/students", createStudent)
//
// Concurrent creations can overshoot a limit by the check-then-act race; the
// count is taken before the create runs in a separate transaction.
package enforcement
