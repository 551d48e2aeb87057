// Package billingapi exposes subscription management over HTTP.
//
// Tenant endpoints live under /api and act on the center resolved from the
// X-Tenant-ID header (or the request subdomain when configured). Operator
// endpoints live under /admin and require a bearer token issued by
// package adminauth.
//
// Errors are returned as a flat JSON object:
//
//	{"error": "limit_exceeded_on_upgrade", "message": "...", "resource": "students", "current": 120, "max": 100}
//
// Status codes: 400 for malformed input and wrong-direction plan changes,
// 402 for quota denials, 404 for unknown tenants, 409 for conflicts with the
// current subscription state, 429 when a tenant changes plans too often.
package billingapi
