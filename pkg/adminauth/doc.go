// Package adminauth guards the administrative billing endpoints with HS256
// operator tokens.
//
// Tokens carry the billing_operator role and are minted by the operators'
// tooling (or `billingd admin-token`) with the shared ADMIN_JWT_SECRET.
//
//	svc, err := adminauth.New(cfg.Admin)
//	r.With(adminauth.Middleware(svc, log)).Post("/admin/subscriptions/{tenantID}/activate", h.activate)
//
// Handlers read the operator identity with Operator(ctx) for audit logging.
package adminauth
