package adminauth

import "errors"

var (
	ErrMissingToken  = errors.New("adminauth: missing bearer token")
	ErrInvalidToken  = errors.New("adminauth: invalid token")
	ErrForbidden     = errors.New("adminauth: operator role required")
	ErrMissingSecret = errors.New("adminauth: signing secret is too short")
	ErrFailedToSign  = errors.New("adminauth: failed to sign token")
	ErrNoClaimsInCtx = errors.New("adminauth: no claims in context")
)
