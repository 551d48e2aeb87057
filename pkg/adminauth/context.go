package adminauth

import "context"

type claimsKey struct{}

// WithClaims stores verified operator claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the operator claims stored by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// Operator returns the subject of the verified operator token, or ErrNoClaimsInCtx.
func Operator(ctx context.Context) (string, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoClaimsInCtx
	}
	return c.Subject, nil
}
