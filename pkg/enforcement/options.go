package enforcement

import "log/slog"

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithRoutes replaces the route table.
func WithRoutes(routes RouteTable) Option {
	return func(i *Interceptor) {
		if len(routes) > 0 {
			i.routes = routes
		}
	}
}

// WithAllowList replaces the allow-listed path prefixes.
func WithAllowList(prefixes ...string) Option {
	return func(i *Interceptor) {
		i.allow = prefixes
	}
}

// WithLogger sets the logger used for denials.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.log = l
		}
	}
}
