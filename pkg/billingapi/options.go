package billingapi

import (
	"log/slog"

	"github.com/centerhub/billing/pkg/subscription"
)

// Option configures a Handler.
type Option func(*Handler)

// WithConfig overrides the default request limits.
func WithConfig(cfg Config) Option {
	return func(h *Handler) {
		h.cfg = cfg
	}
}

// WithLimitWriter enables PUT /admin/plans/{plan}. Without it the plan table is read-only.
func WithLimitWriter(w subscription.LimitWriter) Option {
	return func(h *Handler) {
		h.limits = w
	}
}

// WithLogger sets the logger for unexpected failures and operator actions.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}
