package billingapi

import (
	"errors"
	"net/http"

	"github.com/centerhub/billing/pkg/subscription"
	"github.com/centerhub/billing/pkg/tenant"
)

var (
	ErrInvalidRequestBody = errors.New("invalid request body")
	ErrInvalidTenantID    = errors.New("invalid tenant id")
	ErrUnknownFeature     = errors.New("unknown feature")
	ErrReadOnlyPlans      = errors.New("plan limits are read-only")
)

// ErrorBody is the JSON shape of every error response. Numeric fields are
// set for quota and upgrade-limit failures only.
type ErrorBody struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Resource string `json:"resource,omitempty"`
	Plan     string `json:"plan,omitempty"`
	Current  *int64 `json:"current,omitempty"`
	Max      *int64 `json:"max,omitempty"`
}

// errorResponse maps a domain error to its status code and body.
// Anything unrecognised is a 500 with a generic message.
func errorResponse(err error) (int, ErrorBody) {
	var (
		validation *subscription.ValidationError
		invalid    *subscription.InvalidUpgradeError
		overLimit  *subscription.LimitExceededOnUpgradeError
		quota      *subscription.QuotaExceededError
		transition *subscription.TransitionError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorBody{Error: "validation_error", Message: validation.Error(), Field: validation.Field}
	case errors.Is(err, ErrInvalidRequestBody), errors.Is(err, ErrInvalidTenantID), errors.Is(err, ErrUnknownFeature):
		return http.StatusBadRequest, ErrorBody{Error: "bad_request", Message: err.Error()}
	case errors.As(err, &overLimit):
		return http.StatusConflict, ErrorBody{
			Error:    "limit_exceeded_on_upgrade",
			Message:  overLimit.Error(),
			Resource: string(overLimit.Resource),
			Plan:     string(overLimit.Plan),
			Current:  &overLimit.Current,
			Max:      &overLimit.Limit,
		}
	case errors.As(err, &invalid):
		code := "invalid_upgrade"
		if errors.Is(err, subscription.ErrInvalidDowngrade) {
			code = "invalid_downgrade"
		}
		return http.StatusBadRequest, ErrorBody{Error: code, Message: invalid.Error(), Plan: string(invalid.To)}
	case errors.As(err, &quota):
		return http.StatusPaymentRequired, ErrorBody{
			Error:    "quota_exceeded",
			Message:  quota.Error(),
			Resource: string(quota.Resource),
			Current:  &quota.Current,
			Max:      &quota.Limit,
		}
	case errors.Is(err, subscription.ErrAlreadySubscribed):
		return http.StatusConflict, ErrorBody{Error: "already_subscribed", Message: err.Error()}
	case errors.Is(err, subscription.ErrTrialAlreadyUsed):
		return http.StatusConflict, ErrorBody{Error: "trial_already_used", Message: err.Error()}
	case errors.As(err, &transition):
		return http.StatusConflict, ErrorBody{Error: "invalid_transition", Message: transition.Error()}
	case errors.Is(err, subscription.ErrConcurrentUpdate):
		return http.StatusConflict, ErrorBody{Error: "concurrent_update", Message: "subscription changed concurrently, retry the request"}
	case errors.Is(err, subscription.ErrSubscriptionNotFound), errors.Is(err, subscription.ErrPlanLimitNotConfigured), errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, ErrorBody{Error: "not_found", Message: err.Error()}
	case errors.Is(err, ErrReadOnlyPlans):
		return http.StatusMethodNotAllowed, ErrorBody{Error: "read_only", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}
	}
}
