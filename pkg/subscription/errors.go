package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("invalid subscription state")
	ErrAlreadySubscribed      = errors.New("tenant already has an active subscription")
	ErrTrialAlreadyUsed       = errors.New("trial has already been used by this tenant")
	ErrInvalidUpgrade         = errors.New("target plan does not rank above the current plan")
	ErrInvalidDowngrade       = errors.New("target plan does not rank below the current plan")
	ErrLimitExceededOnUpgrade = errors.New("current usage exceeds the target plan limit")
	ErrQuotaExceeded          = errors.New("subscription quota exceeded")
	ErrInvalidTransition      = errors.New("subscription transition not allowed")

	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrPlanLimitNotConfigured = errors.New("plan limit not configured")
	ErrConcurrentUpdate       = errors.New("subscription was modified concurrently")

	ErrNoCounterRegistered        = errors.New("no usage counter registered for resource")
	ErrFailedToCountResourceUsage = errors.New("failed to count resource usage")
	ErrFailedToLoadPlanLimits     = errors.New("failed to load plan limits")
	ErrFailedToSaveSubscription   = errors.New("failed to save subscription")
)

// ValidationError reports malformed subscription or plan state.
// It is always fatal to the attempted write.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidUpgradeError is returned when a plan change goes the wrong direction
// for the requested operation.
type InvalidUpgradeError struct {
	From      Plan
	To        Plan
	downgrade bool
}

func (e *InvalidUpgradeError) Error() string {
	if e.downgrade {
		return fmt.Sprintf("cannot downgrade from %s to %s: target must rank below the current plan", e.From, e.To)
	}
	return fmt.Sprintf("cannot upgrade from %s to %s: target must rank above the current plan", e.From, e.To)
}

func (e *InvalidUpgradeError) Unwrap() error {
	if e.downgrade {
		return ErrInvalidDowngrade
	}
	return ErrInvalidUpgrade
}

// LimitExceededOnUpgradeError names the resource that blocks a plan change.
type LimitExceededOnUpgradeError struct {
	Plan     Plan
	Resource Resource
	Current  int64
	Limit    int64
}

func (e *LimitExceededOnUpgradeError) Error() string {
	return fmt.Sprintf("%s usage %d exceeds the %s plan limit of %d", e.Resource, e.Current, e.Plan, e.Limit)
}

func (e *LimitExceededOnUpgradeError) Unwrap() error { return ErrLimitExceededOnUpgrade }

// QuotaExceededError is returned before a resource is created over the plan cap.
// Safe to retry after reducing usage or upgrading.
type QuotaExceededError struct {
	Resource Resource
	Current  int64
	Limit    int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s limit reached: %d of %d", e.Resource, e.Current, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// TransitionError reports an event that is not allowed from the current state.
type TransitionError struct {
	State State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition from state '%s' for event '%s'", e.State, e.Event)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsQuotaExceeded extracts the quota details from err, if present.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var e *QuotaExceededError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsLimitExceededOnUpgrade extracts the blocking resource from err, if present.
func IsLimitExceededOnUpgrade(err error) (*LimitExceededOnUpgradeError, bool) {
	var e *LimitExceededOnUpgradeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsValidationError extracts the failing field from err, if present.
func IsValidationError(err error) (*ValidationError, bool) {
	var e *ValidationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
