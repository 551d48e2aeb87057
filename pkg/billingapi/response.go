package billingapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/centerhub/billing/pkg/enforcement"
	"github.com/centerhub/billing/pkg/subscription"
)

// SubscriptionResponse is the public view of a subscription with its derived values.
type SubscriptionResponse struct {
	TenantID              uuid.UUID                     `json:"tenant_id"`
	Plan                  subscription.Plan             `json:"plan"`
	BillingCycle          subscription.BillingCycle     `json:"billing_cycle"`
	State                 subscription.State            `json:"state"`
	IsActive              bool                          `json:"is_active"`
	IsTrial               bool                          `json:"is_trial"`
	IsExpired             bool                          `json:"is_expired"`
	StartsAt              *time.Time                    `json:"starts_at"`
	ExpiresAt             *time.Time                    `json:"expires_at"`
	TrialEndsAt           *time.Time                    `json:"trial_ends_at"`
	DaysRemaining         int                           `json:"days_remaining"`
	TrialDaysRemaining    int                           `json:"trial_days_remaining"`
	AutoRenew             bool                          `json:"auto_renew"`
	PaymentGateway        string                        `json:"payment_gateway,omitempty"`
	GatewaySubscriptionID string                        `json:"gateway_subscription_id,omitempty"`
	CurrentPrice          subscription.Money            `json:"current_price"`
	Features              map[subscription.Feature]bool `json:"features"`
	Limits                subscription.PlanLimit        `json:"limits"`
	UpdatedAt             time.Time                     `json:"updated_at"`
}

func newSubscriptionResponse(d *subscription.Detail) SubscriptionResponse {
	sub := d.Subscription
	return SubscriptionResponse{
		TenantID:              sub.TenantID,
		Plan:                  sub.Plan,
		BillingCycle:          sub.BillingCycle,
		State:                 d.State,
		IsActive:              sub.IsActive,
		IsTrial:               d.State == subscription.StateTrialing,
		IsExpired:             d.State == subscription.StateExpired,
		StartsAt:              sub.StartsAt,
		ExpiresAt:             sub.ExpiresAt,
		TrialEndsAt:           sub.TrialEndsAt,
		DaysRemaining:         d.DaysRemaining,
		TrialDaysRemaining:    d.TrialDaysRemaining,
		AutoRenew:             sub.AutoRenew,
		PaymentGateway:        sub.PaymentGateway,
		GatewaySubscriptionID: sub.GatewaySubscriptionID,
		CurrentPrice:          d.Price,
		Features:              d.Features,
		Limits:                d.Limits,
		UpdatedAt:             sub.UpdatedAt,
	}
}

// UsageResponse reports live usage against the current plan.
type UsageResponse struct {
	Plan     subscription.Plan                                `json:"plan"`
	State    subscription.State                               `json:"state"`
	Usage    map[subscription.Resource]subscription.UsageStat `json:"usage"`
	Limits   subscription.PlanLimit                           `json:"limits"`
	Features map[subscription.Feature]bool                    `json:"features"`
}

// PlansResponse lists every plan ordered by rank.
type PlansResponse struct {
	Plans []subscription.PlanLimit `json:"plans"`
}

// FeatureResponse answers a feature gate lookup.
type FeatureResponse struct {
	Feature subscription.Feature `json:"feature"`
	Enabled bool                 `json:"enabled"`
}

// QuotaCheckResponse is the outcome of POST /api/quota/check.
type QuotaCheckResponse struct {
	Allowed    bool                  `json:"allowed"`
	Reason     enforcement.Reason    `json:"reason"`
	Resource   subscription.Resource `json:"resource,omitempty"`
	Plan       subscription.Plan     `json:"plan,omitempty"`
	Reconciled bool                  `json:"reconciled"`
}

type planChangeRequest struct {
	Plan         string `json:"plan"`
	BillingCycle string `json:"billing_cycle"`
}

type trialRequest struct {
	Days int `json:"days"`
}

type activateRequest struct {
	Plan                  string `json:"plan"`
	Days                  int    `json:"days"`
	BillingCycle          string `json:"billing_cycle"`
	Gateway               string `json:"gateway"`
	GatewaySubscriptionID string `json:"gateway_subscription_id"`
}

type quotaCheckRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads at most limit bytes into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Join(ErrInvalidRequestBody, err)
	}
	return nil
}
