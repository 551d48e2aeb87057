package subscription_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/subscription"
)

func ptr(t time.Time) *time.Time { return &t }

func TestNew(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sub := subscription.New(uuid.New(), now)
	assert.Equal(t, subscription.PlanFree, sub.Plan)
	assert.Equal(t, subscription.BillingMonthly, sub.BillingCycle)
	assert.False(t, sub.IsActive)
	assert.True(t, sub.AutoRenew)
	assert.Nil(t, sub.ExpiresAt)
	assert.Equal(t, subscription.StateFreeInactive, sub.StateAt(now))
	require.NoError(t, sub.Validate())
}

func TestSubscription_StateAt(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  subscription.Subscription
		want subscription.State
	}{
		{
			name: "inactive",
			sub:  subscription.Subscription{Plan: subscription.PlanFree},
			want: subscription.StateFreeInactive,
		},
		{
			name: "trial window open",
			sub: subscription.Subscription{
				Plan: subscription.PlanPro, IsActive: true,
				ExpiresAt: ptr(now.Add(48 * time.Hour)), TrialEndsAt: ptr(now.Add(48 * time.Hour)),
			},
			want: subscription.StateTrialing,
		},
		{
			name: "paid",
			sub: subscription.Subscription{
				Plan: subscription.PlanPro, IsActive: true, ExpiresAt: ptr(now.Add(time.Hour)),
			},
			want: subscription.StateActivePaid,
		},
		{
			name: "paid with past trial",
			sub: subscription.Subscription{
				Plan: subscription.PlanPro, IsActive: true,
				ExpiresAt: ptr(now.Add(time.Hour)), TrialEndsAt: ptr(now.Add(-time.Hour)),
			},
			want: subscription.StateActivePaid,
		},
		{
			name: "expired but not reconciled",
			sub: subscription.Subscription{
				Plan: subscription.PlanPro, IsActive: true, ExpiresAt: ptr(now.Add(-time.Hour)),
			},
			want: subscription.StateExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.sub.StateAt(now))
		})
	}
}

func TestSubscription_ExpireIfNeeded(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("reconciles past expiry", func(t *testing.T) {
		t.Parallel()
		sub := &subscription.Subscription{
			Plan:           subscription.PlanEnterprise,
			BillingCycle:   subscription.BillingYearly,
			IsActive:       true,
			StartsAt:       ptr(now.AddDate(-1, 0, -1)),
			ExpiresAt:      ptr(now.AddDate(0, 0, -1)),
			TrialEndsAt:    ptr(now.AddDate(0, 0, -20)),
			PaymentGateway: "payme",
		}

		require.True(t, sub.ExpireIfNeeded(now))
		assert.Equal(t, subscription.PlanFree, sub.Plan)
		assert.False(t, sub.IsActive)
		assert.Nil(t, sub.StartsAt)
		assert.Nil(t, sub.ExpiresAt)
		assert.Nil(t, sub.TrialEndsAt)
		assert.Empty(t, sub.PaymentGateway)

		snapshot := *sub
		assert.False(t, sub.ExpireIfNeeded(now))
		assert.Equal(t, snapshot, *sub)
	})

	t.Run("still valid is untouched", func(t *testing.T) {
		t.Parallel()
		sub := &subscription.Subscription{
			Plan: subscription.PlanPro, IsActive: true, ExpiresAt: ptr(now.Add(time.Minute)),
		}
		assert.False(t, sub.ExpireIfNeeded(now))
		assert.Equal(t, subscription.PlanPro, sub.Plan)
		assert.True(t, sub.IsActive)
	})

	t.Run("no expiry set is untouched", func(t *testing.T) {
		t.Parallel()
		sub := subscription.New(uuid.New(), now)
		assert.False(t, sub.ExpireIfNeeded(now))
	})
}

func TestSubscription_Validate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	sub := subscription.New(uuid.New(), now)
	sub.StartsAt = ptr(now)
	sub.ExpiresAt = ptr(now)
	err := sub.Validate()
	ve, ok := subscription.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "expires_at", ve.Field)

	sub.ExpiresAt = ptr(now.Add(time.Hour))
	sub.Plan = "gold"
	assert.ErrorIs(t, sub.Validate(), subscription.ErrValidation)

	sub.Plan = subscription.PlanPro
	sub.TrialEndsAt = ptr(now.Add(-time.Hour))
	ve, ok = subscription.IsValidationError(sub.Validate())
	require.True(t, ok)
	assert.Equal(t, "trial_ends_at", ve.Field)
}

func TestSubscription_DaysRemaining(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	sub := &subscription.Subscription{
		Plan: subscription.PlanPro, IsActive: true,
		ExpiresAt:   ptr(now.Add(10*24*time.Hour + time.Hour)),
		TrialEndsAt: ptr(now.Add(3 * 24 * time.Hour)),
	}
	assert.Equal(t, 10, sub.DaysRemainingAt(now))
	assert.Equal(t, 3, sub.TrialDaysRemainingAt(now))
	assert.Equal(t, 0, sub.DaysRemainingAt(now.AddDate(0, 1, 0)))

	sub.IsActive = false
	assert.Equal(t, 0, sub.DaysRemainingAt(now))
}

func TestSubscription_Clone(t *testing.T) {
	t.Parallel()
	now := time.Now()
	sub := &subscription.Subscription{ExpiresAt: ptr(now)}
	c := sub.Clone()
	*c.ExpiresAt = now.Add(time.Hour)
	assert.Equal(t, now, *sub.ExpiresAt)
}

func TestTransitions(t *testing.T) {
	t.Parallel()

	assert.True(t, subscription.CanFire(subscription.StateFreeInactive, subscription.EventStartTrial))
	assert.True(t, subscription.CanFire(subscription.StateActivePaid, subscription.EventDowngrade))
	assert.True(t, subscription.CanFire(subscription.StateExpired, subscription.EventExpire))
	assert.False(t, subscription.CanFire(subscription.StateTrialing, subscription.EventStartTrial))
	assert.False(t, subscription.CanFire(subscription.StateExpired, subscription.EventUpgrade))
	assert.False(t, subscription.CanFire(subscription.StateFreeInactive, subscription.EventDowngrade))
}

func TestParsePlan(t *testing.T) {
	t.Parallel()

	p, err := subscription.ParsePlan(" Pro ")
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanPro, p)

	_, err = subscription.ParsePlan("gold")
	assert.ErrorIs(t, err, subscription.ErrValidation)

	c, err := subscription.ParseBillingCycle("")
	require.NoError(t, err)
	assert.Equal(t, subscription.BillingMonthly, c)
	assert.Equal(t, 365, subscription.BillingYearly.Days())

	assert.Less(t, subscription.PlanFree.Rank(), subscription.PlanPro.Rank())
	assert.Less(t, subscription.PlanPro.Rank(), subscription.PlanEnterprise.Rank())
}
