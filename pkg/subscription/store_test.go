package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/subscription"
)

func TestMemoryStore_ListExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	withExpiry := func(active bool, expiresIn time.Duration) *subscription.Subscription {
		sub := subscription.New(uuid.New(), testNow.AddDate(0, -2, 0))
		sub.Plan = subscription.PlanPro
		sub.IsActive = active
		exp := testNow.Add(expiresIn)
		sub.ExpiresAt = &exp
		return sub
	}

	store := subscription.NewMemoryStore()
	newest := withExpiry(true, -time.Hour)
	oldest := withExpiry(true, -72*time.Hour)
	middle := withExpiry(true, -24*time.Hour)
	inactive := withExpiry(false, -48*time.Hour)
	valid := withExpiry(true, time.Hour)
	for _, sub := range []*subscription.Subscription{newest, oldest, middle, inactive, valid} {
		store.Put(sub)
	}
	store.Put(subscription.New(uuid.New(), testNow))

	t.Run("active rows only, oldest expiry first", func(t *testing.T) {
		t.Parallel()
		ids, err := store.ListExpired(ctx, testNow, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{oldest.TenantID, middle.TenantID, newest.TenantID}, ids)
	})

	t.Run("limit keeps the oldest", func(t *testing.T) {
		t.Parallel()
		ids, err := store.ListExpired(ctx, testNow, 2)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{oldest.TenantID, middle.TenantID}, ids)
	})
}
