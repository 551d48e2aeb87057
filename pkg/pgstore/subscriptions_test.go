package pgstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/pgstore"
	"github.com/centerhub/billing/pkg/subscription"
)

var subscriptionCols = []string{
	"tenant_id", "plan", "billing_cycle", "starts_at", "expires_at", "trial_ends_at",
	"trial_started_at", "is_active", "payment_gateway", "gateway_subscription_id", "auto_renew",
	"version", "created_at", "updated_at",
}

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func proRow(tenantID uuid.UUID, version int64) *pgxmock.Rows {
	starts := now.AddDate(0, 0, -10)
	expires := now.AddDate(0, 0, 20)
	return pgxmock.NewRows(subscriptionCols).AddRow(
		tenantID, "pro", "monthly", &starts, &expires, nil,
		nil, true, "manual", "", true,
		version, starts, starts,
	)
}

func TestSubscriptionStore_Get(t *testing.T) {
	t.Parallel()

	t.Run("scans row", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT .+ FROM subscriptions WHERE tenant_id = \$1`).
			WithArgs(id).
			WillReturnRows(proRow(id, 3))

		sub, err := pgstore.NewSubscriptionStore(mock).Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, sub.TenantID)
		assert.Equal(t, subscription.PlanPro, sub.Plan)
		assert.Equal(t, subscription.BillingMonthly, sub.BillingCycle)
		assert.True(t, sub.IsActive)
		assert.Nil(t, sub.TrialEndsAt)
		require.NotNil(t, sub.ExpiresAt)
		assert.Equal(t, now.AddDate(0, 0, 20), *sub.ExpiresAt)
		assert.Equal(t, int64(3), sub.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err := pgstore.NewSubscriptionStore(mock).Get(context.Background(), id)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).WithArgs(id).WillReturnError(errors.New("conn reset"))

		_, err := pgstore.NewSubscriptionStore(mock).Get(context.Background(), id)
		assert.ErrorIs(t, err, pgstore.ErrFailedToQuery)
	})
}

func TestSubscriptionStore_GetOrCreate(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	id := uuid.New()
	initial := subscription.New(id, now)

	mock.ExpectExec(`INSERT INTO subscriptions .+ ON CONFLICT \(tenant_id\) DO NOTHING`).
		WithArgs(id, "free", "monthly",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			false, "", "", true, int64(0), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT .+ FROM subscriptions WHERE tenant_id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(subscriptionCols).AddRow(
			id, "free", "monthly", nil, nil, nil,
			nil, false, "", "", true,
			int64(0), now, now,
		))

	sub, err := pgstore.NewSubscriptionStore(mock).GetOrCreate(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanFree, sub.Plan)
	assert.False(t, sub.IsActive)
	assert.Equal(t, subscription.StateFreeInactive, sub.StateAt(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionStore_Update(t *testing.T) {
	t.Parallel()

	t.Run("writes mutation with version guard", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM subscriptions WHERE tenant_id = \$1 FOR UPDATE`).
			WithArgs(id).
			WillReturnRows(proRow(id, 4))
		mock.ExpectExec(`UPDATE subscriptions SET .+ WHERE tenant_id = \$1 AND version = \$14`).
			WithArgs(id, "enterprise", "yearly",
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				true, "manual", "", true, int64(5), now, int64(4)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		sub, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), id, func(s *subscription.Subscription) error {
			s.Plan = subscription.PlanEnterprise
			s.BillingCycle = subscription.BillingYearly
			s.UpdatedAt = now
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanEnterprise, sub.Plan)
		assert.Equal(t, int64(5), sub.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no change skips write", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).WillReturnRows(proRow(id, 2))
		mock.ExpectRollback()

		sub, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), id, func(*subscription.Subscription) error {
			return subscription.ErrNoChange
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), sub.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fn error rolls back", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).WillReturnRows(proRow(id, 2))
		mock.ExpectRollback()

		_, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), id, func(*subscription.Subscription) error {
			return subscription.ErrTrialAlreadyUsed
		})
		assert.ErrorIs(t, err, subscription.ErrTrialAlreadyUsed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).WillReturnRows(proRow(id, 2))
		mock.ExpectExec(`UPDATE subscriptions`).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		_, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), id, func(s *subscription.Subscription) error {
			s.AutoRenew = false
			return nil
		})
		assert.ErrorIs(t, err, subscription.ErrConcurrentUpdate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).WillReturnRows(proRow(id, 2))
		mock.ExpectExec(`UPDATE subscriptions`).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).WillReturnError(&pgconn.PgError{Code: "40001"})
		mock.ExpectRollback()

		_, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), id, func(s *subscription.Subscription) error {
			s.AutoRenew = false
			return nil
		})
		assert.ErrorIs(t, err, subscription.ErrConcurrentUpdate)
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), id, func(*subscription.Subscription) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)

		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

		_, err := pgstore.NewSubscriptionStore(mock).Update(context.Background(), uuid.New(), func(*subscription.Subscription) error {
			return nil
		})
		assert.ErrorIs(t, err, pgstore.ErrFailedToBegin)
	})
}

func TestSubscriptionStore_ListExpired(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT tenant_id FROM subscriptions\s+WHERE is_active AND expires_at IS NOT NULL AND expires_at < \$1\s+ORDER BY expires_at LIMIT \$2`).
		WithArgs(now, 100).
		WillReturnRows(pgxmock.NewRows([]string{"tenant_id"}).AddRow(a).AddRow(b))

	ids, err := pgstore.NewSubscriptionStore(mock).ListExpired(context.Background(), now, 100)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSubscriptionStore_PanicsOnNilDB(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { pgstore.NewSubscriptionStore(nil) })
}
