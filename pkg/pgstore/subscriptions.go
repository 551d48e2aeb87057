package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/centerhub/billing/pkg/pg"
	"github.com/centerhub/billing/pkg/subscription"
)

const subscriptionColumns = `tenant_id, plan, billing_cycle, starts_at, expires_at, trial_ends_at,
	trial_started_at, is_active, payment_gateway, gateway_subscription_id, auto_renew,
	version, created_at, updated_at`

// SubscriptionStore persists subscriptions in the subscriptions table.
// Writes take a row lock and bump the version column in the same transaction.
type SubscriptionStore struct {
	db DB
}

var (
	_ subscription.Store         = (*SubscriptionStore)(nil)
	_ subscription.ExpiredLister = (*SubscriptionStore)(nil)
)

// NewSubscriptionStore creates a store backed by db.
func NewSubscriptionStore(db DB) *SubscriptionStore {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) Get(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1`, tenantID)
	return scanSubscription(row)
}

// GetOrCreate inserts initial unless a row already exists, then returns the stored row.
func (s *SubscriptionStore) GetOrCreate(ctx context.Context, initial *subscription.Subscription) (*subscription.Subscription, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tenant_id) DO NOTHING`,
		initial.TenantID,
		string(initial.Plan),
		string(initial.BillingCycle),
		initial.StartsAt,
		initial.ExpiresAt,
		initial.TrialEndsAt,
		initial.TrialStartedAt,
		initial.IsActive,
		initial.PaymentGateway,
		initial.GatewaySubscriptionID,
		initial.AutoRenew,
		initial.Version,
		initial.CreatedAt,
		initial.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Join(subscription.ErrFailedToSaveSubscription, err)
	}
	return s.Get(ctx, initial.TenantID)
}

// Update locks the tenant row with SELECT ... FOR UPDATE, applies fn and writes
// the result back guarded by the version read under the lock.
func (s *SubscriptionStore) Update(ctx context.Context, tenantID uuid.UUID, fn subscription.UpdateFunc) (*subscription.Subscription, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToBegin, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanSubscription(tx.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1 FOR UPDATE`, tenantID))
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, subscription.ErrNoChange) {
			return current, nil
		}
		return nil, err
	}
	next.Version = current.Version + 1

	tag, err := tx.Exec(ctx, `
		UPDATE subscriptions SET
			plan = $2,
			billing_cycle = $3,
			starts_at = $4,
			expires_at = $5,
			trial_ends_at = $6,
			trial_started_at = $7,
			is_active = $8,
			payment_gateway = $9,
			gateway_subscription_id = $10,
			auto_renew = $11,
			version = $12,
			updated_at = $13
		WHERE tenant_id = $1 AND version = $14`,
		tenantID,
		string(next.Plan),
		string(next.BillingCycle),
		next.StartsAt,
		next.ExpiresAt,
		next.TrialEndsAt,
		next.TrialStartedAt,
		next.IsActive,
		next.PaymentGateway,
		next.GatewaySubscriptionID,
		next.AutoRenew,
		next.Version,
		next.UpdatedAt,
		current.Version,
	)
	if err != nil {
		if pg.IsSerializationFailure(err) {
			return nil, errors.Join(subscription.ErrConcurrentUpdate, err)
		}
		return nil, errors.Join(subscription.ErrFailedToSaveSubscription, err)
	}
	if tag.RowsAffected() != 1 {
		return nil, subscription.ErrConcurrentUpdate
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Join(ErrFailedToCommit, err)
	}
	return next, nil
}

// ListExpired returns tenants still flagged active whose expiry is before now,
// oldest expiry first. A non-positive limit means no limit.
func (s *SubscriptionStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `SELECT tenant_id FROM subscriptions
		WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at`
	args := []any{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrFailedToQuery, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, errors.Join(ErrFailedToCollect, err)
	}
	return ids, nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		sub   subscription.Subscription
		plan  string
		cycle string
	)
	err := row.Scan(
		&sub.TenantID,
		&plan,
		&cycle,
		&sub.StartsAt,
		&sub.ExpiresAt,
		&sub.TrialEndsAt,
		&sub.TrialStartedAt,
		&sub.IsActive,
		&sub.PaymentGateway,
		&sub.GatewaySubscriptionID,
		&sub.AutoRenew,
		&sub.Version,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrFailedToQuery, err)
	}
	sub.Plan = subscription.Plan(plan)
	sub.BillingCycle = subscription.BillingCycle(cycle)
	return &sub, nil
}
