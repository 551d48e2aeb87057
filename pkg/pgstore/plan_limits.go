package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/centerhub/billing/pkg/pg"
	"github.com/centerhub/billing/pkg/subscription"
)

const planLimitColumns = `plan, max_students, max_teachers, max_groups, has_analytics,
	has_live_games, has_custom_branding, price_monthly, price_yearly, currency, description`

const upsertPlanLimit = `
	INSERT INTO plan_limits (` + planLimitColumns + `, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	ON CONFLICT (plan) DO UPDATE SET
		max_students = EXCLUDED.max_students,
		max_teachers = EXCLUDED.max_teachers,
		max_groups = EXCLUDED.max_groups,
		has_analytics = EXCLUDED.has_analytics,
		has_live_games = EXCLUDED.has_live_games,
		has_custom_branding = EXCLUDED.has_custom_branding,
		price_monthly = EXCLUDED.price_monthly,
		price_yearly = EXCLUDED.price_yearly,
		currency = EXCLUDED.currency,
		description = EXCLUDED.description,
		updated_at = NOW()`

// PlanLimits is the plan_limits table exposed as a subscription.LimitSource.
// Both prices of a row share one currency column.
type PlanLimits struct {
	db DB
}

var (
	_ subscription.LimitSource = (*PlanLimits)(nil)
	_ subscription.LimitSeeder = (*PlanLimits)(nil)
	_ subscription.LimitWriter = (*PlanLimits)(nil)
)

func NewPlanLimits(db DB) *PlanLimits {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	return &PlanLimits{db: db}
}

func (p *PlanLimits) Limit(ctx context.Context, plan subscription.Plan) (subscription.PlanLimit, error) {
	row := p.db.QueryRow(ctx, `SELECT `+planLimitColumns+` FROM plan_limits WHERE plan = $1`, string(plan))
	l, err := scanPlanLimit(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return subscription.PlanLimit{}, subscription.ErrPlanLimitNotConfigured
		}
		return subscription.PlanLimit{}, errors.Join(ErrFailedToQuery, err)
	}
	return l, nil
}

func (p *PlanLimits) List(ctx context.Context) ([]subscription.PlanLimit, error) {
	rows, err := p.db.Query(ctx, `SELECT `+planLimitColumns+` FROM plan_limits`)
	if err != nil {
		return nil, errors.Join(ErrFailedToQuery, err)
	}
	limits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (subscription.PlanLimit, error) {
		return scanPlanLimit(row)
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToCollect, err)
	}
	return limits, nil
}

// SeedIfEmpty inserts limits in one transaction when the table has no rows.
func (p *PlanLimits) SeedIfEmpty(ctx context.Context, limits []subscription.PlanLimit) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrFailedToBegin, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM plan_limits)`).Scan(&exists); err != nil {
		return errors.Join(ErrFailedToQuery, err)
	}
	if exists {
		return nil
	}

	for _, l := range limits {
		if err := l.Validate(); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertPlanLimit, planLimitArgs(l)...); err != nil {
			return errors.Join(ErrFailedToQuery, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrFailedToCommit, err)
	}
	return nil
}

// Upsert validates and stores one row, replacing the previous configuration of the plan.
func (p *PlanLimits) Upsert(ctx context.Context, limit subscription.PlanLimit) error {
	if err := limit.Validate(); err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, upsertPlanLimit, planLimitArgs(limit)...); err != nil {
		return errors.Join(ErrFailedToQuery, err)
	}
	return nil
}

func planLimitArgs(l subscription.PlanLimit) []any {
	currency := l.MonthlyPrice.Currency
	if currency == "" {
		currency = l.YearlyPrice.Currency
	}
	if currency == "" {
		currency = subscription.DefaultCurrency
	}
	return []any{
		string(l.Plan),
		l.MaxStudents,
		l.MaxTeachers,
		l.MaxGroups,
		l.Analytics,
		l.LiveGames,
		l.CustomBranding,
		l.MonthlyPrice.Amount,
		l.YearlyPrice.Amount,
		currency,
		l.Description,
	}
}

func scanPlanLimit(row pgx.Row) (subscription.PlanLimit, error) {
	var (
		l        subscription.PlanLimit
		plan     string
		monthly  int64
		yearly   int64
		currency string
	)
	err := row.Scan(
		&plan,
		&l.MaxStudents,
		&l.MaxTeachers,
		&l.MaxGroups,
		&l.Analytics,
		&l.LiveGames,
		&l.CustomBranding,
		&monthly,
		&yearly,
		&currency,
		&l.Description,
	)
	if err != nil {
		return subscription.PlanLimit{}, err
	}
	l.Plan = subscription.Plan(plan)
	l.MonthlyPrice = subscription.Money{Amount: monthly, Currency: currency}
	l.YearlyPrice = subscription.Money{Amount: yearly, Currency: currency}
	return l, nil
}
