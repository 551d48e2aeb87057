package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/centerhub/billing/pkg/subscription"
)

// Membership roles and status as written by the platform's center service.
const (
	RoleStudent      = "STUDENT"
	RoleTeacher      = "TEACHER"
	MembershipActive = "ACTIVE"
)

// Counters computes live resource usage from the memberships and groups tables.
// Only ACTIVE memberships count towards the student and teacher quotas.
type Counters struct {
	db DB
}

func NewCounters(db DB) *Counters {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	return &Counters{db: db}
}

func (c *Counters) Students(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return c.members(ctx, tenantID, RoleStudent)
}

func (c *Counters) Teachers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return c.members(ctx, tenantID, RoleTeacher)
}

func (c *Counters) Groups(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return c.count(ctx, `SELECT COUNT(*) FROM groups WHERE center_id = $1`, tenantID)
}

// Options registers every counter with an evaluator.
func (c *Counters) Options() []subscription.EvaluatorOption {
	return []subscription.EvaluatorOption{
		subscription.WithCounter(subscription.ResourceStudents, c.Students),
		subscription.WithCounter(subscription.ResourceTeachers, c.Teachers),
		subscription.WithCounter(subscription.ResourceGroups, c.Groups),
	}
}

func (c *Counters) members(ctx context.Context, tenantID uuid.UUID, role string) (int64, error) {
	return c.count(ctx,
		`SELECT COUNT(*) FROM memberships WHERE center_id = $1 AND role = $2 AND status = $3`,
		tenantID, role, MembershipActive)
}

func (c *Counters) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := c.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Join(ErrFailedToQuery, err)
	}
	return n, nil
}
