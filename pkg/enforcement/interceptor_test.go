package enforcement_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/enforcement"
	"github.com/centerhub/billing/pkg/subscription"
)

var now = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	store       *subscription.MemoryStore
	manager     *subscription.Manager
	evaluator   *subscription.Evaluator
	interceptor *enforcement.Interceptor
	students    atomic.Int64
	counted     atomic.Int32
	tenantID    uuid.UUID
}

func newEnv(t *testing.T, opts ...enforcement.Option) *env {
	t.Helper()

	e := &env{store: subscription.NewMemoryStore(), tenantID: uuid.New()}
	zero := func(context.Context, uuid.UUID) (int64, error) { return 0, nil }
	e.evaluator = subscription.NewEvaluator(subscription.NewCatalog(nil),
		subscription.WithCounter(subscription.ResourceStudents, func(context.Context, uuid.UUID) (int64, error) {
			e.counted.Add(1)
			return e.students.Load(), nil
		}),
		subscription.WithCounter(subscription.ResourceTeachers, zero),
		subscription.WithCounter(subscription.ResourceGroups, zero),
	)
	e.manager = subscription.NewManager(e.store, e.evaluator,
		subscription.WithClock(func() time.Time { return now }))
	e.interceptor = enforcement.NewInterceptor(e.manager, e.evaluator, opts...)
	return e
}

func (e *env) put(plan subscription.Plan, expires time.Time) {
	sub := subscription.New(e.tenantID, now.AddDate(0, -3, 0))
	start := now.AddDate(0, -1, 0)
	sub.Plan = plan
	sub.IsActive = true
	sub.StartsAt = &start
	sub.ExpiresAt = &expires
	e.store.Put(sub)
}

var createStudent = enforcement.Target{Method: http.MethodPost, Path: "/api/students/"}

func TestInterceptor_FreeTenantAtLimit(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.students.Store(50)

	d, err := e.interceptor.Check(context.Background(), e.tenantID, createStudent)
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, enforcement.ReasonQuotaExceeded, d.Reason)
	assert.False(t, d.Reconciled)

	q, ok := subscription.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, subscription.ResourceStudents, q.Resource)
	assert.Equal(t, int64(50), q.Current)
	assert.Equal(t, int64(50), q.Limit)
}

func TestInterceptor_FreeTenantBelowLimit(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.students.Store(49)

	d, err := e.interceptor.Check(context.Background(), e.tenantID, createStudent)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, enforcement.ReasonWithinQuota, d.Reason)
	assert.Equal(t, subscription.ResourceStudents, d.Resource)
}

func TestInterceptor_ExpiredProJudgedAsFree(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.put(subscription.PlanPro, now.Add(-24*time.Hour))
	e.students.Store(50)

	d, err := e.interceptor.Check(context.Background(), e.tenantID, createStudent)
	assert.True(t, d.Reconciled)
	assert.Equal(t, subscription.PlanFree, d.Plan)

	q, ok := subscription.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, int64(50), q.Limit)

	sub, err := e.store.Get(context.Background(), e.tenantID)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanFree, sub.Plan)
	assert.False(t, sub.IsActive)
}

func TestInterceptor_PaidTenantBypassesCount(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.put(subscription.PlanPro, now.Add(24*time.Hour))
	e.students.Store(5000)

	d, err := e.interceptor.Check(context.Background(), e.tenantID, createStudent)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, enforcement.ReasonPaidPlan, d.Reason)
	assert.Zero(t, e.counted.Load())
}

func TestInterceptor_TrialingTenantBypassesCount(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	_, err := e.manager.ActivateTrial(context.Background(), e.tenantID, 0)
	require.NoError(t, err)
	e.students.Store(5000)

	d, err := e.interceptor.Check(context.Background(), e.tenantID, createStudent)
	require.NoError(t, err)
	assert.Equal(t, enforcement.ReasonPaidPlan, d.Reason)
}

func TestInterceptor_Skips(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		target enforcement.Target
		reason enforcement.Reason
	}{
		{"auth", enforcement.Target{Method: http.MethodPost, Path: "/api/auth/students"}, enforcement.ReasonAllowListed},
		{"upgrade", enforcement.Target{Method: http.MethodPost, Path: "/api/subscriptions/upgrade"}, enforcement.ReasonAllowListed},
		{"trial", enforcement.Target{Method: http.MethodPost, Path: "/api/subscriptions/start-trial"}, enforcement.ReasonAllowListed},
		{"admin", enforcement.Target{Method: http.MethodPost, Path: "/admin/students/add"}, enforcement.ReasonAllowListed},
		{"read", enforcement.Target{Method: http.MethodGet, Path: "/api/students/"}, enforcement.ReasonNotMutating},
		{"update is not a create", enforcement.Target{Method: http.MethodPut, Path: "/api/students/1"}, enforcement.ReasonNotMetered},
		{"unmetered resource", enforcement.Target{Method: http.MethodPost, Path: "/api/quizzes/"}, enforcement.ReasonNotMetered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t)
			e.students.Store(1000)

			d, err := e.interceptor.Check(ctx, e.tenantID, tt.target)
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Zero(t, e.counted.Load())
		})
	}
}

func TestInterceptor_CustomRoutesAndAllowList(t *testing.T) {
	t.Parallel()
	e := newEnv(t,
		enforcement.WithRoutes(enforcement.RouteTable{{Segment: "pupils", Resource: subscription.ResourceStudents}}),
		enforcement.WithAllowList("/public/"),
	)
	e.students.Store(50)

	_, err := e.interceptor.Check(context.Background(), e.tenantID, enforcement.Target{Method: http.MethodPost, Path: "/api/pupils"})
	assert.ErrorIs(t, err, subscription.ErrQuotaExceeded)

	d, err := e.interceptor.Check(context.Background(), e.tenantID, enforcement.Target{Method: http.MethodPost, Path: "/public/pupils"})
	require.NoError(t, err)
	assert.Equal(t, enforcement.ReasonAllowListed, d.Reason)
}

type mockLifecycle struct{ mock.Mock }

func (m *mockLifecycle) ExpireIfNeeded(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, bool, error) {
	args := m.Called(ctx, tenantID)
	sub, _ := args.Get(0).(*subscription.Subscription)
	return sub, args.Bool(1), args.Error(2)
}

type mockQuota struct{ mock.Mock }

func (m *mockQuota) Check(ctx context.Context, sub *subscription.Subscription, res subscription.Resource) error {
	return m.Called(ctx, sub, res).Error(0)
}

func TestInterceptor_Failures(t *testing.T) {
	t.Parallel()
	tenantID := uuid.New()

	t.Run("lifecycle failure", func(t *testing.T) {
		t.Parallel()
		lc := &mockLifecycle{}
		lc.On("ExpireIfNeeded", mock.Anything, tenantID).Return(nil, false, errors.New("db down"))
		q := &mockQuota{}

		_, err := enforcement.NewInterceptor(lc, q).Check(context.Background(), tenantID, createStudent)
		assert.EqualError(t, err, "db down")
		q.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
		lc.AssertExpectations(t)
	})

	t.Run("counter failure", func(t *testing.T) {
		t.Parallel()
		lc := &mockLifecycle{}
		lc.On("ExpireIfNeeded", mock.Anything, tenantID).Return(subscription.New(tenantID, now), false, nil)
		q := &mockQuota{}
		q.On("Check", mock.Anything, mock.Anything, subscription.ResourceGroups).
			Return(subscription.ErrFailedToCountResourceUsage)

		d, err := enforcement.NewInterceptor(lc, q).Check(context.Background(), tenantID,
			enforcement.Target{Method: http.MethodPost, Path: "/api/groups"})
		assert.ErrorIs(t, err, subscription.ErrFailedToCountResourceUsage)
		assert.False(t, d.Allowed)
		assert.Empty(t, d.Reason)
		q.AssertExpectations(t)
	})
}

func TestNewInterceptor_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { enforcement.NewInterceptor(nil, &mockQuota{}) })
	assert.Panics(t, func() { enforcement.NewInterceptor(&mockLifecycle{}, nil) })
}

func TestRouteTable_Match(t *testing.T) {
	t.Parallel()

	res, ok := enforcement.DefaultRoutes.Match(http.MethodPost, "/api/groups/7f1c/students/add/")
	require.True(t, ok)
	assert.Equal(t, subscription.ResourceStudents, res)

	res, ok = enforcement.DefaultRoutes.Match(http.MethodPost, "/api/teachers")
	require.True(t, ok)
	assert.Equal(t, subscription.ResourceTeachers, res)

	_, ok = enforcement.DefaultRoutes.Match(http.MethodPost, "/api/studentship")
	assert.False(t, ok)
	_, ok = enforcement.DefaultRoutes.Match(http.MethodDelete, "/api/groups/1")
	assert.False(t, ok)
}
