package tenant_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/tenant"
)

type mockProvider struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant
	err     error
	calls   int
}

func newMockProvider(tenants ...*tenant.Tenant) *mockProvider {
	p := &mockProvider{tenants: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		p.tenants[t.ID.String()] = t
		p.tenants[t.Subdomain] = t
	}
	return p
}

func (p *mockProvider) GetByIdentifier(_ context.Context, identifier string) (*tenant.Tenant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	t, ok := p.tenants[identifier]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func newCenter(subdomain string, active bool) *tenant.Tenant {
	return &tenant.Tenant{ID: uuid.New(), Subdomain: subdomain, Name: subdomain + " center", Active: active}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("adds tenant to context", func(t *testing.T) {
		t.Parallel()
		center := newCenter("alpha", true)
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), newMockProvider(center))

		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := tenant.FromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, center, got)
			id, ok := tenant.IDFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, center.ID, id)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/me", nil)
		req.Header.Set(tenant.DefaultHeader, center.ID.String())
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	})

	t.Run("passes through without identifier", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), newMockProvider())

		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := tenant.FromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		}))

		assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), newMockProvider())
		h := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "ghost")
		assert.Equal(t, http.StatusNotFound, serve(h, req).Code)
	})

	t.Run("inactive tenant", func(t *testing.T) {
		t.Parallel()
		center := newCenter("beta", false)
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), newMockProvider(center))
		h := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "beta")
		assert.Equal(t, http.StatusForbidden, serve(h, req).Code)
	})

	t.Run("inactive tenant allowed when not required", func(t *testing.T) {
		t.Parallel()
		center := newCenter("beta", false)
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), newMockProvider(center), tenant.WithRequireActive(false))
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "beta")
		assert.Equal(t, http.StatusNoContent, serve(h, req).Code)
	})

	t.Run("provider failure uses custom handler", func(t *testing.T) {
		t.Parallel()
		provider := newMockProvider()
		provider.err = errors.New("db down")

		var handled error
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), provider,
			tenant.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				handled = err
				w.WriteHeader(http.StatusServiceUnavailable)
			}),
		)
		h := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "x")
		assert.Equal(t, http.StatusServiceUnavailable, serve(h, req).Code)
		assert.EqualError(t, handled, "db down")
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()
		provider := newMockProvider()
		mw := tenant.Middleware(tenant.NewHeaderResolver(""), provider, tenant.WithSkipPaths("/healthz"))
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(tenant.DefaultHeader, "ghost")
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
		assert.Zero(t, provider.calls)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	h := tenant.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusUnauthorized, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(tenant.WithTenant(req.Context(), newCenter("alpha", true)))
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestLogExtractor(t *testing.T) {
	t.Parallel()

	ex := tenant.LogExtractor()
	_, ok := ex(context.Background())
	assert.False(t, ok)

	center := newCenter("alpha", true)
	attr, ok := ex(tenant.WithTenant(context.Background(), center))
	require.True(t, ok)
	assert.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, center.ID.String(), attr.Value.Any())
}
