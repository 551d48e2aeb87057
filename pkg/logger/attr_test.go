package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestTenantID(t *testing.T) {
	id := uuid.New()
	attr := logger.TenantID(id)
	require.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, id, attr.Value.Any())

	assert.True(t, logger.TenantID(nil).Equal(slog.Attr{}))
}

func TestRequestID(t *testing.T) {
	attr := logger.RequestID("req-1")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())

	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	assert.Equal(t, "plan", logger.Plan("pro").Key)
	assert.Equal(t, "pro", logger.Plan("pro").Value.String())
	assert.Equal(t, "resource", logger.Resource("groups").Key)
	assert.Equal(t, "component", logger.Component("sweeper").Key)
	assert.Equal(t, "event", logger.Event("upgrade").Key)
	assert.Equal(t, "ops@centerhub.uz", logger.Operator("ops@centerhub.uz").Value.String())
}
