package pgstore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/centerhub/billing/pkg/pg"
	"github.com/centerhub/billing/pkg/tenant"
)

const centerActive = "ACTIVE"

// Centers resolves tenants from the centers table.
type Centers struct {
	db DB
}

var _ tenant.Provider = (*Centers)(nil)

func NewCenters(db DB) *Centers {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	return &Centers{db: db}
}

// GetByIdentifier looks the center up by id when identifier is a UUID, by subdomain otherwise.
func (c *Centers) GetByIdentifier(ctx context.Context, identifier string) (*tenant.Tenant, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, tenant.ErrInvalidIdentifier
	}

	query := `SELECT id, COALESCE(subdomain, ''), name, status FROM centers WHERE subdomain = $1`
	var arg any = strings.ToLower(identifier)
	if id, err := uuid.Parse(identifier); err == nil {
		query = `SELECT id, COALESCE(subdomain, ''), name, status FROM centers WHERE id = $1`
		arg = id
	}

	var (
		t      tenant.Tenant
		status string
	)
	if err := c.db.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Subdomain, &t.Name, &status); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, errors.Join(ErrFailedToQuery, err)
	}
	t.Active = status == centerActive
	return &t, nil
}
