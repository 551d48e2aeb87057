package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Tenant is a learning center, the billable organization a subscription belongs to.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Subdomain string    `json:"subdomain"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
}

// Provider loads tenants from the system of record.
type Provider interface {
	// GetByIdentifier accepts a tenant UUID or subdomain.
	// Returns ErrTenantNotFound if nothing matches.
	GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error)
}
