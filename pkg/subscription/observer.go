package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Observer receives engine events for metrics and alerting.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	QuotaDecision(ctx context.Context, res Resource, allowed bool)
	Transition(ctx context.Context, event Event, from, to State)
	LimitBreach(ctx context.Context, tenantID uuid.UUID, res Resource, stat UsageStat)
}

type nopObserver struct{}

func (nopObserver) QuotaDecision(context.Context, Resource, bool)               {}
func (nopObserver) Transition(context.Context, Event, State, State)             {}
func (nopObserver) LimitBreach(context.Context, uuid.UUID, Resource, UsageStat) {}
