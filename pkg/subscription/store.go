package subscription

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoChange is returned by an update function to skip the write.
var ErrNoChange = errors.New("no change")

// UpdateFunc mutates a copy of the stored subscription. Returning an error
// aborts the update and nothing is persisted.
type UpdateFunc func(sub *Subscription) error

// Store defines subscription persistence.
// Each tenant has exactly one subscription, so TenantID serves as the primary key.
type Store interface {
	// Get retrieves a subscription by tenant ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// GetOrCreate returns the stored subscription or stores initial when absent.
	GetOrCreate(ctx context.Context, initial *Subscription) (*Subscription, error)

	// Update runs fn against the current row while holding the tenant's write lock,
	// then persists the result and increments Version. fn returning ErrNoChange
	// leaves the row untouched and yields the current value.
	Update(ctx context.Context, tenantID uuid.UUID, fn UpdateFunc) (*Subscription, error)
}

// ExpiredLister finds subscriptions whose paid window has passed without reconciliation.
type ExpiredLister interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// MemoryStore is an in-process Store, suitable for tests and single-node setups.
type MemoryStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*Subscription
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]*Subscription)}
}

func (s *MemoryStore) Get(_ context.Context, tenantID uuid.UUID) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[tenantID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemoryStore) GetOrCreate(_ context.Context, initial *Subscription) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subs[initial.TenantID]; ok {
		return sub.Clone(), nil
	}
	stored := initial.Clone()
	s.subs[initial.TenantID] = stored
	return stored.Clone(), nil
}

// Put stores sub as is, replacing any existing row. Intended for seeding tests.
func (s *MemoryStore) Put(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.TenantID] = sub.Clone()
}

func (s *MemoryStore) Update(_ context.Context, tenantID uuid.UUID, fn UpdateFunc) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subs[tenantID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrNoChange) {
			return current.Clone(), nil
		}
		return nil, err
	}

	next.Version = current.Version + 1
	s.subs[tenantID] = next
	return next.Clone(), nil
}

// ListExpired returns tenants still flagged active whose expiry is before now,
// oldest expiry first. A non-positive limit means no limit.
func (s *MemoryStore) ListExpired(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Subscription
	for _, sub := range s.subs {
		if sub.IsActive && sub.IsExpiredAt(now) {
			due = append(due, sub)
		}
	}
	slices.SortFunc(due, func(a, b *Subscription) int {
		if c := a.ExpiresAt.Compare(*b.ExpiresAt); c != 0 {
			return c
		}
		return strings.Compare(a.TenantID.String(), b.TenantID.String())
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, sub := range due {
		ids = append(ids, sub.TenantID)
	}
	return ids, nil
}
