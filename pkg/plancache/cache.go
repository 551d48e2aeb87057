package plancache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/centerhub/billing/pkg/logger"
	"github.com/centerhub/billing/pkg/subscription"
)

const (
	DefaultTTL    = 5 * time.Minute
	DefaultPrefix = "billing:plan_limits"

	// notConfigured is cached for plans without a row so that the catalog
	// fallback does not hit the database on every quota check.
	notConfigured = "-"
)

// Cache is a read-through Redis cache in front of a subscription.LimitSource.
// Redis failures degrade to reading the source directly.
type Cache struct {
	src    subscription.LimitSource
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
	group  singleflight.Group
}

var (
	_ subscription.LimitSource = (*Cache)(nil)
	_ subscription.LimitSeeder = (*Cache)(nil)
	_ subscription.LimitWriter = (*Cache)(nil)
)

// New wraps src with a Redis cache.
func New(src subscription.LimitSource, client redis.UniversalClient, opts ...Option) *Cache {
	if src == nil {
		panic("plancache: source cannot be nil")
	}
	if client == nil {
		panic("plancache: redis client cannot be nil")
	}

	c := &Cache{
		src:    src,
		client: client,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Limit(ctx context.Context, plan subscription.Plan) (subscription.PlanLimit, error) {
	key := c.planKey(plan)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == notConfigured {
			return subscription.PlanLimit{}, subscription.ErrPlanLimitNotConfigured
		}
		var l subscription.PlanLimit
		if err := json.Unmarshal([]byte(raw), &l); err == nil {
			return l, nil
		}
		c.log.WarnContext(ctx, "discarding malformed cached plan limit", logger.Plan(string(plan)))
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "plan limit cache read failed", logger.Plan(string(plan)), logger.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		l, err := c.src.Limit(ctx, plan)
		switch {
		case err == nil:
			c.store(ctx, key, l)
		case errors.Is(err, subscription.ErrPlanLimitNotConfigured):
			c.set(ctx, key, notConfigured)
		}
		return l, err
	})
	if err != nil {
		return subscription.PlanLimit{}, err
	}
	return v.(subscription.PlanLimit), nil
}

func (c *Cache) List(ctx context.Context) ([]subscription.PlanLimit, error) {
	key := c.listKey()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var limits []subscription.PlanLimit
		if err := json.Unmarshal(raw, &limits); err == nil {
			return limits, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.WarnContext(ctx, "plan limit list cache read failed", logger.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		limits, err := c.src.List(ctx)
		if err == nil {
			c.store(ctx, key, limits)
		}
		return limits, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]subscription.PlanLimit), nil
}

// SeedIfEmpty delegates to the source and drops every cached entry.
func (c *Cache) SeedIfEmpty(ctx context.Context, limits []subscription.PlanLimit) error {
	seeder, ok := c.src.(subscription.LimitSeeder)
	if !ok {
		return ErrSeedNotSupported
	}
	if err := seeder.SeedIfEmpty(ctx, limits); err != nil {
		return err
	}
	return c.Invalidate(ctx, subscription.AllPlans...)
}

// Upsert writes through to the source and invalidates the plan's entries.
func (c *Cache) Upsert(ctx context.Context, limit subscription.PlanLimit) error {
	writer, ok := c.src.(subscription.LimitWriter)
	if !ok {
		return ErrWriteNotSupported
	}
	if err := writer.Upsert(ctx, limit); err != nil {
		return err
	}
	return c.Invalidate(ctx, limit.Plan)
}

// Invalidate removes the cached rows of the given plans together with the cached list.
func (c *Cache) Invalidate(ctx context.Context, plans ...subscription.Plan) error {
	keys := make([]string, 0, len(plans)+1)
	for _, p := range plans {
		keys = append(keys, c.planKey(p))
	}
	keys = append(keys, c.listKey())
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WarnContext(ctx, "failed to encode plan limit", logger.Error(err))
		return
	}
	c.set(ctx, key, data)
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	if err := c.client.Set(ctx, key, v, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "plan limit cache write failed", logger.Error(err))
	}
}

func (c *Cache) planKey(plan subscription.Plan) string {
	return c.prefix + ":" + string(plan)
}

func (c *Cache) listKey() string {
	return c.prefix + ":all"
}
