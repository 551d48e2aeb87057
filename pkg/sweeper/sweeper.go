package sweeper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/centerhub/billing/pkg/logger"
	"github.com/centerhub/billing/pkg/subscription"
)

// Reconciler resets one expired subscription. subscription.Manager implements it.
type Reconciler interface {
	ExpireIfNeeded(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, bool, error)
}

// Sweeper periodically reconciles subscriptions whose paid window ended while
// the tenant issued no requests. Quota decisions reconcile on their own, so the
// sweeper only keeps stored state and reporting accurate.
type Sweeper struct {
	lister     subscription.ExpiredLister
	reconciler Reconciler
	cfg        Config
	now        func() time.Time
	log        *slog.Logger
	onSwept    func(n int)
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the sweeper logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweptHook registers a callback receiving the number of subscriptions
// reset by every pass, e.g. metrics.Collector.RecordReconciled.
func WithSweptHook(fn func(n int)) Option {
	return func(s *Sweeper) {
		s.onSwept = fn
	}
}

func New(lister subscription.ExpiredLister, reconciler Reconciler, cfg Config, opts ...Option) *Sweeper {
	if lister == nil {
		panic("sweeper: expired lister cannot be nil")
	}
	if reconciler == nil {
		panic("sweeper: reconciler cannot be nil")
	}

	s := &Sweeper{
		lister:     lister,
		reconciler: reconciler,
		cfg:        cfg,
		now:        time.Now,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep runs one pass and returns how many subscriptions were reset.
// A failing tenant is logged and skipped; only a failed listing aborts the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.lister.ListExpired(ctx, s.now().UTC(), s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var reset atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Concurrency, 1))

	for _, id := range ids {
		g.Go(func() error {
			_, changed, err := s.reconciler.ExpireIfNeeded(gctx, id)
			if err != nil {
				s.log.ErrorContext(gctx, "failed to reconcile expired subscription",
					logger.TenantID(id),
					logger.Error(err),
				)
				return nil
			}
			if changed {
				reset.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(reset.Load())
	if s.onSwept != nil {
		s.onSwept(n)
	}
	s.log.InfoContext(ctx, "expired subscriptions reconciled",
		logger.Component("sweeper"),
		slog.Int("found", len(ids)),
		slog.Int("reset", n),
	)
	return n, nil
}

// Run returns a function suitable for errgroup that sweeps every
// Config.Interval until ctx is cancelled. A disabled sweeper blocks until then.
func (s *Sweeper) Run(ctx context.Context) func() error {
	return func() error {
		if !s.cfg.Enabled {
			<-ctx.Done()
			return nil
		}

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.log.InfoContext(ctx, "sweeper started",
			logger.Component("sweeper"),
			logger.Duration(s.cfg.Interval),
		)
		for {
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.ErrorContext(ctx, "sweep failed", logger.Component("sweeper"), logger.Error(err))
			}

			select {
			case <-ctx.Done():
				s.log.InfoContext(ctx, "sweeper stopped", logger.Component("sweeper"))
				return nil
			case <-ticker.C:
			}
		}
	}
}
