// Command billingd serves subscription lifecycle and quota enforcement for
// learning centers.
//
// Usage:
//
//	billingd                             run the service
//	billingd admin-token -subject <who>  print an operator token for /admin endpoints
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/centerhub/billing/pkg/adminauth"
	"github.com/centerhub/billing/pkg/billingapi"
	"github.com/centerhub/billing/pkg/config"
	"github.com/centerhub/billing/pkg/enforcement"
	"github.com/centerhub/billing/pkg/httpserver"
	"github.com/centerhub/billing/pkg/logger"
	"github.com/centerhub/billing/pkg/metrics"
	"github.com/centerhub/billing/pkg/pg"
	"github.com/centerhub/billing/pkg/pgstore"
	"github.com/centerhub/billing/pkg/plancache"
	"github.com/centerhub/billing/pkg/redis"
	"github.com/centerhub/billing/pkg/subscription"
	"github.com/centerhub/billing/pkg/sweeper"
	"github.com/centerhub/billing/pkg/tenant"
)

const serviceName = "billingd"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin-token" {
		if err := issueToken(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("billingd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func issueToken(args []string) error {
	fs := flag.NewFlagSet("admin-token", flag.ContinueOnError)
	subject := fs.String("subject", "", "operator identity recorded in the token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("admin-token: -subject is required")
	}

	var cfg adminauth.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	svc, err := adminauth.New(cfg)
	if err != nil {
		return err
	}
	token, err := svc.Issue(*subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// requestID tags records with the id assigned by chi's RequestID middleware.
func requestID(ctx context.Context) (slog.Attr, bool) {
	id := middleware.GetReqID(ctx)
	return logger.RequestID(id), id != ""
}

func run(ctx context.Context) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.App.Env, serviceName),
		logger.WithContextExtractors(tenant.LogExtractor(), requestID),
	}
	if cfg.App.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.App.LogLevel)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.DB.MigrateOnStart {
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg.DB, log); err != nil {
			return err
		}
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("failed to close redis client", logger.Error(err))
		}
	}()

	collector := metrics.New(cfg.App.MetricsNamespace)

	var (
		source subscription.LimitSource
		writer subscription.LimitWriter
	)
	if cfg.App.PlanLimitsFile != "" {
		if source, err = subscription.LoadYAMLSource(cfg.App.PlanLimitsFile); err != nil {
			return err
		}
		log.Info("plan limits loaded from file", slog.String("path", cfg.App.PlanLimitsFile))
	} else {
		cache := plancache.New(pgstore.NewPlanLimits(pool), rdb,
			plancache.WithTTL(cfg.App.PlanCacheTTL),
			plancache.WithLogger(log))
		source, writer = cache, cache
	}

	catalog := subscription.NewCatalog(source, subscription.WithCatalogLogger(log))
	if err := catalog.Seed(ctx); err != nil {
		log.Warn("plan limits seeding failed, defaults apply", logger.Error(err))
	}

	counters := pgstore.NewCounters(pool)
	evaluator := subscription.NewEvaluator(catalog,
		append(counters.Options(), subscription.WithEvaluatorObserver(collector))...)

	store := pgstore.NewSubscriptionStore(pool)
	manager := subscription.NewManager(store, evaluator,
		subscription.WithLogger(log),
		subscription.WithObserver(collector),
		subscription.WithBreachDetection(cfg.App.BreachDetection))

	interceptor := enforcement.NewInterceptor(manager, evaluator, enforcement.WithLogger(log))

	admin, err := adminauth.New(cfg.Admin)
	if err != nil {
		return err
	}

	apiOpts := []billingapi.Option{billingapi.WithConfig(cfg.API), billingapi.WithLogger(log)}
	if writer != nil {
		apiOpts = append(apiOpts, billingapi.WithLimitWriter(writer))
	}
	router := billingapi.NewHandler(manager, catalog, interceptor, apiOpts...).Router(billingapi.RouterDeps{
		Tenants: pgstore.NewCenters(pool),
		Admin:   admin,
		Metrics: collector,
		Checks: []httpserver.Check{
			{Name: "postgres", Fn: pg.Healthcheck(pool)},
			{Name: "redis", Fn: redis.Healthcheck(rdb)},
		},
	})

	sweep := sweeper.New(store, manager, cfg.Sweeper,
		sweeper.WithLogger(log),
		sweeper.WithSweptHook(collector.RecordReconciled))
	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, router) })
	g.Go(sweep.Run(gctx))

	log.Info("billingd started", slog.String("addr", cfg.HTTP.Addr), slog.String("env", cfg.App.Env))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("billingd stopped")
	return nil
}
