// Package pg bootstraps the PostgreSQL connection pool (pgx/v5) and applies
// goose migrations from an embedded filesystem.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log); err != nil { ... }
//
// Healthcheck adapts the pool to the HTTP readiness probe. Errors are joined
// with the package sentinels so callers can match them with errors.Is.
package pg
