// Package httpserver runs the billing HTTP API with graceful shutdown.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// Run returns once ctx is cancelled and in-flight requests have drained, which
// makes it a natural errgroup member next to the sweeper. Signal handling is
// left to the caller (signal.NotifyContext).
//
// HealthCheckHandler serves the /healthz probe over named dependency checks.
package httpserver
