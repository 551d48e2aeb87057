// Package logger builds the service's *slog.Logger.
//
// New applies functional options (format, level, output, static attributes)
// and wraps the chosen handler with LogHandlerDecorator, which pulls
// request-scoped values such as the tenant id and request id out of the
// context on every record. Attribute helpers (TenantID, Plan, Resource, Error,
// ...) keep key names consistent across packages.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "billingd"),
//		logger.WithContextExtractors(tenant.LogExtractor()),
//	)
//	log.InfoContext(ctx, "subscription changed", logger.Plan("pro"))
package logger
