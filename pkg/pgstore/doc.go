// Package pgstore is the PostgreSQL persistence of the billing service.
//
// It provides:
//
//   - SubscriptionStore: subscription.Store and subscription.ExpiredLister over
//     the subscriptions table. Update runs inside a transaction holding the row
//     lock and checks the version column before writing.
//   - PlanLimits: the plan_limits table as a LimitSource, LimitSeeder and LimitWriter.
//   - Counters: live student, teacher and group counts for quota decisions.
//   - Centers: tenant.Provider over the centers table.
//
// Schema changes ship as goose migrations embedded in the binary:
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log); err != nil { ... }
//
// Every constructor accepts the DB interface, which *pgxpool.Pool satisfies.
package pgstore
