// Package subscription implements the subscription lifecycle and quota engine
// of a multi-tenant education platform.
//
// Every tenant (a learning center) owns exactly one Subscription. The package
// decides which plan limits apply to a tenant, whether one more student,
// teacher or group may be created, and how the record moves between the
// free_inactive, trialing, active_paid and expired states.
//
// # Components
//
//   - Catalog: resolves PlanLimit rows from a LimitSource, falling back to the
//     built-in table. It never fails; unknown plans get the Free limits.
//   - Evaluator: allow/deny decisions over live counts supplied by
//     ResourceCounterFunc callbacks registered with WithCounter.
//   - Manager: every mutation (activation, trial, upgrade, downgrade,
//     deactivation, expiry reconciliation) runs through Store.Update under the
//     tenant's write lock and is validated before it is persisted.
//   - Store: persistence. MemoryStore is provided here, the PostgreSQL
//     implementation lives in pkg/pgstore.
//
// # State
//
// The lifecycle state is derived from the stored fields and never persisted:
//
//	expired        expires_at is in the past (not yet reconciled)
//	free_inactive  is_active is false
//	trialing       trial_ends_at is in the future
//	active_paid    otherwise
//
// A record with is_active=true and an expiry in the past still reports its old
// limits until ExpireIfNeeded reconciles it, so every quota decision starts with
// that call. Manager.GetOrCreate and the enforcement package do it for you.
//
// # Usage
//
//	catalog := subscription.NewCatalog(src)
//	evaluator := subscription.NewEvaluator(catalog,
//		subscription.WithCounter(subscription.ResourceStudents, counters.Students),
//		subscription.WithCounter(subscription.ResourceTeachers, counters.Teachers),
//		subscription.WithCounter(subscription.ResourceGroups, counters.Groups),
//	)
//	manager := subscription.NewManager(store, evaluator)
//
//	if err := manager.EnsureCanCreate(ctx, tenantID, subscription.ResourceStudents); err != nil {
//		if q, ok := subscription.IsQuotaExceeded(err); ok {
//			// q.Resource, q.Current, q.Limit
//		}
//		return err
//	}
//
// # Errors
//
// Domain failures are typed (ValidationError, InvalidUpgradeError,
// LimitExceededOnUpgradeError, QuotaExceededError, TransitionError) and unwrap
// to the package sentinels, so both errors.Is and errors.As work. A failed
// operation never leaves a partially written record.
package subscription
