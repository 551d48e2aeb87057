// Package plancache puts Redis in front of the plan-limit table.
//
// Quota checks resolve the plan limits on every create request, so the rows are
// cached for a short TTL. Concurrent misses for the same plan share one source
// read. Plans without a configured row are cached as such, which keeps the
// catalog's built-in fallback cheap.
//
//	limits := plancache.New(pgstore.NewPlanLimits(pool), redisClient,
//		plancache.WithTTL(time.Minute),
//	)
//	catalog := subscription.NewCatalog(limits)
//
// Upsert and SeedIfEmpty write through to the source and invalidate the affected keys.
package plancache
