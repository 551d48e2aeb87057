// Package redis connects to the Redis instance that backs the plan-limit cache.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer client.Close()
//
// Connect retries the initial ping so that the service tolerates Redis starting
// after it. Healthcheck plugs the client into the readiness probe.
package redis
