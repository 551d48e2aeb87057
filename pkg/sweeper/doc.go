// Package sweeper reconciles expired subscriptions in the background.
//
// Every quota decision already resets an expired subscription before it is
// trusted. The sweeper covers tenants that send no requests, so that stored
// rows, usage reports and transition metrics converge anyway.
//
//	sw := sweeper.New(store, manager, cfg.Sweeper, sweeper.WithLogger(log))
//	g.Go(sw.Run(ctx))
package sweeper
