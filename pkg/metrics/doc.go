// Package metrics exports billing engine events to Prometheus.
//
// Collector implements subscription.Observer, so passing it to the evaluator
// and the lifecycle manager is all the wiring the engine needs:
//
//	m := metrics.New("billing")
//	evaluator := subscription.NewEvaluator(catalog, subscription.WithEvaluatorObserver(m))
//	manager := subscription.NewManager(store, evaluator, subscription.WithObserver(m))
//	router.Handle("/metrics", m.Handler())
package metrics
