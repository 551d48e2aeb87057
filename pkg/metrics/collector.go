package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centerhub/billing/pkg/subscription"
)

const DefaultNamespace = "billing"

// Collector exposes the engine's events as Prometheus metrics.
// It implements subscription.Observer and owns its registry.
type Collector struct {
	registry *prometheus.Registry

	QuotaDecisions      *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	LimitBreaches       *prometheus.CounterVec
	Reconciled          prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ subscription.Observer = (*Collector)(nil)

// New registers the billing metrics, plus Go runtime and process collectors,
// under namespace. Empty namespace means DefaultNamespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		QuotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_decisions_total",
			Help:      "Quota decisions by resource and outcome",
		}, []string{"resource", "outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_transitions_total",
			Help:      "Subscription lifecycle transitions",
		}, []string{"event", "from", "to"}),
		LimitBreaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_breaches_total",
			Help:      "Tenants found above a plan limit after a plan change",
		}, []string{"resource"}),
		Reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_reconciled_total",
			Help:      "Expired subscriptions reset by the background sweeper",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.QuotaDecisions,
		c.Transitions,
		c.LimitBreaches,
		c.Reconciled,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) QuotaDecision(_ context.Context, res subscription.Resource, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	c.QuotaDecisions.WithLabelValues(string(res), outcome).Inc()
}

func (c *Collector) Transition(_ context.Context, event subscription.Event, from, to subscription.State) {
	c.Transitions.WithLabelValues(event.String(), from.String(), to.String()).Inc()
}

// LimitBreach counts by resource only; tenant ids would explode the label cardinality.
func (c *Collector) LimitBreach(_ context.Context, _ uuid.UUID, res subscription.Resource, _ subscription.UsageStat) {
	c.LimitBreaches.WithLabelValues(string(res)).Inc()
}

// RecordReconciled adds n to the sweeper counter.
func (c *Collector) RecordReconciled(n int) {
	c.Reconciled.Add(float64(n))
}

// RecordHTTPRequest records one served request. route should be the route
// pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
