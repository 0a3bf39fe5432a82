// Package metrics exposes Prometheus counters for checkout and HTTP traffic.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcomes.
const (
	OutcomeApplied        = "applied"
	OutcomeAlreadyApplied = "already_applied"
	OutcomeRejected       = "rejected"
	OutcomeMismatch       = "amount_mismatch"
	OutcomeError          = "error"
)

// Metrics holds all Prometheus metrics for the billing service.
type Metrics struct {
	registry prometheus.Gatherer

	OrdersTotal          *prometheus.CounterVec
	VerificationsTotal   *prometheus.CounterVec
	FreeActivationsTotal *prometheus.CounterVec
	PaymentAmountTotal   *prometheus.CounterVec
	WebhooksTotal        *prometheus.CounterVec

	GatewayCallDuration *prometheus.HistogramVec
	GatewayErrorsTotal  *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on registry. A nil registry uses
// a fresh one so repeated construction in tests does not collide.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		OrdersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_orders_total",
				Help: "Gateway orders created, by plan and result",
			},
			[]string{"plan", "status"},
		),
		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_payment_verifications_total",
				Help: "Payment verifications, by plan and outcome",
			},
			[]string{"plan", "outcome"},
		),
		FreeActivationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_free_activations_total",
				Help: "Plans activated without a gateway charge",
			},
			[]string{"plan", "method"},
		),
		PaymentAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_payment_amount_minor_total",
				Help: "Captured payment amount in minor currency units",
			},
			[]string{"plan", "currency"},
		),
		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_webhooks_total",
				Help: "Gateway webhooks received, by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		GatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folioforge_gateway_call_duration_seconds",
				Help:    "Latency of payment gateway calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		GatewayErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_gateway_errors_total",
				Help: "Failed payment gateway calls",
			},
			[]string{"operation"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folioforge_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folioforge_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveOrder records an order creation attempt.
func (m *Metrics) ObserveOrder(plan string, err error) {
	if m == nil {
		return
	}
	status := "created"
	if err != nil {
		status = "failed"
	}
	m.OrdersTotal.WithLabelValues(plan, status).Inc()
}

// ObserveVerification records the outcome of a verification. amountMinor is
// only added for applied payments.
func (m *Metrics) ObserveVerification(plan, outcome, currency string, amountMinor int64) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(plan, outcome).Inc()
	if outcome == OutcomeApplied && amountMinor > 0 {
		m.PaymentAmountTotal.WithLabelValues(plan, currency).Add(float64(amountMinor))
	}
}

// ObserveFreeActivation records a plan activated without a charge.
func (m *Metrics) ObserveFreeActivation(plan, method string) {
	if m == nil {
		return
	}
	m.FreeActivationsTotal.WithLabelValues(plan, method).Inc()
}

// ObserveWebhook records a received webhook.
func (m *Metrics) ObserveWebhook(event, outcome string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(event, outcome).Inc()
}

// ObserveGatewayCall records latency and failure of one gateway call.
func (m *Metrics) ObserveGatewayCall(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.GatewayCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.GatewayErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if m != nil {
		gatherer = m.registry
	}
	h := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
