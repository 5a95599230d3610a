package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics holds the prometheus collectors for the storefront.
type Metrics struct {
	httpDuration *prometheus.HistogramVec

	transactionsCreated *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	chargesInitiated    *prometheus.CounterVec
	chargeOutcomes      *prometheus.CounterVec
	promotionRedeems    *prometheus.CounterVec
	reconcileRuns       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "topup",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		transactionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topup",
			Name:      "transactions_created_total",
			Help:      "Transactions created at checkout.",
		}, []string{"currency", "discounted"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topup",
			Name:      "transaction_status_transitions_total",
			Help:      "Transaction status transitions applied.",
		}, []string{"to", "source"}),
		chargesInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topup",
			Name:      "charges_initiated_total",
			Help:      "Charges submitted to the payment provider.",
		}, []string{"provider", "kind"}),
		chargeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topup",
			Name:      "charge_outcomes_total",
			Help:      "Provider charge outcomes as decoded by the adapter.",
		}, []string{"provider", "outcome"}),
		promotionRedeems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topup",
			Name:      "promotion_redeems_total",
			Help:      "Promotion redemption attempts by result.",
		}, []string{"result"}),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topup",
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation poller sweeps executed.",
		}),
	}

	prometheus.MustRegister(
		m.httpDuration,
		m.transactionsCreated,
		m.statusTransitions,
		m.chargesInitiated,
		m.chargeOutcomes,
		m.promotionRedeems,
		m.reconcileRuns,
	)

	return m
}

func (m *Metrics) RecordTransactionCreated(currency string, discounted bool) {
	if m == nil {
		return
	}
	m.transactionsCreated.WithLabelValues(currency, strconv.FormatBool(discounted)).Inc()
}

func (m *Metrics) RecordStatusTransition(to, source string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to, source).Inc()
}

func (m *Metrics) RecordChargeInitiated(provider, kind string) {
	if m == nil {
		return
	}
	m.chargesInitiated.WithLabelValues(provider, kind).Inc()
}

func (m *Metrics) RecordChargeOutcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.chargeOutcomes.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordPromotionRedeem(result string) {
	if m == nil {
		return
	}
	m.promotionRedeems.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordReconcileRun() {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
}

// GinMiddleware records request duration per route template.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
