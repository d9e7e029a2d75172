// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"token-sale-ledger/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	EventsRecorded  *prometheus.CounterVec
	BaseRaised      prometheus.Counter
	TokensSold      prometheus.Counter
	TokensClaimed   prometheus.Counter
	RefundsQueued   prometheus.Counter
	EscrowWithdrawn prometheus.Counter
	SoftCapReached  prometheus.Gauge
	SaleEnded       prometheus.Gauge

	// Vesting metrics
	TokensReleased   prometheus.Counter
	VestingsRevoked  prometheus.Counter
	SchedulesCreated prometheus.Counter

	// API metrics
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Feed metrics
	FeedSubscribers prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_sale_ledger"
	}

	return &Metrics{
		// Ledger metrics
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_recorded_total",
			Help:      "Total number of durable sale events recorded by kind",
		}, []string{"kind"}),
		BaseRaised: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "base_raised_total",
			Help:      "Total base currency accepted across purchases",
		}),
		TokensSold: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_sold_total",
			Help:      "Total token units allocated across purchases",
		}),
		TokensClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_claimed_total",
			Help:      "Total token units minted to claimants",
		}),
		RefundsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "refunds_queued_total",
			Help:      "Total base currency moved to escrow for refunds",
		}),
		EscrowWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "escrow_withdrawn_total",
			Help:      "Total base currency paid out of escrow",
		}),
		SoftCapReached: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "soft_cap_reached",
			Help:      "1 once total raised crossed the soft cap, 0 before",
		}),
		SaleEnded: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "sale_ended",
			Help:      "1 once the sale has been ended, 0 while open",
		}),

		// Vesting metrics
		TokensReleased: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vesting",
			Name:      "tokens_released_total",
			Help:      "Total token units released from vesting schedules",
		}),
		VestingsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vesting",
			Name:      "revoked_total",
			Help:      "Total number of vesting schedules revoked",
		}),
		SchedulesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vesting",
			Name:      "schedules_created_total",
			Help:      "Total number of vesting schedules created",
		}),

		// API metrics
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		RequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_errors_total",
			Help:      "Total number of HTTP requests answered with an error status",
		}, []string{"path", "status"}),

		// Feed metrics
		FeedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of connected WebSocket subscribers",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Record updates metrics from a durable sale event. Implements the ledger's
// Recorder contract so metrics stay an exact projection of the event stream.
func (m *Metrics) Record(ctx context.Context, ev *domain.SaleEvent) {
	if ev == nil {
		return
	}

	m.EventsRecorded.WithLabelValues(ev.Kind).Inc()

	switch ev.Kind {
	case domain.EventKindPurchaseAccepted:
		m.BaseRaised.Add(float64(ev.BaseAmount))
		m.TokensSold.Add(float64(ev.TokenAmount))
	case domain.EventKindClaimPaid:
		m.TokensClaimed.Add(float64(ev.TokenAmount))
	case domain.EventKindRefundRequested:
		m.RefundsQueued.Add(float64(ev.BaseAmount))
	case domain.EventKindEscrowWithdrawn:
		m.EscrowWithdrawn.Add(float64(ev.BaseAmount))
	case domain.EventKindSoftCapReached:
		m.SoftCapReached.Set(1)
	case domain.EventKindSaleEnded:
		m.SaleEnded.Set(1)
	case domain.EventKindTokensReleased:
		m.TokensReleased.Add(float64(ev.TokenAmount))
	case domain.EventKindVestingRevoked:
		m.VestingsRevoked.Inc()
	case domain.EventKindVestingCreated:
		m.SchedulesCreated.Inc()
	}
}

// RecordRequest records HTTP request metrics.
func (m *Metrics) RecordRequest(path, method string, status int, seconds float64) {
	m.RequestDuration.WithLabelValues(path, method).Observe(seconds)
	if status >= 400 {
		m.RequestErrors.WithLabelValues(path, httpStatusLabel(status)).Inc()
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "ok"
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
