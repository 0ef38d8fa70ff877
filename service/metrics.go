package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Spend outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient_points"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	SpendsTotal   *prometheus.CounterVec
	PointsSpent   prometheus.Counter
	SpendDuration prometheus.Histogram
	RecordsStored prometheus.Counter
	EventFailures prometheus.Counter
}

// NewMetrics registers the collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SpendsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "points",
			Subsystem: "spend",
			Name:      "requests_total",
			Help:      "Spend requests by outcome.",
		}, []string{"outcome"}),
		PointsSpent: f.NewCounter(prometheus.CounterOpts{
			Namespace: "points",
			Subsystem: "spend",
			Name:      "points_total",
			Help:      "Points spent by successful requests.",
		}),
		SpendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "points",
			Subsystem: "spend",
			Name:      "duration_seconds",
			Help:      "Time to load records, build the ledger and spend.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		RecordsStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: "points",
			Subsystem: "store",
			Name:      "records_appended_total",
			Help:      "Transaction records appended to the store.",
		}),
		EventFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "points",
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Spend events that could not be published.",
		}),
	}
}
