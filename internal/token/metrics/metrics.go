package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the mint module: mint volume per entry
// point, payment volume, lock transitions, and mint latency.
type Metrics struct {
	MintsTotal    *prometheus.CounterVec
	MintFailures  *prometheus.CounterVec
	PaymentVolume prometheus.Counter
	LockChanges   prometheus.Counter
	TokensBurned  prometheus.Counter
	MintDuration  prometheus.Histogram
}

// New creates a Metrics instance with all mint module metrics registered.
func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_mints_total",
			Help: "Total successful mints by entry point",
		}, []string{"entry_point"}),
		MintFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_mint_failures_total",
			Help: "Failed mint attempts by error code",
		}, []string{"code"}),
		PaymentVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_payment_volume_total",
			Help: "Total declared payment volume of successful mints, in smallest units",
		}),
		LockChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_lock_changes_total",
			Help: "Total administrative lock overrides and unlock-transfers",
		}),
		TokensBurned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_tokens_burned_total",
			Help: "Total tokens removed from the live set",
		}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigil_mint_duration_seconds",
			Help:    "Duration of MintWithPayment operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveMint records a successful mint for the given entry point.
func (m *Metrics) ObserveMint(entryPoint string, start time.Time) {
	m.MintsTotal.WithLabelValues(entryPoint).Inc()
	m.MintDuration.Observe(time.Since(start).Seconds())
}

// ObserveMintFailure records a failed mint attempt.
func (m *Metrics) ObserveMintFailure(code string) {
	m.MintFailures.WithLabelValues(code).Inc()
}
