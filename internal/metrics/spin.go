package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spinTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spin_requests_total",
			Help: "Total spin requests by result and wheel section",
		},
		[]string{"result", "section"},
	)

	spinDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spin_request_duration_ms",
			Help:    "Spin processing duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"result"},
	)

	spinRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spin_rollbacks_total",
			Help: "Spins rolled back by the persistence stage that failed",
		},
		[]string{"stage"},
	)

	jackpotAmount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jackpot_amount",
			Help: "Last committed jackpot amount",
		},
	)
)

// Spin results.
const (
	ResultSuccess           = "success"
	ResultInsufficientFunds = "insufficient_funds"
	ResultFail              = "fail"
)

// RecordSpin records a finished spin. section < 0 means no section was drawn.
func RecordSpin(result string, section int, started time.Time) {
	sec := "none"
	if section >= 0 {
		sec = strconv.Itoa(section)
	}

	spinTotal.WithLabelValues(result, sec).Inc()
	spinDuration.WithLabelValues(result).Observe(float64(time.Since(started).Milliseconds()))
}

func RecordRollback(stage string) {
	spinRollbacks.WithLabelValues(stage).Inc()
}

func SetJackpot(amount int64) {
	jackpotAmount.Set(float64(amount))
}
