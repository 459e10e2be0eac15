package simmetrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "leaguesim"

// PrometheusMetrics records sim metrics into a prometheus registry.
type PrometheusMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	gamesSimulated    *prometheus.CounterVec
	forceWinAttempts  *prometheus.HistogramVec
	injuries          prometheus.Histogram
	dayDuration       prometheus.Histogram
	gamesPerDay       prometheus.Histogram
}

// NewPrometheusMetrics registers the sim collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		gamesSimulated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_simulated_total",
			Help:      "Games simulated and written.",
		}, []string{"playoffs"}),
		forceWinAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "force_win_attempts",
			Help:      "Generator invocations needed to force a winner.",
			Buckets:   []float64{1, 2, 5, 10, 50, 100, 500, 1000, 2000},
		}, []string{"found"}),
		injuries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "injury_games_remaining",
			Help:      "Length of new injuries in games.",
			Buckets:   []float64{1, 3, 5, 10, 25, 50, 100},
		}),
		dayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "day_duration_seconds",
			Help:      "Wall time spent simulating one league day.",
			Buckets:   prometheus.DefBuckets,
		}),
		gamesPerDay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "games_per_day",
			Help:      "Games simulated per league day.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		}),
	}

	for _, c := range []prometheus.Collector{
		m.operations, m.operationDuration, m.gamesSimulated, m.forceWinAttempts,
		m.injuries, m.dayDuration, m.gamesPerDay,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, op string) {
	m.operations.WithLabelValues(op, "attempt").Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, op string) {
	m.operations.WithLabelValues(op, "success").Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, op string) {
	m.operations.WithLabelValues(op, "failure").Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, op string, d time.Duration) {
	m.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordGameSimulated(_ context.Context, playoffs bool) {
	m.gamesSimulated.WithLabelValues(strconv.FormatBool(playoffs)).Inc()
}

func (m *PrometheusMetrics) RecordForceWinAttempts(_ context.Context, attempts int, found bool) {
	m.forceWinAttempts.WithLabelValues(strconv.FormatBool(found)).Observe(float64(attempts))
}

func (m *PrometheusMetrics) RecordInjury(_ context.Context, gamesRemaining int) {
	m.injuries.Observe(float64(gamesRemaining))
}

func (m *PrometheusMetrics) RecordDaySimulated(_ context.Context, games int, d time.Duration) {
	m.gamesPerDay.Observe(float64(games))
	m.dayDuration.Observe(d.Seconds())
}

var _ Metrics = (*PrometheusMetrics)(nil)
