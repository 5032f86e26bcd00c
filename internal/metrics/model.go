package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Converged = "converged"
	Capped    = "capped"
	Failed    = "failed"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(
		Observer.prometheus.Runs,
		Observer.prometheus.Iterations,
		Observer.prometheus.Duration,
	)
}

type Metrics struct {
	prometheus Prometheus
}

// Run records a completed clustering run.
func (m *Metrics) Run(iterations int, converged bool, duration time.Duration) {
	status := Converged
	if !converged {
		status = Capped
	}
	m.prometheus.Runs.WithLabelValues(status).Inc()
	m.prometheus.Iterations.Observe(float64(iterations))
	m.prometheus.Duration.Observe(duration.Seconds())
}

// Fail records a clustering run that returned an error.
func (m *Metrics) Fail() {
	m.prometheus.Runs.WithLabelValues(Failed).Inc()
}
