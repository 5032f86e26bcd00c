package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "cluster"

type Prometheus struct {
	Runs       *prometheus.CounterVec
	Iterations prometheus.Histogram
	Duration   prometheus.Histogram
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "clustering runs by outcome",
			}, []string{"status"}),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "iterations",
				Help:      "update steps until convergence or the iteration cap",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			}),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_seconds",
				Help:      "duration of a single clustering run",
				Buckets:   prometheus.DefBuckets,
			}),
	}
}

// Serve exposes the registered metrics on the given address.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
}
