package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/san-kum/immunosim/internal/sim"
)

// Metrics is the server's Prometheus registry and its collectors.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	runTime  prometheus.Histogram
	unstable prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "immunosim",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "immunosim",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "immunosim",
			Name:      "simulations_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		runTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "immunosim",
			Name:      "simulation_duration_seconds",
			Help:      "Wall time spent integrating.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		unstable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "immunosim",
			Name:      "unstable_results_total",
			Help:      "Runs rejected by the stability check.",
		}),
	}
	reg.MustRegister(
		m.requests, m.latency, m.runs, m.runTime, m.unstable,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// OnRun implements sim.Observer.
func (m *Metrics) OnRun(_ *sim.Result, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runTime.Observe(elapsed.Seconds())
}

var _ sim.Observer = (*Metrics)(nil)
