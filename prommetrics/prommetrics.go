// Package prommetrics exports augmentation run metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := prommetrics.New(reg)
//	aug, _ := matdisco.New(datasets, cfg, matdisco.WithMetricsCollector(mc))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/matdisco"
)

const namespace = "matdisco"

// Collector implements matdisco.MetricsCollector with Prometheus metrics.
type Collector struct {
	iterationLatency prometheus.Histogram
	rowsMoved        prometheus.Counter
	donorsLeft       prometheus.Gauge
	runLatency       *prometheus.HistogramVec
	runs             *prometheus.CounterVec
	admitted         prometheus.Histogram
}

var _ matdisco.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		iterationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "iteration_duration_seconds",
			Help:      "Latency of augmentation iterations that moved rows",
			Buckets:   prometheus.DefBuckets,
		}),
		rowsMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_moved_total",
			Help:      "Donor rows admitted into acceptor sets",
		}),
		donorsLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "donors_remaining",
			Help:      "Donor pool size after the most recent iteration",
		}),
		runLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Latency of whole augmentation runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Augmentation runs by status",
		}, []string{"status"}),
		admitted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_admitted_rows",
			Help:      "Rows admitted per completed run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	for _, m := range []prometheus.Collector{
		c.iterationLatency, c.rowsMoved, c.donorsLeft, c.runLatency, c.runs, c.admitted,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordIteration implements matdisco.MetricsCollector.
func (c *Collector) RecordIteration(moved, donorsLeft int, d time.Duration) {
	c.iterationLatency.Observe(d.Seconds())
	c.rowsMoved.Add(float64(moved))
	c.donorsLeft.Set(float64(donorsLeft))
}

// RecordRun implements matdisco.MetricsCollector.
func (c *Collector) RecordRun(_, admitted int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.runLatency.WithLabelValues(status).Observe(d.Seconds())
	c.runs.WithLabelValues(status).Inc()
	if err == nil {
		c.admitted.Observe(float64(admitted))
	}
}
