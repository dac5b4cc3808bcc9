package api

import (
	"time"

	"github.com/aqlanhadi/rekon/reconcile"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekon",
			Name:      "runs_total",
			Help:      "Reconciliation requests by outcome.",
		}, []string{"status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekon",
			Name:      "rows_total",
			Help:      "Reconciled rows by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rekon",
			Name:      "run_duration_seconds",
			Help:      "Time spent reconciling one request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.rows, m.duration)
	return m
}

func (m *metrics) observe(res *reconcile.Result, took time.Duration) {
	m.runs.WithLabelValues("ok").Inc()
	matched, mismatched := res.Counts()
	m.rows.WithLabelValues(string(reconcile.StatusMatched)).Add(float64(matched))
	m.rows.WithLabelValues(string(reconcile.StatusMismatched)).Add(float64(mismatched))
	m.duration.Observe(took.Seconds())
}
