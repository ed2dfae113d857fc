// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "saju"

type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	ledgerTransactions  *prometheus.CounterVec
	analyses            *prometheus.CounterVec
	paymentVerification *prometheus.CounterVec
	ledgerMismatches    prometheus.Gauge
	jobRuns             *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"method", "route"}),
		ledgerTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger apply attempts by transaction type and outcome.",
		}, []string{"type", "outcome"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "created_total",
			Help:      "Analysis creations by type and outcome.",
		}, []string{"type", "outcome"}),
		paymentVerification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "verifications_total",
			Help:      "PSP verification results.",
		}, []string{"outcome"}),
		ledgerMismatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reconciliation_mismatches",
			Help:      "Accounts whose balance differed from the ledger sum at the last reconciliation.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.ledgerTransactions,
		m.analyses,
		m.paymentVerification,
		m.ledgerMismatches,
		m.jobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RequestStarted() func(method, route string, status int) {
	start := time.Now()
	m.httpInFlight.Inc()
	return func(method, route string, status int) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// The Record helpers accept a nil receiver so services can run without
// metrics in tests.

func (m *Metrics) RecordLedgerTransaction(txType, outcome string) {
	if m == nil {
		return
	}
	m.ledgerTransactions.WithLabelValues(txType, outcome).Inc()
}

func (m *Metrics) RecordAnalysis(analysisType, outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(analysisType, outcome).Inc()
}

func (m *Metrics) RecordPaymentVerification(outcome string) {
	if m == nil {
		return
	}
	m.paymentVerification.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetLedgerMismatches(n int) {
	if m == nil {
		return
	}
	m.ledgerMismatches.Set(float64(n))
}

func (m *Metrics) RecordJobRun(job string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}
