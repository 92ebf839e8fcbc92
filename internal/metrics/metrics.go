/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package metrics exposes Prometheus counters and histograms for the
// dashboard's login, translation, and query pipeline. Served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_logins_total",
			Help: "Total number of dashboard login attempts by outcome.",
		},
		[]string{"outcome"},
	)
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_translations_total",
			Help: "Total number of question-to-SQL translation requests by outcome.",
		},
		[]string{"outcome"},
	)
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_queries_total",
			Help: "Total number of SQL executions by outcome.",
		},
		[]string{"outcome"},
	)
	llmRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyst_llm_request_duration_seconds",
			Help:    "Completion service round-trip duration in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
	queryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyst_query_duration_seconds",
			Help:    "SQL execution duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analyst_active_sessions",
			Help: "Current number of live dashboard sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		loginsTotal,
		translationsTotal,
		queriesTotal,
		llmRequestDuration,
		queryDuration,
		activeSessions,
	)
}

// Outcome labels shared by the counters
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

func ObserveLogin(success bool) {
	loginsTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

func ObserveTranslation(success bool, elapsed time.Duration) {
	translationsTotal.WithLabelValues(outcomeLabel(success)).Inc()
	llmRequestDuration.Observe(elapsed.Seconds())
}

func ObserveQuery(success bool, elapsed time.Duration) {
	queriesTotal.WithLabelValues(outcomeLabel(success)).Inc()
	queryDuration.Observe(elapsed.Seconds())
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func outcomeLabel(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
