// Package metrics holds Prometheus instruments used across the app.  All
// collectors are registered with the global registry, so mounting promhttp
// in the router is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderform_active_sessions",
			Help: "Number of mounted form sessions currently held in memory.",
		})

	SessionEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orderform_session_evict_total",
			Help: "Cumulative number of form sessions evicted (idle or capacity).",
		})

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderform_submissions_total",
			Help: "Form submissions by outcome (valid, invalid).",
		}, []string{"outcome"})

	ValidationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderform_validation_errors_total",
			Help: "Field validation failures by field name.",
		}, []string{"field"})

	PictureLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderform_picture_loads_total",
			Help: "Picture loads by outcome (applied, stale, rejected).",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		ActiveSessions,
		SessionEvictTotal,
		SubmissionsTotal,
		ValidationErrorsTotal,
		PictureLoadsTotal,
	)
}
