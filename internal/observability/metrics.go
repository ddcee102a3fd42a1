// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	AuthAttempts *prometheus.CounterVec
	AuthDuration prometheus.Histogram
	HTTPRequests *prometheus.CounterVec
}

// Compile-time interface check.
var _ auth.AttemptRecorder = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "libraryms_auth_attempts_total",
				Help: "Authentication attempts by result",
			},
			[]string{"result"},
		),
		AuthDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "libraryms_auth_duration_seconds",
			Help: "Time spent authenticating a librarian, including password verification",
			// bcrypt at cost 10 lands around 50-100ms.
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "libraryms_http_requests_total",
				Help: "HTTP requests by method, route template, and status code",
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.AuthDuration, m.HTTPRequests)

	// Pre-create result series so dashboards see zeros before the first login.
	for _, r := range []auth.AttemptResult{auth.ResultSuccess, auth.ResultRejected, auth.ResultLocked, auth.ResultError} {
		m.AuthAttempts.WithLabelValues(string(r))
	}
	return m
}

// RecordAttempt implements auth.AttemptRecorder.
func (m *Metrics) RecordAttempt(result auth.AttemptResult, d time.Duration) {
	m.AuthAttempts.WithLabelValues(string(result)).Inc()
	m.AuthDuration.Observe(d.Seconds())
}

// RecordHTTPRequest counts a served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
