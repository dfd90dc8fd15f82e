// Package metrics exposes Prometheus instrumentation for the CRM backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gestor_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gestor_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	feedAlertsDerived = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gestor_feed_alerts",
			Help: "Alerts in the last derived feed, by title",
		},
		[]string{"title"},
	)

	feedBuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gestor_feed_builds_total",
			Help: "Total notification feed recomputations",
		},
	)

	composerFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gestor_composer_fallbacks_total",
			Help: "Reminder compositions that degraded to the fixed fallback",
		},
	)

	remindersSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gestor_reminders_sent_total",
			Help: "Reminders delivered, by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

// RecordFeedBuild updates feed gauges after an aggregation pass.
func RecordFeedBuild(countsByTitle map[string]int) {
	feedBuildsTotal.Inc()
	for title, count := range countsByTitle {
		feedAlertsDerived.WithLabelValues(title).Set(float64(count))
	}
}

// RecordComposerFallback counts a degraded composition.
func RecordComposerFallback() {
	composerFallbacksTotal.Inc()
}

// RecordReminderSent counts a delivery attempt.
func RecordReminderSent(channel string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	remindersSentTotal.WithLabelValues(channel, outcome).Inc()
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware instruments HTTP handlers with request counters and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
