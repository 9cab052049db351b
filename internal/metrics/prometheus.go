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
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Pipeline metrics
	analysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Finished analysis runs by terminal status and error kind",
		},
		[]string{"status", "kind"},
	)

	analysisStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_step_duration_seconds",
			Help:    "Duration of each pipeline step in seconds",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"step"},
	)

	analysisDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_degraded_sections_total",
			Help: "Sections left empty because they were missing or unparseable",
		},
		[]string{"section"},
	)

	// Model client metrics
	modelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_calls_total",
			Help: "Model endpoint calls by client, call type and outcome",
		},
		[]string{"client", "call", "outcome"},
	)

	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_call_duration_seconds",
			Help:    "Model endpoint call latency in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 20, 40, 90},
		},
		[]string{"client", "call"},
	)

	modelFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_fallbacks_total",
			Help: "Calls answered by the simulated client after the primary was unavailable",
		},
		[]string{"call"},
	)

	rateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limit_wait_seconds",
			Help:    "Time spent waiting on a rate limiter",
			Buckets: []float64{.01, .1, .5, 1, 5, 10, 30},
		},
		[]string{"scope"},
	)

	// Archive metrics
	archiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_archive_writes_total",
			Help: "Report archive writes by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// InFlight adjusts the in-flight gauge by delta.
func InFlight(delta float64) {
	httpRequestsInFlight.Add(delta)
}

// RecordAnalysisRun records a finished run.
func RecordAnalysisRun(status, kind string) {
	analysisRunsTotal.WithLabelValues(status, kind).Inc()
}

// RecordStep records the duration of one pipeline step.
func RecordStep(step string, d time.Duration) {
	analysisStepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// RecordDegraded counts a section that parsed to nothing.
func RecordDegraded(section string) {
	analysisDegradedTotal.WithLabelValues(section).Inc()
}

// RecordModelCall records one model call.
func RecordModelCall(client, call, outcome string, d time.Duration) {
	modelCallsTotal.WithLabelValues(client, call, outcome).Inc()
	modelCallDuration.WithLabelValues(client, call).Observe(d.Seconds())
}

// RecordFallback counts a simulated substitution.
func RecordFallback(call string) {
	modelFallbacksTotal.WithLabelValues(call).Inc()
}

// RecordRateLimitWait records time spent in a limiter.
func RecordRateLimitWait(scope string, d time.Duration) {
	rateLimitWaitSeconds.WithLabelValues(scope).Observe(d.Seconds())
}

// RecordArchiveWrite records an archive attempt.
func RecordArchiveWrite(outcome string) {
	archiveWritesTotal.WithLabelValues(outcome).Inc()
}
