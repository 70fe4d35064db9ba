package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	rateLimited          prometheus.Counter

	// Business metrics
	screenRuns     *prometheus.CounterVec
	screenDuration prometheus.Histogram
	screenReturned prometheus.Histogram
	warningsTotal  *prometheus.CounterVec
	snapshotLoads  *prometheus.CounterVec
	snapshotRows   *prometheus.GaugeVec
	refreshTotal   *prometheus.CounterVec
	sessionsActive prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),

		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_requests_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)
	reg.MustRegister(r.rateLimited)

	// Business metrics
	r.screenRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnequity_screen_runs_total",
			Help: "Total number of screening pipeline runs",
		},
		[]string{"preset", "status"},
	)
	r.screenDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vnequity_screen_duration_seconds",
			Help:    "Screening pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	r.screenReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vnequity_screen_rows_returned",
			Help:    "Rows returned per screening run",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 500},
		},
	)
	r.warningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnequity_warnings_total",
			Help: "Warnings surfaced by screening runs",
		},
		[]string{"code"},
	)
	r.snapshotLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnequity_snapshot_loads_total",
			Help: "Snapshot table loads",
		},
		[]string{"source", "kind", "status"},
	)
	r.snapshotRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vnequity_snapshot_rows",
			Help: "Rows in the loaded snapshot table",
		},
		[]string{"kind"},
	)
	r.refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnequity_refresh_total",
			Help: "Scheduled snapshot refreshes",
		},
		[]string{"status"},
	)
	r.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vnequity_sessions_active",
			Help: "Sessions held in memory",
		},
	)

	reg.MustRegister(r.screenRuns)
	reg.MustRegister(r.screenDuration)
	reg.MustRegister(r.screenReturned)
	reg.MustRegister(r.warningsTotal)
	reg.MustRegister(r.snapshotLoads)
	reg.MustRegister(r.snapshotRows)
	reg.MustRegister(r.refreshTotal)
	reg.MustRegister(r.sessionsActive)

	return r
}

// RecordRequest records metrics for an HTTP request
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRateLimited counts a rejected request
func (r *Registry) RecordRateLimited() {
	r.rateLimited.Inc()
}

// RecordScreen records a pipeline run. preset is empty for ad-hoc criteria.
func (r *Registry) RecordScreen(preset string, err error, returned int, duration float64) {
	if preset == "" {
		preset = "custom"
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.screenRuns.WithLabelValues(preset, status).Inc()
	if err == nil {
		r.screenDuration.Observe(duration)
		r.screenReturned.Observe(float64(returned))
	}
}

// RecordWarning counts a surfaced warning by code
func (r *Registry) RecordWarning(code string) {
	r.warningsTotal.WithLabelValues(code).Inc()
}

// RecordSnapshotLoad records one table load
func (r *Registry) RecordSnapshotLoad(source, kind string, rows int, err error) {
	if err != nil {
		r.snapshotLoads.WithLabelValues(source, kind, "error").Inc()
		return
	}
	r.snapshotLoads.WithLabelValues(source, kind, "ok").Inc()
	r.snapshotRows.WithLabelValues(kind).Set(float64(rows))
}

// RecordRefresh records a scheduled refresh outcome
func (r *Registry) RecordRefresh(err error) {
	if err != nil {
		r.refreshTotal.WithLabelValues("error").Inc()
		return
	}
	r.refreshTotal.WithLabelValues("ok").Inc()
}

// SetSessionsActive sets the in-memory session count
func (r *Registry) SetSessionsActive(n int) {
	r.sessionsActive.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
