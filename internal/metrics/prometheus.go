package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PivotSentinel/internal/model"
)

var (
	// Market data metrics
	FetchCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotsentinel_fetch_calls_total",
			Help: "Total number of market data fetches",
		},
		[]string{"source", "timeframe", "status"}, // status: success|error|empty
	)

	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pivotsentinel_fetch_latency_seconds",
			Help:    "Market data fetch latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotsentinel_cache_lookups_total",
			Help: "Series cache lookups",
		},
		[]string{"backend", "result"}, // result: hit|miss|error
	)

	// Analysis metrics
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pivotsentinel_analysis_duration_seconds",
			Help:    "Time spent analyzing one symbol",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"}, // kind: pivots|setups
	)

	SetupsActive = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotsentinel_setups_detected_total",
			Help: "Detected setups by time frame and direction",
		},
		[]string{"timeframe", "direction"},
	)

	// Scheduler metrics
	ScanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotsentinel_scan_runs_total",
			Help: "Watchlist scan executions",
		},
		[]string{"trigger", "status"},
	)

	WatchlistSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pivotsentinel_watchlist_symbols",
			Help: "Number of symbols on the watchlist",
		},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotsentinel_notifications_total",
			Help: "Telegram messages sent",
		},
		[]string{"status"},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivotsentinel_http_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"route", "code"},
	)
)

var once sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(FetchCalls, FetchLatency, CacheLookups)
		prometheus.MustRegister(AnalysisDuration, SetupsActive)
		prometheus.MustRegister(ScanRuns, WatchlistSize, NotificationsSent)
		prometheus.MustRegister(HTTPRequests)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordFetch records one market data fetch.
func RecordFetch(source string, tf model.TimeFrame, bars int, latency time.Duration, err error) {
	st := status(err)
	if err == nil && bars == 0 {
		st = "empty"
	}
	FetchCalls.WithLabelValues(source, tf.String(), st).Inc()
	FetchLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(backend string, hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	CacheLookups.WithLabelValues(backend, result).Inc()
}

// RecordAnalysis records the duration of an analysis pass.
func RecordAnalysis(kind string, started time.Time) {
	AnalysisDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// RecordSetup counts an active setup.
func RecordSetup(tf model.TimeFrame, d model.Direction) {
	SetupsActive.WithLabelValues(tf.String(), string(d)).Inc()
}

// RecordScan records a watchlist scan.
func RecordScan(trigger model.TriggerType, err error) {
	ScanRuns.WithLabelValues(string(trigger), status(err)).Inc()
}

// RecordNotification records a Telegram send.
func RecordNotification(err error) {
	NotificationsSent.WithLabelValues(status(err)).Inc()
}
