// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Listener mode gauge values.
const (
	ModeValueWebSocket = 0
	ModeValuePolling   = 1
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Listener metrics
	ListenerMode       prometheus.Gauge
	EventsReceived     prometheus.Counter
	ListenerReconnects prometheus.Counter
	SeenSetSize        prometheus.Gauge

	// Analyzer metrics
	ScanOutcomes   *prometheus.CounterVec
	SignalsEmitted prometheus.Counter

	// Price tracker metrics
	SweepsTotal       prometheus.Counter
	TokensSwept       prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	SweepDuration     prometheus.Histogram

	// Discovery metrics
	DiscoveryRunsTotal  *prometheus.CounterVec
	WinnersFound        prometheus.Counter
	EarlyBuyersRecorded prometheus.Counter
	CandidatesPromoted  prometheus.Counter
	DiscoveryDuration   prometheus.Histogram

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulSweep     prometheus.Gauge
	LastSuccessfulDiscovery prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_sniper"
	}

	return &Metrics{
		// Listener metrics
		ListenerMode: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "mode",
			Help:      "Current listener mode (0=websocket, 1=polling)",
		}),
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "events_received_total",
			Help:      "Total number of creation events received",
		}),
		ListenerReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnect attempts",
		}),
		SeenSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "seen_set_size",
			Help:      "Current number of signatures in the dedup set",
		}),

		// Analyzer metrics
		ScanOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "scan_outcomes_total",
			Help:      "Total number of token scans by outcome",
		}, []string{"outcome"}),
		SignalsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "signals_emitted_total",
			Help:      "Total number of smart-money signals emitted",
		}),

		// Price tracker metrics
		SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricetracker",
			Name:      "sweeps_total",
			Help:      "Total number of price sweeps completed",
		}),
		TokensSwept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricetracker",
			Name:      "tokens_swept_total",
			Help:      "Total number of tokens checked during sweeps",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricetracker",
			Name:      "status_transitions_total",
			Help:      "Total number of token status transitions by target status",
		}, []string{"status"}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricetracker",
			Name:      "sweep_duration_seconds",
			Help:      "Price sweep duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120},
		}),

		// Discovery metrics
		DiscoveryRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "runs_total",
			Help:      "Total number of discovery runs by status",
		}, []string{"status"}),
		WinnersFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "winners_found_total",
			Help:      "Total number of winner tokens recorded",
		}),
		EarlyBuyersRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "early_buyers_recorded_total",
			Help:      "Total number of early buyers recorded",
		}),
		CandidatesPromoted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_promoted_total",
			Help:      "Total number of candidates promoted to the roster",
		}),
		DiscoveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "run_duration_seconds",
			Help:      "Discovery run duration in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Health metrics
		LastSuccessfulSweep: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of last successful price sweep",
		}),
		LastSuccessfulDiscovery: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_discovery_timestamp",
			Help:      "Unix timestamp of last successful discovery run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// SetListenerMode updates the listener mode gauge.
func SetListenerMode(polling bool) {
	if polling {
		DefaultMetrics.ListenerMode.Set(ModeValuePolling)
	} else {
		DefaultMetrics.ListenerMode.Set(ModeValueWebSocket)
	}
}

// RecordEventReceived increments the events received counter.
func RecordEventReceived() {
	DefaultMetrics.EventsReceived.Inc()
}

// RecordReconnect increments the reconnect counter.
func RecordReconnect() {
	DefaultMetrics.ListenerReconnects.Inc()
}

// UpdateSeenSetSize updates the dedup set size gauge.
func UpdateSeenSetSize(n int) {
	DefaultMetrics.SeenSetSize.Set(float64(n))
}

// RecordScanOutcome increments the scan outcome counter.
func RecordScanOutcome(outcome string) {
	DefaultMetrics.ScanOutcomes.WithLabelValues(outcome).Inc()
}

// RecordSignalEmitted increments the signals emitted counter.
func RecordSignalEmitted() {
	DefaultMetrics.SignalsEmitted.Inc()
}

// RecordSweep records a completed price sweep.
func RecordSweep(tokensSwept int, seconds float64) {
	DefaultMetrics.SweepsTotal.Inc()
	DefaultMetrics.TokensSwept.Add(float64(tokensSwept))
	DefaultMetrics.SweepDuration.Observe(seconds)
}

// RecordStatusTransition increments the status transition counter.
func RecordStatusTransition(status string) {
	DefaultMetrics.StatusTransitions.WithLabelValues(status).Inc()
}

// RecordDiscoveryRun records a discovery run.
func RecordDiscoveryRun(status string, seconds float64) {
	DefaultMetrics.DiscoveryRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.DiscoveryDuration.Observe(seconds)
}
