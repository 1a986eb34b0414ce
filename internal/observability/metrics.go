package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
	OutcomeOversize = "oversize"
	OutcomeAborted  = "aborted"
	OutcomeClosed   = "closed"
)

var (
	registerOnce sync.Once

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scnet",
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Requests sent to sc-server by outcome.",
		},
		[]string{"type", "outcome"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scnet",
			Subsystem: "session",
			Name:      "request_duration_seconds",
			Help:      "Time from send to correlated response in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)
	pendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scnet",
			Subsystem: "session",
			Name:      "pending_requests",
			Help:      "Requests awaiting a response.",
		},
	)
	reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scnet",
			Subsystem: "session",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts made by the send retry policy.",
		},
	)
	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scnet",
			Subsystem: "events",
			Name:      "received_total",
			Help:      "Event envelopes received, by whether a subscription matched.",
		},
		[]string{"matched"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requests, requestDuration, pendingRequests, reconnects, events)
	})
}

func RecordRequest(requestType, outcome string, duration time.Duration) {
	RegisterMetrics()
	requests.WithLabelValues(requestType, outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeFailed {
		requestDuration.WithLabelValues(requestType).Observe(duration.Seconds())
	}
}

func AddPending(delta int) {
	RegisterMetrics()
	pendingRequests.Add(float64(delta))
}

func RecordReconnect() {
	RegisterMetrics()
	reconnects.Inc()
}

func RecordEvent(matched bool) {
	RegisterMetrics()
	if matched {
		events.WithLabelValues("true").Inc()
		return
	}
	events.WithLabelValues("false").Inc()
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
