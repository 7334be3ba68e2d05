package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Party lifecycle metrics
	partiesJoinedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_parties_joined_total",
			Help: "Total number of parties that joined the queue",
		},
	)

	partiesAdmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_parties_admitted_total",
			Help: "Total number of parties admitted into the check-in window",
		},
	)

	partiesSeatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_parties_seated_total",
			Help: "Total number of parties that confirmed check-in and were seated",
		},
	)

	partiesRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_parties_removed_total",
			Help: "Total number of parties removed from the waitlist",
		},
		[]string{"reason"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waitlist_queue_depth",
			Help: "Number of parties currently queued",
		},
	)

	// Event stream metrics
	sseConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waitlist_sse_connections",
			Help: "Number of open party event streams",
		},
	)

	// Job worker metrics
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_job_runs_total",
			Help: "Total number of job executions per queue",
		},
		[]string{"queue", "outcome"},
	)

	jobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waitlist_job_run_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"queue"},
	)
)

// Removal reasons for RecordPartyRemoved.
const (
	ReasonLeft           = "left"
	ReasonCheckinExpired = "checkin_expired"
	ReasonSeatExpired    = "seat_expired"
)

// RecordPartyJoined records a party entering the queue.
func RecordPartyJoined() {
	partiesJoinedTotal.Inc()
}

// RecordPartiesAdmitted records parties flipped to checking-in by a dequeue run.
func RecordPartiesAdmitted(n int) {
	partiesAdmittedTotal.Add(float64(n))
}

// RecordPartySeated records a confirmed check-in.
func RecordPartySeated() {
	partiesSeatedTotal.Inc()
}

// RecordPartyRemoved records a removal with its reason.
func RecordPartyRemoved(reason string, n int) {
	partiesRemovedTotal.WithLabelValues(reason).Add(float64(n))
}

// SetQueueDepth sets the current number of queued parties.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// IncSSEConnections tracks an event stream opening.
func IncSSEConnections() {
	sseConnections.Inc()
}

// DecSSEConnections tracks an event stream closing.
func DecSSEConnections() {
	sseConnections.Dec()
}

// RecordJobRun records one job execution and its duration.
func RecordJobRun(queue, outcome string, duration time.Duration) {
	jobRunsTotal.WithLabelValues(queue, outcome).Inc()
	jobRunDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

// MetricsHandler returns the Prometheus metrics handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
