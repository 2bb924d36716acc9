// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MainExclusiveHeld tracks whether the main context currently holds
	// the exclusive lock (1 = held, 0 = released).
	MainExclusiveHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "main_exclusive_held",
			Help: "Whether the main context holds the exclusive lock (1 = held)",
		},
	)

	// SharedHolders tracks the current number of shared lock holders.
	SharedHolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shared_lock_holders",
			Help: "Current number of shared lock holders",
		},
	)

	// LockAcquisitions tracks lock acquisition attempts by mode and result.
	LockAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lock_acquisitions_total",
			Help: "Total lock acquisition attempts by mode and result",
		},
		[]string{"mode", "result"},
	)

	// SharedSectionDuration tracks how long actions hold the shared lock.
	SharedSectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shared_section_duration_seconds",
			Help:    "Duration actions spend holding the shared lock in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// ExclusiveReacquireWait tracks how long the main context waits for
	// shared holders to drain when reacquiring the exclusive lock.
	ExclusiveReacquireWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exclusive_reacquire_wait_seconds",
			Help:    "Time spent waiting for shared holders to drain before exclusive reacquisition",
			Buckets: []float64{.0001, .001, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// InvalidTransitions tracks rejected lock state transitions by operation.
	InvalidTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalid_lock_transitions_total",
			Help: "Total rejected lock state transitions by operation",
		},
		[]string{"operation"},
	)

	// WorkerReads tracks shared-state reads performed by workers by status.
	WorkerReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_reads_total",
			Help: "Total worker reads of shared state by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// RegisterMetricsEndpoint registers the /metrics endpoint on a Gin router.
func RegisterMetricsEndpoint(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterMetricsEndpointWithPath registers the metrics endpoint at a custom path.
func RegisterMetricsEndpointWithPath(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// MetricsHandler returns the Prometheus HTTP handler.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// SetMainExclusiveHeld records whether the main context holds the exclusive lock.
func SetMainExclusiveHeld(held bool) {
	if held {
		MainExclusiveHeld.Set(1)
	} else {
		MainExclusiveHeld.Set(0)
	}
}

// RecordSharedAcquired records a successful shared lock acquisition.
func RecordSharedAcquired() {
	SharedHolders.Inc()
	LockAcquisitions.WithLabelValues("shared", "acquired").Inc()
}

// RecordSharedRejected records a non-blocking shared acquisition that was
// rejected because the exclusive lock was held.
func RecordSharedRejected() {
	LockAcquisitions.WithLabelValues("shared", "rejected").Inc()
}

// RecordSharedReleased records a shared lock release.
func RecordSharedReleased() {
	SharedHolders.Dec()
}

// RecordExclusiveAcquired records a successful exclusive lock acquisition.
func RecordExclusiveAcquired() {
	LockAcquisitions.WithLabelValues("exclusive", "acquired").Inc()
}

// RecordSharedSectionDuration records how long an action held the shared lock.
func RecordSharedSectionDuration(seconds float64) {
	SharedSectionDuration.Observe(seconds)
}

// RecordExclusiveReacquireWait records the drain wait before an exclusive reacquisition.
func RecordExclusiveReacquireWait(seconds float64) {
	ExclusiveReacquireWait.Observe(seconds)
}

// RecordInvalidTransition records a rejected lock state transition.
func RecordInvalidTransition(operation string) {
	InvalidTransitions.WithLabelValues(operation).Inc()
}

// RecordWorkerRead records a worker read of shared state.
func RecordWorkerRead(operation, status string) {
	WorkerReads.WithLabelValues(operation, status).Inc()
}
