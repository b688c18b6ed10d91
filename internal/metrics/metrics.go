// Package metrics provides Prometheus metrics for the edit store
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the edit store
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Edit tracking metrics
	ActionsTotal      *prometheus.CounterVec
	UndoOutcomesTotal *prometheus.CounterVec
	PatchOpsTotal     *prometheus.CounterVec
	TrackedEntries    prometheus.Gauge

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics and registers them on reg. A nil reg uses
// the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editstore_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "editstore_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "editstore_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	m.ActionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editstore_actions_total",
			Help: "Total number of edit tracking actions dispatched",
		},
		[]string{"action", "status"},
	)

	m.UndoOutcomesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editstore_undo_outcomes_total",
			Help: "Total number of closed undo windows by outcome",
		},
		[]string{"outcome"},
	)

	m.PatchOpsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editstore_patch_operations_total",
			Help: "Total number of compiled patch operations by op",
		},
		[]string{"op"},
	)

	m.TrackedEntries = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "editstore_tracked_entries",
			Help: "Number of live and trash entries held by the store",
		},
	)

	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "editstore_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RunUptime updates the uptime gauge every interval until stop is closed
func (m *Metrics) RunUptime(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		case <-stop:
			return
		}
	}
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAction records a dispatched store action
func (m *Metrics) RecordAction(action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ActionsTotal.WithLabelValues(action, status).Inc()
}

// RecordUndoOutcome records how an undo window was closed
func (m *Metrics) RecordUndoOutcome(outcome string) {
	m.UndoOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordPatchOps counts compiled operations by op
func (m *Metrics) RecordPatchOps(ops []string) {
	for _, op := range ops {
		m.PatchOpsTotal.WithLabelValues(op).Inc()
	}
}

// SetTrackedEntries updates the store size gauge
func (m *Metrics) SetTrackedEntries(n int) {
	m.TrackedEntries.Set(float64(n))
}
