package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusdesk/complaint-console/internal/models"
)

// MetricsService instruments the sync and lifecycle machinery for the
// watch-mode ops endpoint.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	syncCycles        *prometheus.CounterVec
	syncSkipped       prometheus.Counter
	optimisticPatches prometheus.Counter
	rollbacks         prometheus.Counter
	busyRejections    prometheus.Counter
	complaintsByState *prometheus.GaugeVec
}

// NewMetricsService registers the console collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	syncCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Completed refresh cycles per resource and outcome",
	}, []string{"resource", "outcome"})

	syncSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_cycles_skipped_total",
		Help: "Scheduled cycles skipped because the previous one was still outstanding",
	})

	optimisticPatches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimistic_patches_total",
		Help: "Status changes applied locally ahead of server confirmation",
	})

	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimistic_rollbacks_total",
		Help: "Optimistic patches rolled back after a failed update",
	})

	busyRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "busy_rejections_total",
		Help: "Status changes rejected because one was already in flight for the same complaint",
	})

	complaintsByState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "complaints",
		Help: "Complaints currently known to the console, by status",
	}, []string{"status"})

	registry.MustRegister(syncCycles, syncSkipped, optimisticPatches, rollbacks, busyRejections, complaintsByState)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		syncCycles:        syncCycles,
		syncSkipped:       syncSkipped,
		optimisticPatches: optimisticPatches,
		rollbacks:         rollbacks,
		busyRejections:    busyRejections,
		complaintsByState: complaintsByState,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

// RecordCycle tracks the outcome of one refresh cycle.
func (s *MetricsService) RecordCycle(resource string, err error) {
	if s == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	s.syncCycles.WithLabelValues(resource, outcome).Inc()
}

// RecordSkip tracks a scheduled cycle skipped due to an outstanding one.
func (s *MetricsService) RecordSkip() {
	if s == nil {
		return
	}
	s.syncSkipped.Inc()
}

// RecordOptimisticPatch tracks a locally applied status change.
func (s *MetricsService) RecordOptimisticPatch() {
	if s == nil {
		return
	}
	s.optimisticPatches.Inc()
}

// RecordRollback tracks a rolled back optimistic patch.
func (s *MetricsService) RecordRollback() {
	if s == nil {
		return
	}
	s.rollbacks.Inc()
}

// RecordBusyRejection tracks a concurrent transition rejection.
func (s *MetricsService) RecordBusyRejection() {
	if s == nil {
		return
	}
	s.busyRejections.Inc()
}

// SetStats publishes the latest aggregate as gauges.
func (s *MetricsService) SetStats(stats models.Stats) {
	if s == nil {
		return
	}
	s.complaintsByState.WithLabelValues(string(models.StatusPending)).Set(float64(stats.Pending))
	s.complaintsByState.WithLabelValues(string(models.StatusInProgress)).Set(float64(stats.InProgress))
	s.complaintsByState.WithLabelValues(string(models.StatusResolved)).Set(float64(stats.Resolved))
}
