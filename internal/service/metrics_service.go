package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	assignmentRuns   *prometheus.CounterVec
	daysAssigned     prometheus.Counter
	admissionsDenied prometheus.Counter
	escalations      prometheus.Counter
	reservations     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	assignmentRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_runs_total",
		Help: "Completed automatic assignment runs",
	}, []string{"dry_run"})

	daysAssigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vacation_days_assigned_total",
		Help: "Vacation days committed by assignment runs",
	})

	admissionsDenied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ceiling_admissions_denied_total",
		Help: "Write attempts rejected by the absence ceiling",
	})

	escalations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reprogramming_escalations_total",
		Help: "Requests escalated to manual review",
	})

	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "block_reservations_total",
		Help: "Date reservations processed inside block windows",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, assignmentRuns,
		daysAssigned, admissionsDenied, escalations, reservations, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		assignmentRuns:   assignmentRuns,
		daysAssigned:     daysAssigned,
		admissionsDenied: admissionsDenied,
		escalations:      escalations,
		reservations:     reservations,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAssignmentRun counts a finished batch and the days it committed.
func (m *MetricsService) RecordAssignmentRun(dryRun bool, assigned int) {
	if m == nil {
		return
	}
	m.assignmentRuns.WithLabelValues(fmt.Sprintf("%t", dryRun)).Inc()
	if !dryRun && assigned > 0 {
		m.daysAssigned.Add(float64(assigned))
	}
}

// RecordAdmissionDenied counts a ceiling rejection.
func (m *MetricsService) RecordAdmissionDenied() {
	if m == nil {
		return
	}
	m.admissionsDenied.Inc()
}

// RecordEscalation counts a request parked for manual review.
func (m *MetricsService) RecordEscalation() {
	if m == nil {
		return
	}
	m.escalations.Inc()
}

// RecordReservation counts one processed reservation date by outcome.
func (m *MetricsService) RecordReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}
