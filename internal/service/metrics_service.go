package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/uniattend-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, storage and attendance marking.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	slotDuration    *prometheus.HistogramVec
	slotErrors      *prometheus.CounterVec
	marksTotal      *prometheus.CounterVec
	duplicateMarks  prometheus.Counter
	logins          *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	slotDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_slot_operation_seconds",
		Help:    "Duration of slot store reads and writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "key"})

	slotErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_slot_errors_total",
		Help: "Failed slot store operations",
	}, []string{"op", "key"})

	marksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Attendance records created by status",
	}, []string{"status"})

	duplicateMarks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_duplicate_marks_total",
		Help: "Mark attempts rejected because the triple was already marked",
	})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_logins_total",
		Help: "Sessions opened by role",
	}, []string{"role"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, slotDuration, slotErrors, marksTotal, duplicateMarks, logins, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		slotDuration:    slotDuration,
		slotErrors:      slotErrors,
		marksTotal:      marksTotal,
		duplicateMarks:  duplicateMarks,
		logins:          logins,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// ObserveSlotOperation implements repository.SlotObserver.
func (m *MetricsService) ObserveSlotOperation(op, key string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.slotDuration.WithLabelValues(op, key).Observe(duration.Seconds())
	if err != nil {
		m.slotErrors.WithLabelValues(op, key).Inc()
	}
}

// RecordMark counts a created attendance record.
func (m *MetricsService) RecordMark(status models.AttendanceStatus) {
	if m == nil {
		return
	}
	m.marksTotal.WithLabelValues(string(status)).Inc()
}

// RecordDuplicateMark counts a rejected second mark.
func (m *MetricsService) RecordDuplicateMark() {
	if m == nil {
		return
	}
	m.duplicateMarks.Inc()
}

// RecordLogin counts an opened session.
func (m *MetricsService) RecordLogin(role models.Role) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(string(role)).Inc()
}
