package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	// Бизнес-метрики
	BookingsCreated     *prometheus.CounterVec
	SlotClaimConflicts  *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	RescheduleDecisions *prometheus.CounterVec
	SlotsGenerated      *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer регистрирует метрики в переданном реестре (для тестов)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "path"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		DBOpenConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBInUse: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBIdle: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBWaitCount: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		BookingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Number of bookings created",
			ConstLabels: constLabels,
		}, []string{"status"}),
		SlotClaimConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_claim_conflicts_total",
			Help:        "Number of failed slot claims because the slot was taken",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_status_transitions_total",
			Help:        "Number of booking status transitions",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
		RescheduleDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "reschedule_decisions_total",
			Help:        "Number of resolved reschedule requests by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		SlotsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "slots_generated_total",
			Help:        "Number of slots materialized from the weekly template",
			ConstLabels: constLabels,
		}, []string{"source"}),
	}
}

// Методы ниже безопасны для nil-получателя: при выключенных метриках
// сервисы получают nil и ничего не пишут.

func (m *Metrics) ObserveBookingCreated(status string) {
	if m == nil {
		return
	}
	m.BookingsCreated.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveClaimConflict(operation string) {
	if m == nil {
		return
	}
	m.SlotClaimConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveRescheduleDecision(outcome string) {
	if m == nil {
		return
	}
	m.RescheduleDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSlotsGenerated(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SlotsGenerated.WithLabelValues(source).Add(float64(n))
}
