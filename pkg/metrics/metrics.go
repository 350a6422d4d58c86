package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - счётчики учёта техники. Регистрируются в переданном реестре,
// чтобы тесты могли создавать свой.
type Metrics struct {
	StatusTransitions *prometheus.CounterVec
	CustodyOperations *prometheus.CounterVec
	Logins            *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StatusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equipment_status_transitions_total",
				Help: "Number of equipment status transitions.",
			},
			[]string{"from", "to", "result"},
		),
		CustodyOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custody_operations_total",
				Help: "Number of custody ledger operations.",
			},
			[]string{"operation", "result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Number of login attempts.",
			},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.StatusTransitions, m.CustodyOperations, m.Logins, m.HTTPRequests, m.HTTPDuration)
	}
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveTransition(from, to string, err error) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to, result(err)).Inc()
}

func (m *Metrics) ObserveCustody(operation string, err error) {
	if m == nil {
		return
	}
	m.CustodyOperations.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result(err)).Inc()
}
