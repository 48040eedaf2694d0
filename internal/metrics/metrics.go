// Package metrics описывает Prometheus-метрики движка: исходящие запросы
// к бэкенду и исходы операций Sync Controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "comments_engine"

// Исходы операций.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomeDropped  = "dropped"
	OutcomeCanceled = "canceled"
)

// Metrics — набор коллекторов.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Operations      *prometheus.CounterVec
	LoadedRoots     *prometheus.GaugeVec
}

// New создаёт коллекторы и регистрирует их в reg.
// reg == nil — используется отдельный приватный реестр (удобно в тестах).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Outgoing backend requests by route and HTTP status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome.",
		}, []string{"op", "outcome"}),
		LoadedRoots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loaded_roots",
			Help:      "Root comments currently held per thread.",
		}, []string{"thread_id"}),
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.Operations, m.LoadedRoots)

	return m
}

// Observe увеличивает счётчик операции op с исходом outcome.
func (m *Metrics) Observe(op, outcome string) {
	if m == nil {
		return
	}

	m.Operations.WithLabelValues(op, outcome).Inc()
}

// SetLoadedRoots фиксирует число загруженных корней ветки.
func (m *Metrics) SetLoadedRoots(threadID string, n int) {
	if m == nil {
		return
	}

	m.LoadedRoots.WithLabelValues(threadID).Set(float64(n))
}
