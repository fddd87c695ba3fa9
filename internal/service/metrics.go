package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Leganyst/rollcall/internal/apperr"
)

// Metrics — доменные счётчики. Нулевой *Metrics допустим и ничего не пишет.
type Metrics struct {
	operations       *prometheus.CounterVec
	schedulesCreated prometheus.Counter
	swapsResolved    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"service", "operation", "outcome"}),
		schedulesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "schedules_created_total",
			Help:      "Roster user schedules inserted.",
		}),
		swapsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "swap_requests_resolved_total",
			Help:      "Swap requests moved to a terminal status.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.schedulesCreated, m.swapsResolved)
	}
	return m
}

func (m *Metrics) observe(service, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperr.Kind(err)
	}
	m.operations.WithLabelValues(service, operation, outcome).Inc()
}

func (m *Metrics) addSchedules(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.schedulesCreated.Add(float64(n))
}

func (m *Metrics) swapResolved(status string) {
	if m == nil {
		return
	}
	m.swapsResolved.WithLabelValues(status).Inc()
}
