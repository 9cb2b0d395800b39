// Package metrics exposes the bot's conversation activity as Prometheus collectors.
package metrics

import (
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/flow"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kraflo"

// FlowMetrics counts flow lifecycle events. It implements flow.Observer.
type FlowMetrics struct {
	started    *prometheus.CounterVec
	finished   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	validation *prometheus.CounterVec
}

var _ flow.Observer = (*FlowMetrics)(nil)

// NewFlowMetrics registers the flow collectors and a gauge reading the number of live
// sessions from activeSessions.
func NewFlowMetrics(reg prometheus.Registerer, activeSessions func() int) *FlowMetrics {
	m := &FlowMetrics{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_started_total",
			Help:      "Flows started, by flow.",
		}, []string{"flow"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_finished_total",
			Help:      "Flows ended, by flow and result.",
		}, []string{"flow", "result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_rejections_total",
			Help:      "Flow starts refused by the entry guard.",
		}, []string{"flow"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Inputs rejected and asked again, by flow and state.",
		}, []string{"flow", "state"}),
	}
	reg.MustRegister(m.started, m.finished, m.rejections, m.validation,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Users currently inside a flow.",
		}, func() float64 { return float64(activeSessions()) }),
	)
	return m
}

func (m *FlowMetrics) FlowStarted(f models.FlowID) {
	m.started.WithLabelValues(string(f)).Inc()
}

func (m *FlowMetrics) FlowRejected(f models.FlowID) {
	m.rejections.WithLabelValues(string(f)).Inc()
}

func (m *FlowMetrics) ValidationFailed(f models.FlowID, state models.StateID) {
	m.validation.WithLabelValues(string(f), string(state)).Inc()
}

func (m *FlowMetrics) FlowFinished(f models.FlowID, result flow.Result) {
	m.finished.WithLabelValues(string(f), string(result)).Inc()
}
