package tool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts tool executions and observes their durations. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the tool metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentlow",
			Subsystem: "tool",
			Name:      "executions_total",
			Help:      "Tool executions by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentlow",
			Subsystem: "tool",
			Name:      "execution_duration_seconds",
			Help:      "Tool execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	reg.MustRegister(m.executions, m.duration)
	return m
}

// observe records one execution.
func (m *Metrics) observe(tool string, isError bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.executions.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}
