package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wakala/be2bill/internal/batch"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeRefused   = "refused"
	outcomeNoAnswer  = "no_answer"
)

// Metrics counts processed lines by outcome and gateway EXECCODE.
type Metrics struct {
	lines     *prometheus.CounterVec
	execCodes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "be2bill",
			Subsystem: "batch",
			Name:      "lines_total",
			Help:      "Processed batch lines by outcome.",
		}, []string{"outcome"}),
		execCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "be2bill",
			Subsystem: "batch",
			Name:      "execcodes_total",
			Help:      "Gateway EXECCODE values returned for batch lines.",
		}, []string{"execcode"}),
	}
	reg.MustRegister(m.lines, m.execCodes)
	return m
}

func (m *Metrics) Update(_ context.Context, n batch.Notification) error {
	switch {
	case n.Result == nil:
		m.lines.WithLabelValues(outcomeNoAnswer).Inc()
		return nil
	case n.Result.Succeeded():
		m.lines.WithLabelValues(outcomeSucceeded).Inc()
	default:
		m.lines.WithLabelValues(outcomeRefused).Inc()
	}
	m.execCodes.WithLabelValues(n.Result.ExecCode()).Inc()
	return nil
}
