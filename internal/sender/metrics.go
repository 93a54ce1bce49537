package sender

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK          = "ok"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
	outcomeServerError = "server_error"
)

// Metrics counts gateway requests per host and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "be2bill",
			Subsystem: "sender",
			Name:      "requests_total",
			Help:      "Gateway requests by host and outcome.",
		}, []string{"host", "outcome"}),
	}
	reg.MustRegister(m.requests)
	return m
}

func (m *Metrics) observe(host, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(host, outcome).Inc()
}
