package collection

import "github.com/prometheus/client_golang/prometheus"

const (
	LabelSuccess  = "success"
	LabelFallback = "fallback"
	LabelError    = "error"
)

// Metrics counts collection operations by outcome.
type Metrics struct {
	Ops *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	const (
		namespace = "school_console"
		subsystem = "collection"
	)

	return &Metrics{
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ops_total",
			Help:      "Count of collection operations by result",
		}, []string{"op", "result"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{m.Ops}
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.Ops.WithLabelValues(op, result).Inc()
}
