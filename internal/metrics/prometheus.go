package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports call counts and latencies.
type Prometheus struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPrometheus registers the collectors with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "JSON-RPC calls by method and outcome.",
		}, []string{"method", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "JSON-RPC call latency by method.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method"}),
	}
	for _, c := range []prometheus.Collector{p.calls, p.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Observe records one sample. Failed calls are labelled with their error
// kind.
func (p *Prometheus) Observe(s Sample) {
	result := "ok"
	if !s.Success() {
		result = s.Kind.String()
	}
	p.calls.WithLabelValues(s.Method, result).Inc()
	p.latency.WithLabelValues(s.Method).Observe(s.Latency.Seconds())
}
