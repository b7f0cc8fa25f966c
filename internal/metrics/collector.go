package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
	"github.com/dmagro/eth-wallet-rpc/internal/stats"
)

// Status is the health of one RPC method as seen by the client.
type Status string

const (
	StatusUp       Status = "UP"
	StatusSlow     Status = "SLOW"
	StatusDegraded Status = "DEGRADED"
	StatusDown     Status = "DOWN"
)

// Sample is the outcome of one transport call.
type Sample struct {
	Method  string
	Latency time.Duration
	Kind    rpc.ErrorKind
	Err     error
	At      time.Time
}

func (s Sample) Success() bool { return s.Err == nil }

// MethodMetrics holds calculated metrics for a single method.
type MethodMetrics struct {
	Method      string
	Status      Status
	Latency     stats.Summary
	SuccessRate float64
	TotalCalls  int
	Failures    int
	// Errors counts failures by kind.
	Errors    map[rpc.ErrorKind]int
	LastError error
}

// latencyWindow is how many recent successful latencies each method keeps
// for percentiles. Counts cover every sample ever added.
const latencyWindow = 1024

// methodStats is the running aggregate for one method.
type methodStats struct {
	total     int
	failures  int
	errors    map[rpc.ErrorKind]int
	lastError error
	latencies []time.Duration
	next      int
}

func (m *methodStats) add(s Sample, window int) {
	m.total++
	if !s.Success() {
		m.failures++
		m.errors[s.Kind]++
		m.lastError = s.Err
		return
	}
	if len(m.latencies) < window {
		m.latencies = append(m.latencies, s.Latency)
		return
	}
	m.latencies[m.next] = s.Latency
	m.next = (m.next + 1) % window
}

// Collector aggregates call samples per method. It is safe for concurrent
// use; an optional Prometheus exporter observes every sample as well.
// Memory stays bounded for long running commands: only the last
// latencyWindow latencies per method are retained.
type Collector struct {
	mu       sync.Mutex
	methods  map[string]*methodStats
	window   int
	exporter *Prometheus
}

func NewCollector() *Collector {
	return &Collector{methods: make(map[string]*methodStats), window: latencyWindow}
}

// WithPrometheus forwards every sample to p.
func (c *Collector) WithPrometheus(p *Prometheus) *Collector {
	c.exporter = p
	return c
}

// Add records a sample.
func (c *Collector) Add(s Sample) {
	if s.Err != nil && s.Kind == rpc.KindUnknown {
		s.Kind = rpc.KindOf(s.Err)
	}
	c.mu.Lock()
	m, ok := c.methods[s.Method]
	if !ok {
		m = &methodStats{errors: make(map[rpc.ErrorKind]int)}
		c.methods[s.Method] = m
	}
	m.add(s, c.window)
	c.mu.Unlock()
	if c.exporter != nil {
		c.exporter.Observe(s)
	}
}

// Reset drops all samples.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods = make(map[string]*methodStats)
}

// Calculate computes metrics for every method seen so far.
func (c *Collector) Calculate() map[string]*MethodMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*MethodMetrics, len(c.methods))
	for method, m := range c.methods {
		out[method] = calculateMethodMetrics(method, m)
	}
	return out
}

// Sorted returns Calculate ordered by method name.
func (c *Collector) Sorted() []*MethodMetrics {
	all := c.Calculate()
	out := make([]*MethodMetrics, 0, len(all))
	for _, m := range all {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

func calculateMethodMetrics(method string, agg *methodStats) *MethodMetrics {
	m := &MethodMetrics{Method: method, Errors: make(map[rpc.ErrorKind]int)}
	if agg == nil || agg.total == 0 {
		m.Status = StatusDown
		return m
	}

	m.TotalCalls = agg.total
	m.Failures = agg.failures
	m.LastError = agg.lastError
	for kind, n := range agg.errors {
		m.Errors[kind] = n
	}

	m.SuccessRate = float64(m.TotalCalls-m.Failures) / float64(m.TotalCalls) * 100
	m.Latency = stats.Summarize(agg.latencies)
	m.Status = determineStatus(m.SuccessRate, m.Latency.P95)
	return m
}

// determineStatus categorizes method health. RPC errors count as failures.
func determineStatus(successRate float64, p95Latency time.Duration) Status {
	const (
		downThreshold     = 50.0
		degradedThreshold = 90.0
		slowLatency       = 500 * time.Millisecond
	)

	if successRate < downThreshold {
		return StatusDown
	}
	if successRate < degradedThreshold {
		return StatusDegraded
	}
	if p95Latency > slowLatency {
		return StatusSlow
	}
	return StatusUp
}
