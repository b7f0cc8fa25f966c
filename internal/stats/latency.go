package stats

import (
	"math"
	"sort"
	"time"
)

// TailLatency holds p50, p95, p99 and max latency values.
type TailLatency struct {
	P50, P95, P99, Max time.Duration
}

// Summary describes a set of latency samples.
type Summary struct {
	Count int
	Avg   time.Duration
	TailLatency
}

// Summarize computes the average and tail latencies of samples. The input
// is not modified.
func Summarize(latencies []time.Duration) Summary {
	if len(latencies) == 0 {
		return Summary{}
	}
	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	return Summary{
		Count:       len(latencies),
		Avg:         total / time.Duration(len(latencies)),
		TailLatency: CalculateTailLatency(latencies),
	}
}

// CalculateTailLatency computes P50, P95, P99 and Max with the nearest-rank
// method. With few samples the high percentiles equal Max.
func CalculateTailLatency(latencies []time.Duration) TailLatency {
	if len(latencies) == 0 {
		return TailLatency{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return TailLatency{
		P50: Percentile(sorted, 0.50),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// Percentile returns the value at percentile p (0.95 for P95) of an
// ascending slice, using index ceil(n*p)-1 clamped to [0, n-1].
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}

	return sorted[index]
}
