package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ms(n ...int) []time.Duration {
	out := make([]time.Duration, len(n))
	for i, v := range n {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestCalculateTailLatency(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		want    TailLatency
	}{
		{"empty", nil, TailLatency{}},
		{"single", ms(7), TailLatency{P50: 7 * time.Millisecond, P95: 7 * time.Millisecond, P99: 7 * time.Millisecond, Max: 7 * time.Millisecond}},
		{"unsorted", ms(40, 10, 30, 20), TailLatency{P50: 20 * time.Millisecond, P95: 40 * time.Millisecond, P99: 40 * time.Millisecond, Max: 40 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateTailLatency(tt.samples))
		})
	}
}

func TestSummarizeDoesNotReorder(t *testing.T) {
	samples := ms(30, 10, 20)
	s := Summarize(samples)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 20*time.Millisecond, s.Avg)
	assert.Equal(t, 30*time.Millisecond, s.Max)
	assert.Equal(t, ms(30, 10, 20), samples)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestPercentile(t *testing.T) {
	sorted := ms(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	assert.Equal(t, 5*time.Millisecond, Percentile(sorted, 0.5))
	assert.Equal(t, 10*time.Millisecond, Percentile(sorted, 0.95))
	assert.Equal(t, 1*time.Millisecond, Percentile(sorted, 0))
	assert.Equal(t, time.Duration(0), Percentile(nil, 0.5))
}
