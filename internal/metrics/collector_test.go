package metrics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

func TestDetermineStatus(t *testing.T) {
	tests := []struct {
		name        string
		successRate float64
		p95         time.Duration
		want        Status
	}{
		{"healthy", 100, 100 * time.Millisecond, StatusUp},
		{"slow", 100, time.Second, StatusSlow},
		{"degraded", 80, 100 * time.Millisecond, StatusDegraded},
		{"down", 40, 100 * time.Millisecond, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineStatus(tt.successRate, tt.p95))
		})
	}
}

func TestCollectorCalculate(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 3; i++ {
		c.Add(Sample{Method: "eth_blockNumber", Latency: time.Duration(i) * 10 * time.Millisecond})
	}
	c.Add(Sample{Method: "eth_blockNumber", Err: rpc.Errorf(rpc.KindTimeout, "deadline")})
	c.Add(Sample{Method: "eth_call", Err: &rpc.Error{Kind: rpc.KindRPC, Code: -32000, Message: "revert"}})

	all := c.Calculate()
	require.Len(t, all, 2)

	bn := all["eth_blockNumber"]
	assert.Equal(t, 4, bn.TotalCalls)
	assert.Equal(t, 1, bn.Failures)
	assert.InDelta(t, 75.0, bn.SuccessRate, 0.001)
	assert.Equal(t, StatusDegraded, bn.Status)
	assert.Equal(t, 20*time.Millisecond, bn.Latency.Avg)
	assert.Equal(t, 30*time.Millisecond, bn.Latency.Max)
	assert.Equal(t, 1, bn.Errors[rpc.KindTimeout])

	call := all["eth_call"]
	assert.Equal(t, StatusDown, call.Status)
	assert.Equal(t, 1, call.Errors[rpc.KindRPC])

	sorted := c.Sorted()
	assert.Equal(t, "eth_blockNumber", sorted[0].Method)
	assert.Equal(t, "eth_call", sorted[1].Method)

	c.Reset()
	assert.Empty(t, c.Calculate())
}

func TestCollectorBoundsLatencyHistory(t *testing.T) {
	c := NewCollector()
	c.window = 4
	for i := 1; i <= 10; i++ {
		c.Add(Sample{Method: "eth_blockNumber", Latency: time.Duration(i) * time.Millisecond})
	}
	c.Add(Sample{Method: "eth_blockNumber", Err: rpc.Errorf(rpc.KindTimeout, "deadline")})

	c.mu.Lock()
	retained := len(c.methods["eth_blockNumber"].latencies)
	c.mu.Unlock()
	assert.Equal(t, 4, retained)

	bn := c.Calculate()["eth_blockNumber"]
	assert.Equal(t, 11, bn.TotalCalls, "counts cover every sample")
	assert.Equal(t, 1, bn.Failures)
	assert.Equal(t, 10*time.Millisecond, bn.Latency.Max)
	assert.Equal(t, 8500*time.Microsecond, bn.Latency.Avg, "only the most recent latencies are kept")
}

func TestInstrument(t *testing.T) {
	mock := rpc.NewMockTransport().Respond("eth_blockNumber", "0x10")
	c := NewCollector()
	tr := Instrument(mock, c)
	_, isSub := tr.(rpc.Subscriber)
	assert.False(t, isSub, "a plain transport stays plain")

	raw, err := tr.Execute(context.Background(), "eth_blockNumber")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"0x10"`), raw)
	_, err = tr.Execute(context.Background(), "eth_unknown")
	require.Error(t, err)

	all := c.Calculate()
	assert.Equal(t, 0, all["eth_blockNumber"].Failures)
	assert.Equal(t, 1, all["eth_unknown"].Errors[rpc.KindRPC])
}

type fakeSubscriber struct {
	*rpc.MockTransport
}

func (f fakeSubscriber) Subscribe(context.Context, string, rpc.SubscriptionCallback, string, ...interface{}) (string, error) {
	return "0x1", nil
}

func (f fakeSubscriber) Unsubscribe(context.Context, string, ...string) (bool, error) {
	return true, nil
}

func TestInstrumentKeepsSubscriber(t *testing.T) {
	c := NewCollector()
	tr := Instrument(fakeSubscriber{rpc.NewMockTransport()}, c)
	sub, ok := tr.(rpc.Subscriber)
	require.True(t, ok)

	id, err := sub.Subscribe(context.Background(), "eth", nil, "newHeads")
	require.NoError(t, err)
	assert.Equal(t, "0x1", id)
	_, err = sub.Unsubscribe(context.Background(), "eth", id)
	require.NoError(t, err)

	all := c.Calculate()
	assert.Contains(t, all, "eth_subscribe")
	assert.Contains(t, all, "eth_unsubscribe")
}

func TestPrometheusExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)
	c := NewCollector().WithPrometheus(p)

	c.Add(Sample{Method: "eth_call", Latency: time.Millisecond})
	c.Add(Sample{Method: "eth_call", Err: rpc.Errorf(rpc.KindTimeout, "slow")})

	assert.Equal(t, 1.0, testutil.ToFloat64(p.calls.WithLabelValues("eth_call", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.calls.WithLabelValues("eth_call", "timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.latency))

	_, err = NewPrometheus(reg)
	assert.Error(t, err, "registering twice fails")
}
