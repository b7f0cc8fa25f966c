package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Transport records a Sample for every Execute of the wrapped transport.
type Transport struct {
	inner     rpc.Transport
	collector *Collector
	now       func() time.Time
}

// SubscriberTransport is a Transport over a subscription-capable inner
// transport. Subscribe and Unsubscribe calls are recorded under their
// "<namespace>_subscribe" and "<namespace>_unsubscribe" names.
type SubscriberTransport struct {
	*Transport
	sub rpc.Subscriber
}

// Instrument wraps t. The result implements rpc.Subscriber exactly when t
// does, so api.New still exposes pubsub over an instrumented transport.
func Instrument(t rpc.Transport, c *Collector) rpc.Transport {
	it := &Transport{inner: t, collector: c, now: time.Now}
	if sub, ok := t.(rpc.Subscriber); ok {
		return &SubscriberTransport{Transport: it, sub: sub}
	}
	return it
}

func (t *Transport) record(method string, start time.Time, err error) {
	latency := t.now().Sub(start)
	t.collector.Add(Sample{Method: method, Latency: latency, Err: err, At: start})
	if err != nil {
		log.Debug("RPC call failed", "method", method, "elapsed", latency, "err", err)
	} else {
		log.Trace("RPC call", "method", method, "elapsed", latency)
	}
}

func (t *Transport) Execute(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	start := t.now()
	raw, err := t.inner.Execute(ctx, method, params...)
	t.record(method, start, err)
	return raw, err
}

func (t *Transport) Close() error { return t.inner.Close() }

// Unwrap returns the instrumented transport.
func (t *Transport) Unwrap() rpc.Transport { return t.inner }

func (t *SubscriberTransport) Subscribe(ctx context.Context, namespace string, cb rpc.SubscriptionCallback, event string, params ...interface{}) (string, error) {
	start := t.now()
	id, err := t.sub.Subscribe(ctx, namespace, cb, event, params...)
	t.record(namespace+"_subscribe", start, err)
	return id, err
}

func (t *SubscriberTransport) Unsubscribe(ctx context.Context, namespace string, ids ...string) (bool, error) {
	start := t.now()
	ok, err := t.sub.Unsubscribe(ctx, namespace, ids...)
	t.record(namespace+"_unsubscribe", start, err)
	return ok, err
}
