package api

import (
	"context"
	"encoding/json"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Pubsub opens server push subscriptions. It only exists on transports that
// implement rpc.Subscriber. Callbacks run on the subscription's delivery
// goroutine; a non-nil error is the final call.
type Pubsub struct {
	sub rpc.Subscriber
}

func newPubsub(sub rpc.Subscriber) *Pubsub {
	return &Pubsub{sub: sub}
}

// NewHeads delivers every new chain head.
func (p *Pubsub) NewHeads(ctx context.Context, cb func(error, *format.Block)) (string, error) {
	return p.sub.Subscribe(ctx, "eth", func(err error, raw json.RawMessage) {
		if err != nil {
			cb(err, nil)
			return
		}
		block, err := format.OutBlock(raw)
		cb(err, block)
	}, "newHeads")
}

// Logs delivers logs matching filter as they are mined.
func (p *Pubsub) Logs(ctx context.Context, filter format.Filter, cb func(error, *format.Log)) (string, error) {
	return p.sub.Subscribe(ctx, "eth", func(err error, raw json.RawMessage) {
		if err != nil {
			cb(err, nil)
			return
		}
		l, err := format.OutLog(raw)
		cb(err, l)
	}, "logs", format.InFilter(filter))
}

// NewPendingTransactions delivers the hash of every transaction entering the
// pool.
func (p *Pubsub) NewPendingTransactions(ctx context.Context, cb func(error, string)) (string, error) {
	return p.sub.Subscribe(ctx, "eth", func(err error, raw json.RawMessage) {
		if err != nil {
			cb(err, "")
			return
		}
		hash, err := asString(raw, nil)
		cb(err, hash)
	}, "newPendingTransactions")
}

// Parity re-runs method with params every time its result may have changed
// and delivers the raw result.
func (p *Pubsub) Parity(ctx context.Context, method string, params []interface{}, cb rpc.SubscriptionCallback) (string, error) {
	if params == nil {
		params = []interface{}{}
	}
	return p.sub.Subscribe(ctx, "parity", cb, method, params)
}

// Unsubscribe cancels subscriptions opened in namespace ("eth" or "parity").
func (p *Pubsub) Unsubscribe(ctx context.Context, namespace string, ids ...string) (bool, error) {
	return p.sub.Unsubscribe(ctx, namespace, ids...)
}
