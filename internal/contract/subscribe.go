package contract

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// EventCallback receives decoded events. A non-nil error ends the
// subscription unless it is a decode failure of a single log.
type EventCallback func(err error, ev *EventLog)

// EventSubscription is a live event watch; Unsubscribe stops it.
type EventSubscription struct {
	once        sync.Once
	unsubscribe func(ctx context.Context) error
	err         error
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *EventSubscription) Unsubscribe(ctx context.Context) error {
	s.once.Do(func() { s.err = s.unsubscribe(ctx) })
	return s.err
}

// SubscribeEvent watches logs of the named event emitted by the bound
// contract, or of every event when name is empty. Transports with push
// support use an eth "logs" subscription; the others install a filter and
// poll eth_getFilterChanges every poll interval until ctx ends or
// Unsubscribe is called.
func (c *Contract) SubscribeEvent(ctx context.Context, name string, cb EventCallback) (*EventSubscription, error) {
	addr, err := c.requireBound()
	if err != nil {
		return nil, err
	}
	filter := format.Filter{FromBlock: format.Latest, ToBlock: format.Pending, Address: []common.Address{*addr}}
	if name != "" {
		ev := c.Event(name)
		if ev == nil {
			return nil, rpc.Errorf(rpc.KindValidation, "unknown event %q", name)
		}
		filter.Topics = [][]common.Hash{{ev.ID()}}
	}

	deliver := func(l *format.Log) {
		decoded, err := c.parseLog(l)
		if err != nil {
			log.Debug("Skipping undecodable log", "contract", addr.Hex(), "err", err)
			return
		}
		cb(nil, decoded)
	}

	if c.api.Pubsub != nil {
		id, err := c.api.Pubsub.Logs(ctx, filter, func(err error, l *format.Log) {
			if err != nil {
				cb(err, nil)
				return
			}
			deliver(l)
		})
		if err != nil {
			return nil, err
		}
		return &EventSubscription{unsubscribe: func(ctx context.Context) error {
			_, err := c.api.Pubsub.Unsubscribe(ctx, "eth", id)
			return err
		}}, nil
	}

	filterID, err := c.api.Eth.NewFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.pollFilter(pollCtx, ctx, filterID, deliver, cb)
	}()
	return &EventSubscription{unsubscribe: func(ctx context.Context) error {
		cancel()
		<-done
		_, err := c.api.Eth.UninstallFilter(ctx, filterID)
		return err
	}}, nil
}

func (c *Contract) pollFilter(pollCtx, callerCtx context.Context, filterID string, deliver func(*format.Log), cb EventCallback) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-pollCtx.Done():
			return
		case <-callerCtx.Done():
			cb(callerCtx.Err(), nil)
			return
		case <-ticker.C:
		}
		changes, err := c.api.Eth.GetFilterChanges(pollCtx, filterID)
		if err != nil {
			if pollCtx.Err() != nil {
				return
			}
			cb(err, nil)
			return
		}
		for _, raw := range changes {
			l, err := format.OutLog(json.RawMessage(raw))
			if err != nil || l == nil {
				log.Debug("Skipping malformed filter change", "filter", filterID, "err", err)
				continue
			}
			deliver(l)
		}
	}
}
