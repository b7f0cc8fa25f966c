// Package api exposes one typed Go method per JSON-RPC method of a
// Parity-style node, grouped by namespace. Every method coerces its
// arguments with format.In*, makes exactly one Execute call and coerces the
// result with format.Out*. There are no retries and no caching here.
package api

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// API groups the module clients that share one transport.
type API struct {
	transport rpc.Transport

	Eth      *Eth
	Net      *Net
	Web3     *Web3
	Personal *Personal
	Parity   *Parity
	Signer   *Signer
	Trace    *Trace
	DB       *DB
	Shh      *Shh
	Ethcore  *Ethcore

	// Pubsub is nil unless the transport can push notifications.
	Pubsub *Pubsub
}

// New builds the module clients over t.
func New(t rpc.Transport) *API {
	a := &API{
		transport: t,
		Eth:       &Eth{t: t},
		Net:       &Net{t: t},
		Web3:      &Web3{t: t},
		Personal:  &Personal{t: t},
		Parity:    &Parity{t: t},
		Signer:    &Signer{t: t},
		Trace:     &Trace{t: t},
		DB:        &DB{t: t},
		Shh:       &Shh{t: t},
		Ethcore:   &Ethcore{t: t},
	}
	if sub, ok := t.(rpc.Subscriber); ok {
		a.Pubsub = newPubsub(sub)
	}
	return a
}

// Transport returns the transport the modules were built over.
func (a *API) Transport() rpc.Transport {
	return a.transport
}

// Close closes the underlying transport.
func (a *API) Close() error {
	return a.transport.Close()
}

// The as* helpers take the (result, error) pair of Execute directly so a
// method body reads as one line: return asNumber(e.t.Execute(...)).

func asRaw(raw json.RawMessage, err error) (json.RawMessage, error) {
	return raw, err
}

func asString(raw json.RawMessage, err error) (string, error) {
	if err != nil {
		return "", err
	}
	var s string
	if rpc.IsNull(raw) {
		return "", nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", parseErr("string", err)
	}
	return s, nil
}

func asStrings(raw json.RawMessage, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	var out []string
	if rpc.IsNull(raw) {
		return []string{}, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, parseErr("string list", err)
	}
	return out, nil
}

func asBool(raw json.RawMessage, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	var b bool
	if rpc.IsNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, parseErr("bool", err)
	}
	return b, nil
}

func asNumber(raw json.RawMessage, err error) (*big.Int, error) {
	if err != nil {
		return nil, err
	}
	var q format.Quantity
	if err := json.Unmarshal(raw, &q); err != nil && !rpc.IsNull(raw) {
		return nil, parseErr("quantity", err)
	}
	return q.Big(), nil
}

func asAddress(raw json.RawMessage, err error) (string, error) {
	s, err := asString(raw, err)
	if err != nil {
		return "", err
	}
	return format.OutAddress(s), nil
}

func asAddresses(raw json.RawMessage, err error) ([]string, error) {
	list, err := asStrings(raw, err)
	if err != nil {
		return nil, err
	}
	return format.OutAddresses(list), nil
}

func asRawList(raw json.RawMessage, err error) ([]json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	if rpc.IsNull(raw) {
		return []json.RawMessage{}, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, parseErr("list", err)
	}
	return out, nil
}

// out adapts a format.Out* decoder to the (result, error) pair.
func out[T any](decode func(json.RawMessage) (T, error)) func(json.RawMessage, error) (T, error) {
	return func(raw json.RawMessage, err error) (T, error) {
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := decode(raw)
		if err != nil {
			return v, parseErr("result", err)
		}
		return v, nil
	}
}

func parseErr(what string, err error) error {
	return rpc.Wrap(rpc.KindParse, err, fmt.Sprintf("decode %s", what))
}

// metaString serialises account and vault metadata the way the node
// stores it, as a JSON document inside a string.
func metaString(meta map[string]interface{}) (string, error) {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", rpc.Wrap(rpc.KindValidation, err, "encode meta")
	}
	return string(b), nil
}
