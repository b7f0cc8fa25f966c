package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// Event is the binding of one ABI event.
type Event struct {
	contract *Contract
	event    abi.Event

	Name      string
	Signature string
}

func newEvent(c *Contract, e abi.Event) *Event {
	return &Event{contract: c, event: e, Name: e.Name, Signature: e.Sig}
}

// ID is the topic0 value logs of this event carry.
func (e *Event) ID() common.Hash { return e.event.ID }

func (e *Event) Anonymous() bool { return e.event.Anonymous }

func (e *Event) Inputs() abi.Arguments { return e.event.Inputs }

// Decode extracts the indexed and non-indexed parameters of l into a map
// keyed by parameter name.
func (e *Event) Decode(l *format.Log) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(e.event.Inputs))
	var indexed abi.Arguments
	for _, arg := range e.event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	topics := l.Topics
	if !e.event.Anonymous && len(topics) > 0 {
		topics = topics[1:]
	}
	if err := abi.ParseTopicsIntoMap(params, indexed, topics); err != nil {
		return nil, rpc.Wrap(rpc.KindParse, err, "decode indexed "+e.Name+" params")
	}
	if err := e.event.Inputs.UnpackIntoMap(params, l.Data); err != nil {
		return nil, rpc.Wrap(rpc.KindParse, err, "decode "+e.Name+" data")
	}
	return params, nil
}

// EventLog is a log with its decoded event attached.
type EventLog struct {
	*format.Log
	Event     string
	Signature string
	Params    map[string]interface{}
}

// ParseTransactionEvents decodes every log of a receipt.
func (c *Contract) ParseTransactionEvents(receipt *format.Receipt) ([]*EventLog, error) {
	if receipt == nil {
		return nil, rpc.Errorf(rpc.KindValidation, "receipt is required")
	}
	return c.ParseEventLogs(receipt.Logs)
}

// ParseEventLogs matches each log's first topic against the contract's
// events and decodes its parameters. A log no event matches fails the whole
// call with KindNoMatchingEvent.
func (c *Contract) ParseEventLogs(logs []*format.Log) ([]*EventLog, error) {
	out := make([]*EventLog, 0, len(logs))
	for _, l := range logs {
		decoded, err := c.parseLog(l)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func (c *Contract) parseLog(l *format.Log) (*EventLog, error) {
	if len(l.Topics) == 0 {
		return nil, rpc.Errorf(rpc.KindNoMatchingEvent, "log without topics has no matching event signature")
	}
	ev, ok := c.byTopic[l.Topics[0]]
	if !ok {
		return nil, rpc.Errorf(rpc.KindNoMatchingEvent,
			"no event matching signature %s", fmt.Sprintf("%x", l.Topics[0].Bytes()))
	}
	params, err := ev.Decode(l)
	if err != nil {
		return nil, err
	}
	return &EventLog{Log: l, Event: ev.Name, Signature: ev.Signature, Params: params}, nil
}
