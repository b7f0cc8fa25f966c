package format

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block tags accepted wherever the node takes a block number.
const (
	TagEarliest = "earliest"
	TagLatest   = "latest"
	TagPending  = "pending"
)

var blockTags = mapset.NewSet(TagEarliest, TagLatest, TagPending)

// IsBlockTag reports whether s is one of the sentinel block tags.
func IsBlockTag(s string) bool {
	return blockTags.Contains(s)
}

// BlockNumber is either a sentinel tag or an explicit block height. The zero
// value carries neither and is treated as Latest by the module clients.
type BlockNumber struct {
	Tag    string
	Number *big.Int
}

var (
	Latest   = BlockNumber{Tag: TagLatest}
	Earliest = BlockNumber{Tag: TagEarliest}
	Pending  = BlockNumber{Tag: TagPending}
)

// BlockAt returns the BlockNumber for an explicit height.
func BlockAt(n uint64) BlockNumber {
	return BlockNumber{Number: new(big.Int).SetUint64(n)}
}

// IsZero reports whether b is the unset value.
func (b BlockNumber) IsZero() bool {
	return b.Tag == "" && b.Number == nil
}

func (b BlockNumber) String() string {
	if b.Tag != "" {
		return b.Tag
	}
	if b.Number == nil {
		return TagLatest
	}
	return b.Number.String()
}

// ParseBlockNumber accepts a tag, a hex height or a decimal height.
func ParseBlockNumber(s string) (BlockNumber, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if IsBlockTag(s) {
		return BlockNumber{Tag: s}, nil
	}
	if s == "" {
		return BlockNumber{}, fmt.Errorf("empty block number")
	}
	n, err := parseNumber(s)
	if err != nil {
		return BlockNumber{}, fmt.Errorf("invalid block number %q: must be %s, %s, %s or a number",
			s, TagLatest, TagPending, TagEarliest)
	}
	if n.Sign() < 0 {
		return BlockNumber{}, fmt.Errorf("invalid block number %q: negative", s)
	}
	return BlockNumber{Number: n}, nil
}

// Condition delays a posted transaction until a block height or a time.
// At most one of Block and Time is set.
type Condition struct {
	Block *big.Int
	Time  *time.Time
}

// CallRequest is the options object of eth_call, eth_estimateGas,
// eth_sendTransaction, parity_postTransaction and friends. Every field is
// optional. Extra carries fields this package does not know about; they are
// sent verbatim but never override a known field.
type CallRequest struct {
	From      *common.Address
	To        *common.Address
	Gas       *big.Int
	GasPrice  *big.Int
	Value     *big.Int
	Data      []byte
	Nonce     *big.Int
	Condition *Condition
	Extra     map[string]interface{}
}

var callRequestKeys = mapset.NewSet("from", "to", "gas", "gasPrice", "value", "data", "input", "nonce", "condition")

// Copy returns a deep enough copy for callers that merge defaults into a
// request they do not own.
func (r CallRequest) Copy() CallRequest {
	out := r
	if r.Data != nil {
		out.Data = append([]byte(nil), r.Data...)
	}
	if r.Extra != nil {
		out.Extra = make(map[string]interface{}, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func (r CallRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(InOptions(r))
}

// UnmarshalJSON reads the wire form back, keeping unknown keys in Extra.
func (r *CallRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var wire struct {
		From      *common.Address `json:"from"`
		To        *common.Address `json:"to"`
		Gas       *Quantity       `json:"gas"`
		GasPrice  *Quantity       `json:"gasPrice"`
		Value     *Quantity       `json:"value"`
		Data      *hexutil.Bytes  `json:"data"`
		Input     *hexutil.Bytes  `json:"input"`
		Nonce     *Quantity       `json:"nonce"`
		Condition *wireCondition  `json:"condition"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = CallRequest{
		From:     wire.From,
		To:       wire.To,
		Gas:      wire.Gas.bigOrNil(),
		GasPrice: wire.GasPrice.bigOrNil(),
		Value:    wire.Value.bigOrNil(),
		Nonce:    wire.Nonce.bigOrNil(),
	}
	switch {
	case wire.Data != nil:
		r.Data = *wire.Data
	case wire.Input != nil:
		r.Data = *wire.Input
	}
	if wire.Condition != nil {
		r.Condition = wire.Condition.condition()
	}
	for key, raw := range fields {
		if callRequestKeys.Contains(key) {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if r.Extra == nil {
			r.Extra = make(map[string]interface{})
		}
		r.Extra[key] = v
	}
	return nil
}

type wireCondition struct {
	Block *Quantity `json:"block"`
	Time  *Quantity `json:"time"`
}

func (c *wireCondition) condition() *Condition {
	switch {
	case c.Block != nil:
		return &Condition{Block: c.Block.Big()}
	case c.Time != nil:
		t := time.Unix(c.Time.Big().Int64(), 0).UTC()
		return &Condition{Time: &t}
	default:
		return nil
	}
}

// Filter is the options object of eth_newFilter and eth_getLogs. A nil entry
// in Topics matches any topic at that position.
type Filter struct {
	FromBlock BlockNumber
	ToBlock   BlockNumber
	BlockHash *common.Hash
	Address   []common.Address
	Topics    [][]common.Hash
	Limit     uint64
	Extra     map[string]interface{}
}

// TraceFilter is the options object of trace_filter.
type TraceFilter struct {
	FromBlock   BlockNumber
	ToBlock     BlockNumber
	FromAddress []common.Address
	ToAddress   []common.Address
	After       uint64
	Count       uint64
}
