// =============================================================================
// FILE: internal/format/input.go
// ROLE: native Go values -> canonical JSON-RPC wire encoding
// =============================================================================
//
// Every In* function produces exactly what the node expects on the wire:
//
//	addresses   lower-case, 0x prefixed, 40 hex digits
//	quantities  minimal hex, "0x0" for zero
//	data/hash   0x prefixed lower-case hex
//	block       "earliest" | "latest" | "pending" | quantity
//
// Checksum casing never goes over the wire. Inputs are lenient (any casing,
// optional prefix), outputs are canonical, and In* applied to its own output
// is the identity.
// =============================================================================

package format

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// InAddress lower-cases and 0x-prefixes an address. An empty input yields "0x".
func InAddress(address string) string {
	return InHex(address)
}

// InAddresses applies InAddress to each element.
func InAddresses(addresses []string) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = InAddress(a)
	}
	return out
}

// InHex lower-cases s and makes sure it carries a 0x prefix. Absent or empty
// input yields "0x".
func InHex(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return "0x" + strings.ToLower(s)
}

// InData is InHex for variable length byte strings.
func InData(s string) string {
	return InHex(s)
}

// InHash is InHex for 32 byte hashes.
func InHash(s string) string {
	return InHex(s)
}

// InBytes hex encodes raw bytes.
func InBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// InNumber16 encodes n as minimal hex. nil is treated as zero.
func InNumber16(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(n)
}

// InNumber10 renders n as a JSON number, used by condition blocks and times.
func InNumber10(n *big.Int) *big.Int {
	if n == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(n)
}

// InQuantity accepts any integer-like Go value and returns its minimal hex
// encoding. Strings may be decimal or 0x hex. Negative values and values
// wider than 256 bits are rejected.
func InQuantity(v interface{}) (string, error) {
	n, err := ToBig(v)
	if err != nil {
		return "", err
	}
	return InNumber16(n), nil
}

// ToBig converts an integer-like value to a *big.Int, enforcing the
// quantity bounds. nil converts to zero.
func ToBig(v interface{}) (*big.Int, error) {
	var n *big.Int
	switch x := v.(type) {
	case nil:
		return big.NewInt(0), nil
	case int:
		n = big.NewInt(int64(x))
	case int32:
		n = big.NewInt(int64(x))
	case int64:
		n = big.NewInt(x)
	case uint:
		n = new(big.Int).SetUint64(uint64(x))
	case uint32:
		n = new(big.Int).SetUint64(uint64(x))
	case uint64:
		n = new(big.Int).SetUint64(x)
	case *big.Int:
		if x == nil {
			return big.NewInt(0), nil
		}
		n = new(big.Int).Set(x)
	case big.Int:
		n = new(big.Int).Set(&x)
	case *uint256.Int:
		if x == nil {
			return big.NewInt(0), nil
		}
		return x.ToBig(), nil
	case *hexutil.Big:
		if x == nil {
			return big.NewInt(0), nil
		}
		n = new(big.Int).Set(x.ToInt())
	case *Quantity:
		n = x.Big()
	case float64:
		if x != float64(int64(x)) {
			return nil, fmt.Errorf("quantity %v is not an integer", x)
		}
		n = big.NewInt(int64(x))
	case string:
		parsed, err := parseNumber(x)
		if err != nil {
			return nil, err
		}
		n = parsed
	default:
		return nil, fmt.Errorf("unsupported quantity type %T", v)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("quantity %s is negative", n)
	}
	if _, overflow := uint256.FromBig(n); overflow {
		return nil, fmt.Errorf("quantity %s exceeds 256 bits", n)
	}
	return n, nil
}

// InBlockNumber passes the sentinel tags through verbatim and hex encodes
// explicit heights. The unset value encodes as "latest".
func InBlockNumber(b BlockNumber) string {
	switch {
	case b.Tag != "":
		return b.Tag
	case b.Number == nil:
		return TagLatest
	default:
		return InNumber16(b.Number)
	}
}

// InOptions maps a CallRequest onto its wire object field by field. Unset
// fields are omitted; "to" in particular stays absent for deployments.
// Extra keys are copied first so a known field always wins.
func InOptions(r CallRequest) map[string]interface{} {
	out := make(map[string]interface{}, len(r.Extra)+8)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.From != nil {
		out["from"] = InAddress(r.From.Hex())
	}
	if r.To != nil {
		out["to"] = InAddress(r.To.Hex())
	}
	if r.Gas != nil {
		out["gas"] = InNumber16(r.Gas)
	}
	if r.GasPrice != nil {
		out["gasPrice"] = InNumber16(r.GasPrice)
	}
	if r.Value != nil {
		out["value"] = InNumber16(r.Value)
	}
	if r.Data != nil {
		out["data"] = InBytes(r.Data)
	}
	if r.Nonce != nil {
		out["nonce"] = InNumber16(r.Nonce)
	}
	if r.Condition != nil {
		out["condition"] = inCondition(r.Condition)
	}
	return out
}

func inCondition(c *Condition) interface{} {
	switch {
	case c.Block != nil:
		return map[string]interface{}{"block": InNumber10(c.Block)}
	case c.Time != nil:
		return map[string]interface{}{"time": big.NewInt(c.Time.Unix())}
	default:
		return nil
	}
}

// InFilter maps a log Filter onto its wire object.
func InFilter(f Filter) map[string]interface{} {
	out := make(map[string]interface{}, len(f.Extra)+5)
	for k, v := range f.Extra {
		out[k] = v
	}
	if f.BlockHash != nil {
		out["blockHash"] = InHash(f.BlockHash.Hex())
	} else {
		if !f.FromBlock.IsZero() {
			out["fromBlock"] = InBlockNumber(f.FromBlock)
		}
		if !f.ToBlock.IsZero() {
			out["toBlock"] = InBlockNumber(f.ToBlock)
		}
	}
	switch len(f.Address) {
	case 0:
	case 1:
		out["address"] = InAddress(f.Address[0].Hex())
	default:
		out["address"] = inAddressList(f.Address)
	}
	if f.Topics != nil {
		out["topics"] = InTopics(f.Topics)
	}
	if f.Limit > 0 {
		out["limit"] = f.Limit
	}
	return out
}

// InTopics encodes topic positions: nil matches anything, a single hash is
// sent as a string and alternatives as an array.
func InTopics(topics [][]common.Hash) []interface{} {
	out := make([]interface{}, len(topics))
	for i, alts := range topics {
		switch len(alts) {
		case 0:
			out[i] = nil
		case 1:
			out[i] = InHash(alts[0].Hex())
		default:
			list := make([]string, len(alts))
			for j, h := range alts {
				list[j] = InHash(h.Hex())
			}
			out[i] = list
		}
	}
	return out
}

// InTraceFilter maps a TraceFilter onto its wire object.
func InTraceFilter(f TraceFilter) map[string]interface{} {
	out := make(map[string]interface{}, 6)
	if !f.FromBlock.IsZero() {
		out["fromBlock"] = InBlockNumber(f.FromBlock)
	}
	if !f.ToBlock.IsZero() {
		out["toBlock"] = InBlockNumber(f.ToBlock)
	}
	if len(f.FromAddress) > 0 {
		out["fromAddress"] = inAddressList(f.FromAddress)
	}
	if len(f.ToAddress) > 0 {
		out["toAddress"] = inAddressList(f.ToAddress)
	}
	if f.After > 0 {
		out["after"] = f.After
	}
	if f.Count > 0 {
		out["count"] = f.Count
	}
	return out
}

func inAddressList(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = InAddress(a.Hex())
	}
	return out
}

// ValidateAddress checks that addr is 40 hex digits, with or without 0x.
func ValidateAddress(addr string) error {
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(addr) != 40 {
		return fmt.Errorf("invalid address length: expected 40 hex chars (with or without 0x prefix)")
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return fmt.Errorf("invalid address: contains non-hex characters")
	}
	return nil
}

// ParseAddress validates addr and returns it as a common.Address.
func ParseAddress(addr string) (common.Address, error) {
	if err := ValidateAddress(addr); err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(addr), nil
}
