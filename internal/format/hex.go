// Package format (hex.go) parses the loosely encoded numbers nodes return.
// Parity and geth both emit minimal hex, but older nodes and hand written
// fixtures use zero padded hex or plain decimals, so parsing is lenient
// while encoding (see input.go) is always canonical.
package format

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// ParseHexBigInt converts a hex string (with or without "0x") to a big.Int.
// Leading zero digits are accepted. An empty string means zero.
func ParseHexBigInt(hex string) (*big.Int, error) {
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if hex == "" {
		return big.NewInt(0), nil
	}
	val := new(big.Int)
	if _, ok := val.SetString(hex, 16); !ok {
		return nil, fmt.Errorf("invalid hex: %s", hex)
	}
	return val, nil
}

// ParseHexUint64 is ParseHexBigInt for values that must fit in 64 bits,
// such as block numbers, timestamps and gas.
func ParseHexUint64(hex string) (uint64, error) {
	val, err := ParseHexBigInt(hex)
	if err != nil {
		return 0, err
	}
	if !val.IsUint64() {
		return 0, fmt.Errorf("hex value overflows uint64: %s", hex)
	}
	return val.Uint64(), nil
}

// parseNumber accepts "0x" hex, a decimal string, or "" (zero).
func parseNumber(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return ParseHexBigInt(s)
	}
	val := new(big.Int)
	if _, ok := val.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid number: %s", s)
	}
	return val, nil
}

// Quantity decodes a numeric JSON field regardless of whether the node sent
// hex, a decimal string or a bare JSON number. It marshals back to minimal
// hex. The zero value is 0.
type Quantity big.Int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*q = Quantity{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	val, err := parseNumber(s)
	if err != nil {
		return err
	}
	*q = Quantity(*val)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(InNumber16(q.Big()))
}

// Big returns the value as a new *big.Int.
func (q *Quantity) Big() *big.Int {
	if q == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set((*big.Int)(q))
}

// bigOrNil is Big for optional fields that must stay absent when missing.
func (q *Quantity) bigOrNil() *big.Int {
	if q == nil {
		return nil
	}
	return q.Big()
}

func (q *Quantity) uint64() uint64 {
	if q == nil {
		return 0
	}
	b := (*big.Int)(q)
	if !b.IsUint64() {
		return 0
	}
	return b.Uint64()
}
