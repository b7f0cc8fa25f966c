package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
)

// bareIntType matches the "uint"/"int" shorthands, optionally as arrays.
var bareIntType = regexp.MustCompile(`^(u?int)((?:\[\d*\])*)$`)

// normalizeABI rewrites the uint/int shorthands to uint256/int256 and fills
// in the default entry type, which the ABI parser requires explicitly.
func normalizeABI(abiJSON string) (string, error) {
	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(abiJSON), &entries); err != nil {
		return "", err
	}
	for _, entry := range entries {
		if t, _ := entry["type"].(string); t == "" {
			entry["type"] = "function"
		}
		for _, key := range []string{"inputs", "outputs"} {
			if params, ok := entry[key].([]interface{}); ok {
				normalizeParams(params)
			}
		}
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func normalizeParams(params []interface{}) {
	for _, p := range params {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if t, ok := param["type"].(string); ok {
			param["type"] = bareIntType.ReplaceAllString(t, "${1}256${2}")
		}
		if components, ok := param["components"].([]interface{}); ok {
			normalizeParams(components)
		}
	}
}

func coerceArgs(inputs abi.Arguments, args []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := coerceArg(inputs[i].Type, arg)
		if err != nil {
			name := inputs[i].Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, inputs[i].Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

// coerceArg converts loosely typed input to the Go type the ABI packer
// expects for t. Values already of the right type pass through.
func coerceArg(t abi.Type, v interface{}) (interface{}, error) {
	want := t.GetType()
	if _, isBig := v.(*big.Int); v != nil && reflect.TypeOf(v) == want && !isBig {
		return v, nil
	}
	switch t.T {
	case abi.AddressTy:
		switch x := v.(type) {
		case string:
			if err := format.ValidateAddress(x); err != nil {
				return nil, err
			}
			return common.HexToAddress(x), nil
		case *common.Address:
			return *x, nil
		}
	case abi.UintTy, abi.IntTy:
		n, err := toSignedBig(v)
		if err != nil {
			return nil, err
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value for unsigned type")
		}
		if !fitsBits(n, t) {
			return nil, fmt.Errorf("value %s overflows %d bits", n, t.Size)
		}
		if want.Kind() == reflect.Ptr {
			return n, nil
		}
		rv := reflect.New(want).Elem()
		if t.T == abi.UintTy {
			rv.SetUint(n.Uint64())
		} else {
			rv.SetInt(n.Int64())
		}
		return rv.Interface(), nil
	case abi.BoolTy:
		switch x := v.(type) {
		case string:
			switch strings.ToLower(x) {
			case "true", "1":
				return true, nil
			case "false", "0":
				return false, nil
			}
		}
	case abi.StringTy:
		return fmt.Sprint(v), nil
	case abi.BytesTy:
		if s, ok := v.(string); ok {
			return hexutil.Decode(format.InHex(s))
		}
		if b, ok := v.(hexutil.Bytes); ok {
			return []byte(b), nil
		}
	case abi.FixedBytesTy:
		var raw []byte
		switch x := v.(type) {
		case string:
			b, err := hexutil.Decode(format.InHex(x))
			if err != nil {
				return nil, err
			}
			raw = b
		case []byte:
			raw = x
		case common.Hash:
			raw = x.Bytes()
		default:
			return nil, fmt.Errorf("cannot use %T", v)
		}
		if len(raw) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(raw), t.Size)
		}
		rv := reflect.New(want).Elem()
		reflect.Copy(rv, reflect.ValueOf(raw))
		return rv.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		items := reflect.ValueOf(v)
		if items.Kind() != reflect.Slice && items.Kind() != reflect.Array {
			break
		}
		if t.T == abi.ArrayTy && items.Len() != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, items.Len())
		}
		var rv reflect.Value
		if t.T == abi.SliceTy {
			rv = reflect.MakeSlice(want, items.Len(), items.Len())
		} else {
			rv = reflect.New(want).Elem()
		}
		for i := 0; i < items.Len(); i++ {
			elem, err := coerceArg(*t.Elem, items.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			rv.Index(i).Set(reflect.ValueOf(elem))
		}
		return rv.Interface(), nil
	}
	return v, nil
}

func toSignedBig(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case *big.Int:
		if x == nil {
			return big.NewInt(0), nil
		}
		return new(big.Int).Set(x), nil
	case string:
		if strings.HasPrefix(x, "-") {
			n, ok := new(big.Int).SetString(x, 0)
			if !ok {
				return nil, fmt.Errorf("invalid number %q", x)
			}
			return n, nil
		}
	}
	return format.ToBig(v)
}

// fitsBits reports whether n is representable in t. Signed types hold
// [-2^(Size-1), 2^(Size-1)-1].
func fitsBits(n *big.Int, t abi.Type) bool {
	if t.T == abi.UintTy {
		return n.BitLen() <= t.Size
	}
	if n.Sign() >= 0 {
		return n.BitLen() < t.Size
	}
	m := new(big.Int).Neg(n)
	m.Sub(m, big.NewInt(1))
	return m.BitLen() < t.Size
}
