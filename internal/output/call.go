package output

import (
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FormatValue renders a decoded ABI value for display.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return dim("null")
	case *big.Int:
		return FormatNumber(x)
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	case [32]byte:
		return hexutil.Encode(x[:])
	case []interface{}:
		s := "["
		for i, item := range x {
			if i > 0 {
				s += ", "
			}
			s += FormatValue(item)
		}
		return s + "]"
	default:
		return fmt.Sprint(v)
	}
}

// RenderCallResult prints the decoded result of a contract call.
func RenderCallResult(w io.Writer, contract, function string, result interface{}) {
	fmt.Fprintf(w, "%s %s\n", cyan(function), dim("@ "+contract))
	if values, ok := result.([]interface{}); ok {
		for i, v := range values {
			fmt.Fprintf(w, "  [%d] %s\n", i, FormatValue(v))
		}
		return
	}
	fmt.Fprintf(w, "  %s\n", FormatValue(result))
}

// RenderParams prints a name keyed parameter map in name order.
func RenderParams(w io.Writer, title string, params map[string]interface{}) {
	fmt.Fprintf(w, "%s\n", bold(title))
	names := make([]string, 0, len(params))
	width := 0
	for name := range params {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s %s\n", padRight(cyan(name+":"), width+1), FormatValue(params[name]))
	}
}
