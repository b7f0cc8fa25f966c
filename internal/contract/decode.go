package contract

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// DecodedInput is transaction input resolved against the contract ABI.
type DecodedInput struct {
	Function *Function
	Args     map[string]interface{}
}

// DecodeInput resolves the selector of data to a function and unpacks its
// arguments. Results are kept in an LRU cache keyed by the input, since the
// same pending transactions are decoded again on every refresh.
func (c *Contract) DecodeInput(data []byte) (*DecodedInput, error) {
	if len(data) < 4 {
		return nil, rpc.Errorf(rpc.KindValidation, "input too short for a function selector")
	}
	key := hexutil.Encode(data)
	if cached, ok := c.decoded.Get(key); ok {
		return cached.(*DecodedInput), nil
	}

	var selector [4]byte
	copy(selector[:], data[:4])
	fn, ok := c.bySelector[selector]
	if !ok {
		return nil, rpc.Errorf(rpc.KindValidation, "no function matching selector %s", hexutil.Encode(selector[:]))
	}
	args := make(map[string]interface{}, len(fn.method.Inputs))
	if err := fn.method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
		return nil, rpc.Wrap(rpc.KindParse, err, "decode "+fn.Name+" input")
	}
	decoded := &DecodedInput{Function: fn, Args: args}
	c.decoded.Add(key, decoded)
	return decoded, nil
}
