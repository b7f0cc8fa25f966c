package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// FunctionSelector computes the 4-byte function selector from a signature,
// e.g. "balanceOf(address)" -> 0x70a08231.
func FunctionSelector(signature string) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(signature))
	return hasher.Sum(nil)[:4]
}

// Function is the binding of one ABI function or of the constructor.
// Constant functions only support Call; the others also send, estimate and
// sign-and-send.
type Function struct {
	contract      *Contract
	method        abi.Method
	isConstructor bool
	selector      [4]byte

	Name      string
	Signature string
}

func newFunction(c *Contract, m abi.Method, constructor bool) *Function {
	fn := &Function{contract: c, method: m, isConstructor: constructor, Name: m.Name}
	if constructor {
		fn.Name = "constructor"
		return fn
	}
	fn.Signature = m.Sig
	copy(fn.selector[:], FunctionSelector(m.Sig))
	return fn
}

// Selector returns the 4-byte selector as 0x hex.
func (f *Function) Selector() string {
	return hexutil.Encode(f.selector[:])
}

// Constant reports whether the function is read-only (view or pure).
func (f *Function) Constant() bool {
	return !f.isConstructor && f.method.IsConstant()
}

// Payable reports whether the function accepts value.
func (f *Function) Payable() bool {
	return f.method.IsPayable()
}

func (f *Function) Inputs() abi.Arguments  { return f.method.Inputs }
func (f *Function) Outputs() abi.Arguments { return f.method.Outputs }

// Encode packs args into call data: selector followed by the arguments for
// functions, the bare arguments for the constructor. args are coerced to the
// ABI's Go types first, so decimal or hex strings work for numbers and hex
// strings for addresses and bytes.
func (f *Function) Encode(args ...interface{}) ([]byte, error) {
	if len(args) != len(f.method.Inputs) {
		return nil, rpc.Errorf(rpc.KindValidation, "%s: expected %d arguments, got %d",
			f.Name, len(f.method.Inputs), len(args))
	}
	coerced, err := coerceArgs(f.method.Inputs, args)
	if err != nil {
		return nil, rpc.Wrap(rpc.KindValidation, err, f.Name)
	}
	packed, err := f.method.Inputs.Pack(coerced...)
	if err != nil {
		return nil, rpc.Wrap(rpc.KindValidation, err, "encode "+f.Name)
	}
	if f.isConstructor {
		return packed, nil
	}
	return append(append([]byte{}, f.selector[:]...), packed...), nil
}

// Decode unpacks return data. A single output collapses to its value,
// several outputs come back as an ordered slice, none as nil.
func (f *Function) Decode(data []byte) (interface{}, error) {
	if len(f.method.Outputs) == 0 {
		return nil, nil
	}
	values, err := f.method.Outputs.Unpack(data)
	if err != nil {
		return nil, rpc.Wrap(rpc.KindParse, err, "decode "+f.Name+" result")
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

// request merges opts with the contract address as default "to" and puts
// the encoded call after any data already present in opts.
func (f *Function) request(opts format.CallRequest, args []interface{}) (format.CallRequest, error) {
	req := opts.Copy()
	if req.To == nil && !f.isConstructor {
		to, err := f.contract.requireBound()
		if err != nil {
			return req, err
		}
		req.To = to
	}
	encoded, err := f.Encode(args...)
	if err != nil {
		return req, err
	}
	req.Data = append(req.Data, encoded...)
	return req, nil
}

// Call runs the function as eth_call against the latest block and decodes
// the result.
func (f *Function) Call(ctx context.Context, opts format.CallRequest, args ...interface{}) (interface{}, error) {
	req, err := f.request(opts, args)
	if err != nil {
		return nil, err
	}
	data, err := f.contract.api.Eth.Call(ctx, req, format.Latest)
	if err != nil {
		return nil, err
	}
	return f.Decode(data)
}

func (f *Function) requireMutable(op string) error {
	if f.Constant() {
		return rpc.Errorf(rpc.KindUnsupported, "%s is constant, %s is not available", f.Name, op)
	}
	return nil
}

// SendTransaction queues the call with parity_postTransaction and returns
// the signer request id.
func (f *Function) SendTransaction(ctx context.Context, opts format.CallRequest, args ...interface{}) (*big.Int, error) {
	if err := f.requireMutable("sendTransaction"); err != nil {
		return nil, err
	}
	req, err := f.request(opts, args)
	if err != nil {
		return nil, err
	}
	return f.contract.api.Parity.PostTransaction(ctx, req)
}

// EstimateGas estimates the gas the transaction would use.
func (f *Function) EstimateGas(ctx context.Context, opts format.CallRequest, args ...interface{}) (*big.Int, error) {
	if err := f.requireMutable("estimateGas"); err != nil {
		return nil, err
	}
	req, err := f.request(opts, args)
	if err != nil {
		return nil, err
	}
	return f.contract.api.Eth.EstimateGas(ctx, req)
}

// SignAndSendTransaction signs with password through the personal module
// and returns the transaction hash.
func (f *Function) SignAndSendTransaction(ctx context.Context, opts format.CallRequest, password string, args ...interface{}) (string, error) {
	if err := f.requireMutable("signAndSendTransaction"); err != nil {
		return "", err
	}
	req, err := f.request(opts, args)
	if err != nil {
		return "", err
	}
	return f.contract.api.Personal.SignAndSendTransaction(ctx, req, password)
}
